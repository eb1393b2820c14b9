package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"
)

type stubUsers struct {
	users map[uint64]model.User
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type stubRBAC struct {
	roles map[uint64][]model.Role
	perms map[uint64][]model.Permission
}

func (s *stubRBAC) RolesForUser(_ context.Context, userID uint64) ([]model.Role, error) {
	return s.roles[userID], nil
}

func (s *stubRBAC) PermissionsForRole(_ context.Context, roleID uint64) ([]model.Permission, error) {
	return s.perms[roleID], nil
}

// newTestApp wires an echo instance with the real Authenticate middleware in
// front of a handler that echoes the resolved identity's email, plus token
// signing helpers for building requests.
func newTestApp(t *testing.T) (*echo.Echo, *auth.TokenService) {
	t.Helper()

	verified := time.Now().Add(-time.Hour)
	users := &stubUsers{users: map[uint64]model.User{
		1: {ID: 1, Name: "Admin", Email: "admin@example.com", Status: model.StatusActive, EmailVerifiedAt: &verified},
		2: {ID: 2, Name: "Member", Email: "member@example.com", Status: model.StatusActive, EmailVerifiedAt: &verified},
		3: {ID: 3, Name: "Frozen", Email: "frozen@example.com", Status: model.StatusSuspended, EmailVerifiedAt: &verified},
	}}
	rbac := &stubRBAC{
		roles: map[uint64][]model.Role{
			1: {{ID: 10, Name: model.SuperuserRole}},
			2: {{ID: 11, Name: "editor"}},
		},
		perms: map[uint64][]model.Permission{
			11: {{ID: 1, Name: "user list"}},
		},
	}

	tokens := auth.NewTokenService("test-secret", 15)
	resolver := auth.NewResolver(users, rbac)
	cache := auth.NewIdentityCache(nil, time.Minute) // no Redis in tests

	e := echo.New()
	e.Use(Authenticate(tokens, cache, resolver))

	whoami := func(c echo.Context) error {
		return c.String(http.StatusOK, Identity(c).Email)
	}
	e.GET("/me", whoami, RequireAuth())
	e.GET("/users", whoami, RequirePermissions("user list"))
	e.GET("/danger", whoami, RequirePermissions("user delete"))
	e.GET("/editors", whoami, RequireRoles("editor", "admin"))

	return e, tokens
}

func doGET(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	e, tokens := newTestApp(t)
	raw, err := tokens.Sign(2)
	require.NoError(t, err)

	rec := doGET(e, "/me", raw)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "member@example.com", rec.Body.String())
}

func TestMissingOrBadTokenGets401(t *testing.T) {
	e, _ := newTestApp(t)

	rec := doGET(e, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())

	rec = doGET(e, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := auth.NewTokenService("other-secret", 15).Sign(2)
	require.NoError(t, err)
	rec = doGET(e, "/me", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A valid signature over an ineligible user must read as unauthenticated,
// and 401 always wins over 403 even on permission-guarded routes.
func TestIneligibleUserGets401Not403(t *testing.T) {
	e, tokens := newTestApp(t)
	raw, err := tokens.Sign(3) // suspended
	require.NoError(t, err)

	rec := doGET(e, "/danger", raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
}

func TestPermissionGuard(t *testing.T) {
	e, tokens := newTestApp(t)
	raw, err := tokens.Sign(2)
	require.NoError(t, err)

	rec := doGET(e, "/users", raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGET(e, "/danger", raw)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"missing required permission"}`, rec.Body.String())
}

func TestRoleGuard(t *testing.T) {
	e, tokens := newTestApp(t)
	raw, err := tokens.Sign(2)
	require.NoError(t, err)

	rec := doGET(e, "/editors", raw)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSuperuserBypassesGuards(t *testing.T) {
	e, tokens := newTestApp(t)
	raw, err := tokens.Sign(1)
	require.NoError(t, err)

	for _, path := range []string{"/me", "/users", "/danger", "/editors"} {
		rec := doGET(e, path, raw)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
		assert.Equal(t, "admin@example.com", rec.Body.String())
	}
}
