package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice-api/internal/model"
)

func TestRequireRolesNilIdentity(t *testing.T) {
	assert.ErrorIs(t, RequireRoles(nil, []string{"editor"}), ErrUnauthenticated)
	assert.ErrorIs(t, RequirePermissions(nil, []string{"user list"}), ErrUnauthenticated)
}

func TestRequireRolesAnyOf(t *testing.T) {
	ident := &UserInformation{ID: 1, Roles: []string{"editor"}}

	// Holding any one of the requested roles is enough.
	assert.NoError(t, RequireRoles(ident, []string{"admin", "editor"}))
	assert.ErrorIs(t, RequireRoles(ident, []string{"admin", "auditor"}), ErrForbidden)
	assert.ErrorIs(t, RequireRoles(ident, nil), ErrForbidden)
}

func TestRequirePermissionsAllOf(t *testing.T) {
	ident := &UserInformation{ID: 1, Permissions: []string{"user list", "user view"}}

	assert.NoError(t, RequirePermissions(ident, []string{"user list"}))
	assert.NoError(t, RequirePermissions(ident, []string{"user list", "user view"}))
	// One missing permission fails the whole check.
	assert.ErrorIs(t, RequirePermissions(ident, []string{"user list", "user delete"}), ErrForbidden)
	// An empty requirement set passes for any authenticated identity.
	assert.NoError(t, RequirePermissions(ident, nil))
}

func TestSuperuserBypassesEverything(t *testing.T) {
	ident := &UserInformation{ID: 1, Roles: []string{model.SuperuserRole}}

	assert.NoError(t, RequireRoles(ident, []string{"admin"}))
	assert.NoError(t, RequirePermissions(ident, []string{"user delete", "role delete"}))
	assert.True(t, ident.IsSuperuser())
}
