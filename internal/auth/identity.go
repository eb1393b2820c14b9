// Package auth implements the authorization core: bearer token signing and
// verification, identity resolution over the RBAC graph, the read-through
// identity cache and the role/permission guard.  It is framework-agnostic;
// the echo adapters live in internal/middleware.
package auth

import (
	"context"
	"errors"
	"sort"

	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"
)

// ErrUnauthenticated signals a missing or unusable identity and maps to
// HTTP 401.  It covers bad tokens as well as users failing the
// active/verified/not-deleted predicate; callers must not distinguish the
// cases outwardly.
var ErrUnauthenticated = errors.New("authentication required")

// ErrForbidden signals an authenticated identity lacking a required role
// or permission and maps to HTTP 403.
var ErrForbidden = errors.New("insufficient permissions")

// UserInformation is the resolved identity attached to a request: role
// names plus the flattened union of all permission names across those
// roles.  Both slices are sorted and de-duplicated, which makes resolution
// deterministic.  This exact JSON shape is what the identity cache stores.
type UserInformation struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// HasRole reports whether the identity holds the named role.
func (u *UserInformation) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the identity holds the named permission.
func (u *UserInformation) HasPermission(name string) bool {
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// IsSuperuser reports whether the identity carries the superuser sentinel
// role, which bypasses every role and permission check.
func (u *UserInformation) IsSuperuser() bool {
	return u.HasRole(model.SuperuserRole)
}

// CredentialStore is the slice of the user repository the resolver needs.
type CredentialStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RBACGraph is the slice of the RBAC repository the resolver needs.
type RBACGraph interface {
	RolesForUser(ctx context.Context, userID uint64) ([]model.Role, error)
	PermissionsForRole(ctx context.Context, roleID uint64) ([]model.Permission, error)
}

// Resolver computes UserInformation from the credential store and the RBAC
// graph.  This is the expensive part of the per-request authorization path
// (one query per role), which is why results are cached.
type Resolver struct {
	users CredentialStore
	rbac  RBACGraph
}

func NewResolver(users CredentialStore, rbac RBACGraph) *Resolver {
	return &Resolver{users: users, rbac: rbac}
}

// Resolve loads the user, enforces the authenticatable predicate (active,
// email verified, not soft-deleted) and flattens roles and permissions.
// Ineligible or missing users fail with ErrUnauthenticated; store failures
// propagate untouched so the caller can surface a 500.
func (r *Resolver) Resolve(ctx context.Context, userID uint64) (UserInformation, error) {
	u, err := r.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return UserInformation{}, ErrUnauthenticated
	}
	if err != nil {
		return UserInformation{}, err
	}
	if u.Status != model.StatusActive || u.EmailVerifiedAt == nil || u.DeletedAt != nil {
		return UserInformation{}, ErrUnauthenticated
	}

	roles, err := r.rbac.RolesForUser(ctx, userID)
	if err != nil {
		return UserInformation{}, err
	}

	roleNames := make([]string, 0, len(roles))
	permSet := map[string]struct{}{}
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
		perms, err := r.rbac.PermissionsForRole(ctx, role.ID)
		if err != nil {
			return UserInformation{}, err
		}
		for _, p := range perms {
			permSet[p.Name] = struct{}{}
		}
	}

	permNames := make([]string, 0, len(permSet))
	for name := range permSet {
		permNames = append(permNames, name)
	}
	sort.Strings(roleNames)
	sort.Strings(permNames)

	return UserInformation{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Roles:       roleNames,
		Permissions: permNames,
	}, nil
}
