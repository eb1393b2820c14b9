package model

import "time"

// SuperuserRole is the reserved role name granting unconditional
// authorization bypass.  It is never assigned ordinary permissions and is
// excluded from the role listing used by the admin UI.
const SuperuserRole = "superuser"

// Role represents a row in the `roles` table.
type Role struct {
	ID        uint64    // roles.id
	Name      string    // roles.name (unique)
	CreatedAt time.Time // roles.created_at
	UpdatedAt time.Time // roles.updated_at
}

// Permission represents a row in the `permissions` table.  The Group label
// exists only for UI grouping and carries no authorization semantics.
type Permission struct {
	ID        uint64    // permissions.id
	Name      string    // permissions.name (unique)
	Group     string    // permissions.group
	CreatedAt time.Time // permissions.created_at
	UpdatedAt time.Time // permissions.updated_at
}

// RolePermission joins roles to permissions.  The pair forms the composite
// primary key and rows cascade-delete with either parent.
type RolePermission struct {
	RoleID       uint64 // role_permissions.role_id
	PermissionID uint64 // role_permissions.permission_id
}

// UserRole joins users to roles, recording when the assignment was made.
type UserRole struct {
	UserID     uint64    // user_roles.user_id
	RoleID     uint64    // user_roles.role_id
	AssignedAt time.Time // user_roles.created_at
}
