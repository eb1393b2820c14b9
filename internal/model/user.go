package model

import "time"

// User status values as stored in the users.status column.  A user can only
// authenticate while the status is StatusActive.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusBlocked   = "blocked"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted because these structs are used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//
//	ID              – primary key identifier of the user.
//	Name            – display name.
//	Email           – unique email address, stored lower-cased.
//	PasswordHash    – bcrypt hashed password.
//	Status          – account status (active/inactive/suspended/blocked).
//	Remark          – optional free-form note set by an administrator.
//	EmailVerifiedAt – when the email was verified; nil means unverified.
//	DeletedAt       – soft-delete timestamp; nil means the record is live.
//	CreatedAt       – timestamp of creation.
//	UpdatedAt       – timestamp of last update.
type User struct {
	ID              uint64     // users.id
	Name            string     // users.name
	Email           string     // users.email
	PasswordHash    string     // users.password
	Status          string     // users.status
	Remark          *string    // users.remark (nullable)
	EmailVerifiedAt *time.Time // users.email_verified_at (nullable)
	DeletedAt       *time.Time // users.deleted_at (nullable)
	CreatedAt       time.Time  // users.created_at
	UpdatedAt       time.Time  // users.updated_at
}
