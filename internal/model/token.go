package model

import "time"

// ActionToken models a single-use token row shared by the
// `email_verification_tokens` and `password_reset_tokens` tables.  Tokens
// are deleted upon successful consumption and any previously outstanding
// token for the same user is purged when a new one is issued.
type ActionToken struct {
	ID        uint64    // primary key
	UserID    uint64    // owning user
	Token     string    // opaque random token value
	ExpiresAt time.Time // expiry timestamp
	CreatedAt time.Time // timestamp of creation
	UpdatedAt time.Time // timestamp of last update
}
