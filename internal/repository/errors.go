// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting SQL errors: ErrNotFound covers missing or soft-deleted rows,
// the duplicate variants cover unique-constraint violations and
// ErrTokenInvalid covers unknown or expired single-use tokens.
package repository

import "errors"

// ErrNotFound is returned when a referenced user, role or permission does
// not exist (or has been soft deleted).  Handlers should translate this
// into an HTTP 404 response, or 401 on the authentication path.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when the email is already taken by a live
// user.  Handlers should translate this into an HTTP 422 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNameExists is returned when a role or permission name is already
// taken.  Handlers should translate this into an HTTP 422 response.
var ErrNameExists = errors.New("name already exists")

// ErrTokenInvalid is returned when a verification or password-reset token
// is unknown, already consumed or expired.  The three cases are
// indistinguishable on purpose.
var ErrTokenInvalid = errors.New("invalid or expired token")
