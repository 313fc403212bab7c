// Package errs contains sentinel errors used across layers for stable
// error mapping at the HTTP boundary.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested door, user, or log entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates a missing or invalid session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates a role or ownership check failed.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a duplicate grant, a revocation of a grant
	// that does not exist, or a unique constraint violation.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
)
