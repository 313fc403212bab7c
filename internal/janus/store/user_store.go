// Package store defines the persistence contracts for principals,
// doors, and access events. Implementations live in the sqlite and
// memory subpackages.
package store

import (
	"context"
	"time"

	"github.com/janus-access/server/internal/janus/types"
)

// UserStore persists principals and their door grants.
//
// Lookups return errs.ErrNotFound when no record exists. Grant writes
// return errs.ErrConflict on a duplicate grant or on revoking a grant
// that does not exist — at most one grant per (user, door) pair.
type UserStore interface {
	CreateUser(ctx context.Context, u *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// ListUsers returns users ordered by creation time, newest first.
	// A non-empty createdBy restricts the result to accounts created by
	// that principal.
	ListUsers(ctx context.Context, createdBy string) ([]*types.User, error)

	UpdateUser(ctx context.Context, u *types.User) error

	// ListDoorCandidates returns the active users holding a grant on the
	// door, with grants and credentials loaded. This is the candidate
	// set the verification path matches against.
	ListDoorCandidates(ctx context.Context, doorID string) ([]*types.User, error)

	AddGrant(ctx context.Context, userID, doorID string, grantedAt time.Time) error
	RemoveGrant(ctx context.Context, userID, doorID string) error

	// SetLastVerification records a granted verification outcome.
	// The verification service is the only caller.
	SetLastVerification(ctx context.Context, userID string, at time.Time) error
}
