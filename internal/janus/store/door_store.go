package store

import (
	"context"
	"time"

	"github.com/janus-access/server/internal/janus/types"
)

// DoorStore persists doors. Lookups return errs.ErrNotFound when no
// record exists.
type DoorStore interface {
	CreateDoor(ctx context.Context, d *types.Door) error
	GetDoor(ctx context.Context, id string) (*types.Door, error)

	// ListDoors returns doors ordered by name. A non-nil ids slice
	// restricts the result to those doors (used for grant scoping).
	ListDoors(ctx context.Context, ids []string) ([]*types.Door, error)

	UpdateDoor(ctx context.Context, d *types.Door) error

	// MarkSeen records a successful relay state read for the door.
	MarkSeen(ctx context.Context, id string, at time.Time) error
}
