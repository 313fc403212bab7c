package store

import (
	"context"
	"time"

	"github.com/janus-access/server/internal/janus/types"
)

// EventFilter constrains an access-event query. Zero values mean
// "no constraint". DoorIDs, when non-nil, is a hard scope applied on
// top of the other fields — callers use it to pre-intersect a
// non-administrator's query with the doors they hold a grant on.
type EventFilter struct {
	DoorIDs   []string
	DoorID    string
	UserID    string
	EventType types.EventType
	Start     *time.Time
	End       *time.Time

	Page  int // 1-based; defaults to 1
	Limit int // defaults to 50, capped at 200
}

// EventPage is one page of query results, newest first.
type EventPage struct {
	Events     []types.AccessEvent `json:"events"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
}

// AccessEventStore is the append-only audit log. RecordEvent never
// mutates or deletes; QueryEvents and GetEvent only read.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, ev *types.AccessEvent) error
	QueryEvents(ctx context.Context, f EventFilter) (*EventPage, error)
	GetEvent(ctx context.Context, id string) (*types.AccessEvent, error)
}
