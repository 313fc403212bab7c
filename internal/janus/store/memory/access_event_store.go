package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// AccessEventStore is an in-memory append-only log of access events.
// It is intended for use in tests and dev environments.
type AccessEventStore struct {
	mu     sync.Mutex
	events []types.AccessEvent
}

func NewAccessEventStore() *AccessEventStore {
	return &AccessEventStore{}
}

func (s *AccessEventStore) RecordEvent(_ context.Context, ev *types.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = "evt-" + uuid.NewString()[:8]
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	s.events = append(s.events, *ev)
	return nil
}

func (s *AccessEventStore) QueryEvents(_ context.Context, f store.EventFilter) (*store.EventPage, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	var scope map[string]struct{}
	if f.DoorIDs != nil {
		scope = make(map[string]struct{}, len(f.DoorIDs))
		for _, id := range f.DoorIDs {
			scope[id] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []types.AccessEvent
	for _, ev := range s.events {
		if scope != nil {
			if _, ok := scope[ev.DoorID]; !ok {
				continue
			}
		}
		if f.DoorID != "" && ev.DoorID != f.DoorID {
			continue
		}
		if f.UserID != "" && ev.UserID != f.UserID {
			continue
		}
		if f.EventType != "" && ev.EventType != f.EventType {
			continue
		}
		if f.Start != nil && ev.OccurredAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && ev.OccurredAt.After(*f.End) {
			continue
		}
		matched = append(matched, ev)
	}

	// Newest first.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	total := len(matched)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]types.AccessEvent, end-start)
	copy(out, matched[start:end])

	return &store.EventPage{
		Events:     out,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *AccessEventStore) GetEvent(_ context.Context, id string) (*types.AccessEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == id {
			ev := s.events[i]
			return &ev, nil
		}
	}
	return nil, errs.ErrNotFound
}

// Events returns a copy of all recorded events. Test-only helper.
func (s *AccessEventStore) Events() []types.AccessEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AccessEvent, len(s.events))
	copy(out, s.events)
	return out
}
