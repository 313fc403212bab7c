package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/types"
)

type DoorStore struct {
	mu    sync.RWMutex
	doors map[string]*types.Door
}

func NewDoorStore() *DoorStore {
	return &DoorStore{doors: make(map[string]*types.Door)}
}

func (s *DoorStore) CreateDoor(_ context.Context, d *types.Door) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = "door-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	s.doors[d.ID] = cloneDoor(d)
	return nil
}

func (s *DoorStore) GetDoor(_ context.Context, id string) (*types.Door, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.doors[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneDoor(d), nil
}

func (s *DoorStore) ListDoors(_ context.Context, ids []string) ([]*types.Door, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[string]struct{}
	if ids != nil {
		allowed = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			allowed[id] = struct{}{}
		}
	}

	var out []*types.Door
	for _, d := range s.doors {
		if allowed != nil {
			if _, ok := allowed[d.ID]; !ok {
				continue
			}
		}
		out = append(out, cloneDoor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DoorStore) UpdateDoor(_ context.Context, d *types.Door) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.doors[d.ID]
	if !ok {
		return errs.ErrNotFound
	}

	next := cloneDoor(d)
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.doors[d.ID] = next
	return nil
}

func (s *DoorStore) MarkSeen(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doors[id]
	if !ok {
		return errs.ErrNotFound
	}
	t := at.UTC()
	d.LastSeenAt = &t
	return nil
}

func cloneDoor(d *types.Door) *types.Door {
	c := *d
	if d.LastSeenAt != nil {
		t := *d.LastSeenAt
		c.LastSeenAt = &t
	}
	return &c
}
