// Package memory provides in-memory store implementations for tests and
// dev environments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/types"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]*types.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*types.User)}
}

func (s *UserStore) CreateUser(_ context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return errs.ErrConflict
		}
	}

	if u.ID == "" {
		u.ID = "usr-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) GetUser(_ context.Context, id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (s *UserStore) ListUsers(_ context.Context, createdBy string) ([]*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.User
	for _, u := range s.users {
		if createdBy != "" && u.CreatedBy != createdBy {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *UserStore) UpdateUser(_ context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return errs.ErrNotFound
	}

	for id, other := range s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return errs.ErrConflict
		}
	}

	next := cloneUser(u)
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = next
	return nil
}

func (s *UserStore) ListDoorCandidates(_ context.Context, doorID string) ([]*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.User
	for _, u := range s.users {
		if u.IsActive && u.HasAccessToDoor(doorID) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *UserStore) AddGrant(_ context.Context, userID, doorID string, grantedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return errs.ErrNotFound
	}
	if u.HasAccessToDoor(doorID) {
		return errs.ErrConflict
	}
	u.DoorGrants = append(u.DoorGrants, types.DoorGrant{DoorID: doorID, GrantedAt: grantedAt})
	return nil
}

func (s *UserStore) RemoveGrant(_ context.Context, userID, doorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return errs.ErrNotFound
	}
	for i, g := range u.DoorGrants {
		if g.DoorID == doorID {
			u.DoorGrants = append(u.DoorGrants[:i], u.DoorGrants[i+1:]...)
			return nil
		}
	}
	return errs.ErrConflict
}

func (s *UserStore) SetLastVerification(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return errs.ErrNotFound
	}
	t := at.UTC()
	u.LastVerificationAt = &t
	return nil
}

func cloneUser(u *types.User) *types.User {
	c := *u
	c.DoorGrants = append([]types.DoorGrant(nil), u.DoorGrants...)
	c.AccessPeriods = append([]types.AccessPeriod(nil), u.AccessPeriods...)
	c.FaceDescriptor = append([]byte(nil), u.FaceDescriptor...)
	if u.ExpirationDate != nil {
		t := *u.ExpirationDate
		c.ExpirationDate = &t
	}
	if u.LastVerificationAt != nil {
		t := *u.LastVerificationAt
		c.LastVerificationAt = &t
	}
	return &c
}
