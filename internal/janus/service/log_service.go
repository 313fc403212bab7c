package service

import (
	"context"
	"io"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// LogService is the role-scoped read surface over the access log.
type LogService struct {
	events store.AccessEventStore
	images *ImageStore
}

func NewLogService(events store.AccessEventStore, images *ImageStore) *LogService {
	return &LogService{events: events, images: images}
}

// Query runs an event query for the acting principal. Administrators
// query unscoped; everyone else has the filter pre-intersected with the
// doors they hold a grant on, and asking for a door outside that set is
// Forbidden rather than silently empty.
func (s *LogService) Query(ctx context.Context, actor *types.User, f store.EventFilter) (*store.EventPage, error) {
	if actor.Role != types.RoleAdministrator {
		if f.DoorID != "" && !actor.HasAccessToDoor(f.DoorID) {
			return nil, errs.ErrForbidden
		}
		scope := make([]string, 0, len(actor.DoorGrants))
		for _, g := range actor.DoorGrants {
			scope = append(scope, g.DoorID)
		}
		f.DoorIDs = scope
	}
	return s.events.QueryEvents(ctx, f)
}

// GetImage streams the capture image attached to an event, enforcing the
// same door scoping as Query.
func (s *LogService) GetImage(ctx context.Context, actor *types.User, eventID string) (io.ReadCloser, error) {
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if actor.Role != types.RoleAdministrator && !actor.HasAccessToDoor(ev.DoorID) {
		return nil, errs.ErrForbidden
	}
	if ev.ImageRef == "" || s.images == nil {
		return nil, errs.ErrNotFound
	}
	return s.images.Open(ev.ImageRef)
}
