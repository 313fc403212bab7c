package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/role"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// DoorService gates door administration and grant management behind the
// role hierarchy.
type DoorService struct {
	doors  store.DoorStore
	users  store.UserStore
	logger *zap.Logger
	now    func() time.Time
}

func NewDoorService(doors store.DoorStore, users store.UserStore, logger *zap.Logger) *DoorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DoorService{
		doors:  doors,
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateDoorInput carries the writable door fields.
type CreateDoorInput struct {
	Name                         string `json:"name"`
	Location                     string `json:"location"`
	ActuatorAddress              string `json:"actuator_address"`
	ActuatorKey                  string `json:"actuator_key"`
	DoubleVerificationWindowDays int    `json:"double_verification_window_days"`
}

// CreateDoor is administrator-only.
func (s *DoorService) CreateDoor(ctx context.Context, actor *types.User, in CreateDoorInput) (*types.Door, error) {
	if actor.Role != types.RoleAdministrator {
		return nil, errs.ErrForbidden
	}
	if in.Name == "" || in.ActuatorAddress == "" || in.DoubleVerificationWindowDays < 0 {
		return nil, errs.ErrValidation
	}

	d := &types.Door{
		Name:                         in.Name,
		Location:                     in.Location,
		ActuatorAddress:              in.ActuatorAddress,
		ActuatorKey:                  in.ActuatorKey,
		DoubleVerificationWindowDays: in.DoubleVerificationWindowDays,
		IsActive:                     true,
		CreatedBy:                    actor.ID,
	}
	if err := s.doors.CreateDoor(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("door created",
		zap.String("door_id", d.ID), zap.String("created_by", actor.ID))
	return d, nil
}

func (s *DoorService) GetDoor(ctx context.Context, actor *types.User, id string) (*types.Door, error) {
	door, err := s.doors.GetDoor(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != types.RoleAdministrator && !actor.HasAccessToDoor(door.ID) {
		return nil, errs.ErrForbidden
	}
	return door, nil
}

// ListDoors returns every door for administrators; everyone else sees
// only the doors they hold a grant on.
func (s *DoorService) ListDoors(ctx context.Context, actor *types.User) ([]*types.Door, error) {
	if actor.Role == types.RoleAdministrator {
		return s.doors.ListDoors(ctx, nil)
	}
	ids := make([]string, 0, len(actor.DoorGrants))
	for _, g := range actor.DoorGrants {
		ids = append(ids, g.DoorID)
	}
	return s.doors.ListDoors(ctx, ids)
}

// UpdateDoorInput carries the updatable door fields. Nil pointers leave
// the field unchanged.
type UpdateDoorInput struct {
	Name                         *string `json:"name"`
	Location                     *string `json:"location"`
	ActuatorAddress              *string `json:"actuator_address"`
	ActuatorKey                  *string `json:"actuator_key"`
	DoubleVerificationWindowDays *int    `json:"double_verification_window_days"`
	IsActive                     *bool   `json:"is_active"`
}

// UpdateDoor is administrator-only.
func (s *DoorService) UpdateDoor(ctx context.Context, actor *types.User, id string, in UpdateDoorInput) (*types.Door, error) {
	if actor.Role != types.RoleAdministrator {
		return nil, errs.ErrForbidden
	}
	door, err := s.doors.GetDoor(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, errs.ErrValidation
		}
		door.Name = *in.Name
	}
	if in.Location != nil {
		door.Location = *in.Location
	}
	if in.ActuatorAddress != nil {
		if *in.ActuatorAddress == "" {
			return nil, errs.ErrValidation
		}
		door.ActuatorAddress = *in.ActuatorAddress
	}
	if in.ActuatorKey != nil {
		door.ActuatorKey = *in.ActuatorKey
	}
	if in.DoubleVerificationWindowDays != nil {
		if *in.DoubleVerificationWindowDays < 0 {
			return nil, errs.ErrValidation
		}
		door.DoubleVerificationWindowDays = *in.DoubleVerificationWindowDays
	}
	if in.IsActive != nil {
		door.IsActive = *in.IsActive
	}

	if err := s.doors.UpdateDoor(ctx, door); err != nil {
		return nil, err
	}
	return door, nil
}

// DeactivateDoor disables a door without breaking event references.
func (s *DoorService) DeactivateDoor(ctx context.Context, actor *types.User, id string) error {
	if actor.Role != types.RoleAdministrator {
		return errs.ErrForbidden
	}
	door, err := s.doors.GetDoor(ctx, id)
	if err != nil {
		return err
	}
	if !door.IsActive {
		return nil
	}
	door.IsActive = false
	if err := s.doors.UpdateDoor(ctx, door); err != nil {
		return err
	}
	s.logger.Info("door deactivated",
		zap.String("door_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// GrantAccess adds a grant for userID on the door. Duplicate grants are
// a Conflict, not a silent merge.
func (s *DoorService) GrantAccess(ctx context.Context, actor *types.User, doorID, userID string) error {
	door, err := s.doors.GetDoor(ctx, doorID)
	if err != nil {
		return err
	}
	grantee, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !role.CanGrantDoorAccess(actor, door, grantee.Role) {
		return errs.ErrForbidden
	}

	if err := s.users.AddGrant(ctx, userID, doorID, s.now()); err != nil {
		return err
	}
	s.logger.Info("door access granted",
		zap.String("door_id", doorID),
		zap.String("user_id", userID),
		zap.String("actor_id", actor.ID))
	return nil
}

// RevokeAccess removes a grant. Revoking a grant that does not exist is
// a Conflict.
func (s *DoorService) RevokeAccess(ctx context.Context, actor *types.User, doorID, userID string) error {
	if _, err := s.doors.GetDoor(ctx, doorID); err != nil {
		return err
	}
	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !role.CanRevokeDoorAccess(actor, target) {
		return errs.ErrForbidden
	}

	if err := s.users.RemoveGrant(ctx, userID, doorID); err != nil {
		return err
	}
	s.logger.Info("door access revoked",
		zap.String("door_id", doorID),
		zap.String("user_id", userID),
		zap.String("actor_id", actor.ID))
	return nil
}
