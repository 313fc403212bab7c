package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/janus-access/server/internal/janus/credential"
	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/role"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// UserService is the gated administration surface for principals. Every
// operation takes the acting principal and consults the role hierarchy
// before touching the store.
type UserService struct {
	users  store.UserStore
	hash   credential.HashParams
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(users store.UserStore, hash credential.HashParams, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:  users,
		hash:   hash,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateUserInput carries the writable fields for a new principal.
type CreateUserInput struct {
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Role           types.Role           `json:"role"`
	AccessCode     string               `json:"access_code"`
	FaceDescriptor []byte               `json:"face_descriptor"`
	AccessPeriods  []types.AccessPeriod `json:"access_periods"`
	ExpirationDate *time.Time           `json:"expiration_date"`
}

func (s *UserService) CreateUser(ctx context.Context, actor *types.User, in CreateUserInput) (*types.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.AccessCode == "" {
		return nil, errs.ErrValidation
	}
	if !types.IsValidRole(in.Role) {
		return nil, errs.ErrValidation
	}
	if !role.CanCreate(actor.Role, in.Role) {
		return nil, errs.ErrForbidden
	}

	hash, err := credential.HashAccessCode(in.AccessCode, s.hash)
	if err != nil {
		return nil, err
	}

	u := &types.User{
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Role:           in.Role,
		AccessCodeHash: hash,
		FaceDescriptor: in.FaceDescriptor,
		AccessPeriods:  in.AccessPeriods,
		ExpirationDate: in.ExpirationDate,
		IsActive:       true,
		CreatedBy:      actor.ID,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("created_by", actor.ID))
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, actor *types.User, id string) (*types.User, error) {
	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.CanModify(actor, target) {
		return nil, errs.ErrForbidden
	}
	return target, nil
}

// ListUsers returns all principals for administrators; everyone else
// sees only the accounts they created.
func (s *UserService) ListUsers(ctx context.Context, actor *types.User) ([]*types.User, error) {
	createdBy := ""
	if actor.Role != types.RoleAdministrator {
		createdBy = actor.ID
	}
	return s.users.ListUsers(ctx, createdBy)
}

// UpdateUserInput carries the updatable fields. Nil pointers leave the
// field unchanged; Role changes additionally require administrator.
type UpdateUserInput struct {
	Name           *string               `json:"name"`
	Email          *string               `json:"email"`
	Phone          *string               `json:"phone"`
	Role           *types.Role           `json:"role"`
	AccessCode     *string               `json:"access_code"`
	FaceDescriptor []byte                `json:"face_descriptor"`
	AccessPeriods  *[]types.AccessPeriod `json:"access_periods"`
	ExpirationDate *time.Time            `json:"expiration_date"`
	ClearExpiry    bool                  `json:"clear_expiry"`
	IsActive       *bool                 `json:"is_active"`
}

func (s *UserService) UpdateUser(ctx context.Context, actor *types.User, id string, in UpdateUserInput) (*types.User, error) {
	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.CanModify(actor, target) {
		return nil, errs.ErrForbidden
	}

	if in.Role != nil && *in.Role != target.Role {
		if !types.IsValidRole(*in.Role) {
			return nil, errs.ErrValidation
		}
		if !role.CanChangeRole(actor.Role, target.Role, *in.Role) {
			return nil, errs.ErrForbidden
		}
		target.Role = *in.Role
	}

	if in.Name != nil {
		target.Name = *in.Name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, errs.ErrValidation
		}
		target.Email = email
	}
	if in.Phone != nil {
		target.Phone = *in.Phone
	}
	if in.AccessCode != nil {
		if *in.AccessCode == "" {
			return nil, errs.ErrValidation
		}
		hash, err := credential.HashAccessCode(*in.AccessCode, s.hash)
		if err != nil {
			return nil, err
		}
		target.AccessCodeHash = hash
	}
	if in.FaceDescriptor != nil {
		target.FaceDescriptor = in.FaceDescriptor
	}
	if in.AccessPeriods != nil {
		target.AccessPeriods = *in.AccessPeriods
	}
	if in.ExpirationDate != nil {
		target.ExpirationDate = in.ExpirationDate
	}
	if in.ClearExpiry {
		target.ExpirationDate = nil
	}
	if in.IsActive != nil {
		target.IsActive = *in.IsActive
	}

	if err := s.users.UpdateUser(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// DeactivateUser disables the account. Records are never hard-deleted;
// historical events keep their user ids.
func (s *UserService) DeactivateUser(ctx context.Context, actor *types.User, id string) error {
	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !role.CanModify(actor, target) {
		return errs.ErrForbidden
	}
	if !target.IsActive {
		return nil
	}
	target.IsActive = false
	if err := s.users.UpdateUser(ctx, target); err != nil {
		return err
	}
	s.logger.Info("user deactivated",
		zap.String("user_id", id), zap.String("actor_id", actor.ID))
	return nil
}
