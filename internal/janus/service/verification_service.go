package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/janus-access/server/internal/actuator"
	"github.com/janus-access/server/internal/janus/credential"
	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// FaceResolver matches a presented face descriptor against a candidate
// set. Satisfied by credential.FaceMatcher.
type FaceResolver interface {
	Match(ctx context.Context, descriptor []byte, candidates []*types.User) (*types.User, error)
}

// VerificationService decides grant/deny for door-access attempts and
// writes the audit trail. It holds no state across attempts beyond the
// principal's last verification time and the lockout counters.
type VerificationService struct {
	users   store.UserStore
	doors   store.DoorStore
	events  store.AccessEventStore
	faces   FaceResolver
	relay   actuator.Client
	lockout *Lockout
	images  *ImageStore
	logger  *zap.Logger

	// userLocks serializes the step-up decision and grant for a single
	// principal, so two concurrent attempts cannot both read a stale
	// lastVerificationAt and both actuate.
	userLocks keyedMutex

	now func() time.Time
}

type VerificationConfig struct {
	Users   store.UserStore
	Doors   store.DoorStore
	Events  store.AccessEventStore
	Faces   FaceResolver
	Relay   actuator.Client
	Lockout *Lockout
	Images  *ImageStore
	Logger  *zap.Logger
}

func NewVerificationService(cfg VerificationConfig) *VerificationService {
	lockout := cfg.Lockout
	if lockout == nil {
		lockout = NewLockout(0, 0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		users:   cfg.Users,
		doors:   cfg.Doors,
		events:  cfg.Events,
		faces:   cfg.Faces,
		relay:   cfg.Relay,
		lockout: lockout,
		images:  cfg.Images,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// VerifyCode runs a primary verification attempt by shared access code.
func (s *VerificationService) VerifyCode(ctx context.Context, req types.VerifyCodeRequest) (*types.Decision, error) {
	if req.DoorID == "" || req.AccessCode == "" {
		return nil, errs.ErrValidation
	}

	door, err := s.activeDoor(ctx, req.DoorID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.users.ListDoorCandidates(ctx, door.ID)
	if err != nil {
		return nil, err
	}
	matched, err := credential.MatchCode(req.AccessCode, candidates)
	if err != nil {
		return nil, err
	}

	return s.resolvePrimary(ctx, door, matched, types.MethodCode, "")
}

// VerifyFace runs a primary verification attempt by face descriptor.
func (s *VerificationService) VerifyFace(ctx context.Context, req types.VerifyFaceRequest) (*types.Decision, error) {
	if req.DoorID == "" || len(req.FaceDescriptor) == 0 {
		return nil, errs.ErrValidation
	}
	if s.faces == nil {
		return nil, errs.ErrValidation
	}

	door, err := s.activeDoor(ctx, req.DoorID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.users.ListDoorCandidates(ctx, door.ID)
	if err != nil {
		return nil, err
	}
	matched, err := s.faces.Match(ctx, req.FaceDescriptor, candidates)
	if err != nil {
		return nil, err
	}

	return s.resolvePrimary(ctx, door, matched, types.MethodFace, s.saveCapture(req.Image))
}

// resolvePrimary applies lockout, expiration, and the step-up policy to
// a matched (or unmatched) principal and produces the terminal or
// pending decision plus its audit event.
func (s *VerificationService) resolvePrimary(ctx context.Context, door *types.Door, matched *types.User, method types.VerifyMethod, imageRef string) (*types.Decision, error) {
	now := s.now()

	if matched == nil {
		if s.lockout.Blocked(door.ID, "") {
			return s.deny(ctx, door, nil, method, imageRef, types.DenyLockedOut)
		}
		s.lockout.RecordFailure(door.ID, "")
		return s.deny(ctx, door, nil, method, imageRef, types.DenyInvalidCredential)
	}

	if s.lockout.Blocked(door.ID, matched.ID) || s.lockout.Blocked(door.ID, "") {
		return s.deny(ctx, door, matched, method, imageRef, types.DenyLockedOut)
	}

	if matched.IsExpired(now) {
		return s.deny(ctx, door, matched, method, imageRef, types.DenyExpired)
	}

	unlock := s.userLocks.lock(matched.ID)
	defer unlock()

	// Re-read under the lock: a concurrent attempt may have granted and
	// refreshed lastVerificationAt since the candidate load.
	fresh, err := s.users.GetUser(ctx, matched.ID)
	if err != nil {
		return nil, err
	}

	if stepUpRequired(door, fresh, now) {
		ev := &types.AccessEvent{
			DoorID:     door.ID,
			UserID:     fresh.ID,
			EventType:  types.EventDoubleVerification,
			Method:     method,
			Success:    true,
			ImageRef:   imageRef,
			OccurredAt: now,
		}
		if err := s.events.RecordEvent(ctx, ev); err != nil {
			return nil, err
		}
		return &types.Decision{
			Status: types.StatusPendingSecondFactor,
			User:   fresh,
			UserID: fresh.ID,
		}, nil
	}

	return s.grant(ctx, door, fresh, method, imageRef, now)
}

// VerifyDouble completes a step-up flow: the credential is checked
// against the named principal only, no candidate scan.
func (s *VerificationService) VerifyDouble(ctx context.Context, req types.DoubleVerifyRequest) (*types.Decision, error) {
	hasCode := req.AccessCode != ""
	hasFace := len(req.FaceDescriptor) > 0
	if req.DoorID == "" || req.UserID == "" || hasCode == hasFace {
		return nil, errs.ErrValidation
	}

	door, err := s.activeDoor(ctx, req.DoorID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.ErrNotFound
	}

	// Grants may have been revoked between the two factors.
	if !user.HasAccessToDoor(door.ID) {
		return nil, errs.ErrForbidden
	}

	now := s.now()

	if s.lockout.Blocked(door.ID, user.ID) {
		return s.deny(ctx, door, user, types.MethodDouble, "", types.DenyLockedOut)
	}
	if user.IsExpired(now) {
		return s.deny(ctx, door, user, types.MethodDouble, "", types.DenyExpired)
	}

	ok, err := s.checkSecondFactor(ctx, user, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.lockout.RecordFailure(door.ID, user.ID)
		return s.deny(ctx, door, user, types.MethodDouble, "", types.DenyInvalidCredential)
	}

	unlock := s.userLocks.lock(user.ID)
	defer unlock()

	return s.grant(ctx, door, user, types.MethodDouble, "", now)
}

func (s *VerificationService) checkSecondFactor(ctx context.Context, user *types.User, req types.DoubleVerifyRequest) (bool, error) {
	if req.AccessCode != "" {
		if user.AccessCodeHash == "" {
			return false, nil
		}
		return credential.VerifyAccessCode(req.AccessCode, user.AccessCodeHash)
	}
	if s.faces == nil {
		return false, nil
	}
	matched, err := s.faces.Match(ctx, req.FaceDescriptor, []*types.User{user})
	if err != nil {
		return false, err
	}
	return matched != nil && matched.ID == user.ID, nil
}

// ReportMotion appends an approach event. Best-effort: a failed write is
// logged, not surfaced.
func (s *VerificationService) ReportMotion(ctx context.Context, req types.MotionRequest) error {
	if req.DoorID == "" {
		return errs.ErrValidation
	}
	ev := &types.AccessEvent{
		DoorID:     req.DoorID,
		EventType:  types.EventApproach,
		Method:     types.MethodNone,
		Success:    true,
		ImageRef:   s.saveCapture(req.Image),
		OccurredAt: s.now(),
	}
	if err := s.events.RecordEvent(ctx, ev); err != nil {
		s.logger.Warn("motion event write failed",
			zap.String("door_id", req.DoorID), zap.Error(err))
	}
	return nil
}

// grant actuates the door and persists the outcome. The actuation and
// both writes run on a context detached from the caller: once the relay
// command has been issued the attempt must be recorded even if the
// caller disconnects. A relay failure is reported on the decision, never
// escalated to a denial.
func (s *VerificationService) grant(ctx context.Context, door *types.Door, user *types.User, method types.VerifyMethod, imageRef string, now time.Time) (*types.Decision, error) {
	dec := &types.Decision{
		Status: types.StatusGranted,
		User:   user,
		UserID: user.ID,
	}

	detached := context.WithoutCancel(ctx)

	if _, err := s.relay.Toggle(detached, door); err != nil {
		dec.ActuatorError = err.Error()
		s.logger.Warn("actuator failure on granted decision",
			zap.String("door_id", door.ID), zap.String("user_id", user.ID), zap.Error(err))
	}

	if err := s.users.SetLastVerification(detached, user.ID, now); err != nil {
		return nil, err
	}
	ev := &types.AccessEvent{
		DoorID:     door.ID,
		UserID:     user.ID,
		EventType:  types.EventAccessGranted,
		Method:     method,
		Success:    true,
		ImageRef:   imageRef,
		OccurredAt: now,
	}
	if err := s.events.RecordEvent(detached, ev); err != nil {
		return nil, err
	}
	s.lockout.Reset(door.ID, user.ID)

	s.logger.Info("access granted",
		zap.String("door_id", door.ID),
		zap.String("user_id", user.ID),
		zap.String("method", string(method)))
	return dec, nil
}

// deny records the failed-attempt event and returns the denial.
func (s *VerificationService) deny(ctx context.Context, door *types.Door, user *types.User, method types.VerifyMethod, imageRef string, reason types.DenyReason) (*types.Decision, error) {
	ev := &types.AccessEvent{
		DoorID:     door.ID,
		EventType:  types.EventAccessAttempt,
		Method:     method,
		Success:    false,
		ImageRef:   imageRef,
		OccurredAt: s.now(),
	}
	if user != nil {
		ev.UserID = user.ID
	}
	if reason != types.DenyInvalidCredential {
		ev.Metadata = map[string]string{"reason": string(reason)}
	}
	if err := s.events.RecordEvent(ctx, ev); err != nil {
		return nil, err
	}

	dec := &types.Decision{Status: types.StatusDenied, Reason: reason}
	if user != nil {
		dec.User = user
		dec.UserID = user.ID
	}
	return dec, nil
}

func (s *VerificationService) activeDoor(ctx context.Context, id string) (*types.Door, error) {
	door, err := s.doors.GetDoor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !door.IsActive {
		return nil, errs.ErrNotFound
	}
	return door, nil
}

// saveCapture stores an optional base64 capture and returns its ref.
// Capture storage is best-effort and never fails an attempt.
func (s *VerificationService) saveCapture(encoded string) string {
	if encoded == "" || s.images == nil {
		return ""
	}
	ref, err := s.images.Save(encoded)
	if err != nil {
		s.logger.Warn("capture image save failed", zap.Error(err))
		return ""
	}
	return ref
}

func stepUpRequired(door *types.Door, user *types.User, now time.Time) bool {
	if door.DoubleVerificationWindowDays <= 0 {
		return false
	}
	if user.LastVerificationAt == nil {
		return true
	}
	window := time.Duration(door.DoubleVerificationWindowDays) * 24 * time.Hour
	return now.Sub(*user.LastVerificationAt) >= window
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
