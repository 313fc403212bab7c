package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/janus-access/server/internal/janus/credential"
	"github.com/janus-access/server/internal/janus/errs"
	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

// Claims is the session token payload: the principal id in the subject
// plus their role at issue time.
type Claims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and validates session tokens. Login failures are
// uniformly ErrUnauthenticated so callers cannot probe which accounts
// exist.
type AuthService struct {
	users  store.UserStore
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users store.UserStore, secret []byte, ttl time.Duration, logger *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		secret: secret,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login exchanges email plus access code for a signed session token.
func (s *AuthService) Login(ctx context.Context, email, accessCode string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || accessCode == "" {
		return "", nil, errs.ErrValidation
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return "", nil, errs.ErrUnauthenticated
	}
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	if !user.IsActive || user.IsExpired(now) {
		return "", nil, errs.ErrUnauthenticated
	}

	ok, err := credential.VerifyAccessCode(accessCode, user.AccessCodeHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		s.logger.Info("login rejected", zap.String("user_id", user.ID))
		return "", nil, errs.ErrUnauthenticated
	}

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("login", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return token, user, nil
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrUnauthenticated
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errs.ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, errs.ErrUnauthenticated
	}
	return claims, nil
}

// Authenticate resolves a token to its live principal: the account must
// still be active and unexpired at request time.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*types.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || user.IsExpired(s.now()) {
		return nil, errs.ErrUnauthenticated
	}
	return user, nil
}
