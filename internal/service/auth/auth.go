package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
	"github.com/nkiryanov/hrauth/internal/repository"
	"github.com/nkiryanov/hrauth/internal/service/auth/session"
	"github.com/nkiryanov/hrauth/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type accessTokens interface {
	IssueAccessToken(subject uuid.UUID, tenant uuid.UUID, roles []string, isSystemAdmin bool, ttl time.Duration) (models.IssuedToken, error)
	ParseAccess(access string) (tokenmanager.AccessTokenClaims, error)
	AccessTTL() time.Duration
}

type sessions interface {
	CreateSession(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, deviceID string) (string, models.RefreshToken, error)
	Rotate(ctx context.Context, tenantID uuid.UUID, presented string, deviceID string, hooks ...session.RotateHook) (string, models.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) error
	RevokeOne(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, tokenHash string) error
}

type Config struct {
	// Hasher to compare user passwords on login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Mark session cookies Secure
	SecureCookies bool
}

// Auth service
// Glues user store, access tokens and refresh sessions into login and refresh flows
type AuthService struct {
	tokens   accessTokens
	sessions sessions
	users    repository.UserRepo
	hasher   PasswordHasher
	logger   logger.Logger

	secureCookies bool

	// Hash compared on login of unknown user, so it takes as long as a wrong password
	dummyHash func() (string, error)
}

func NewService(cfg Config, tokens accessTokens, sessions sessions, users repository.UserRepo, l logger.Logger) (*AuthService, error) {
	if tokens == nil || sessions == nil || users == nil {
		return nil, errors.New("token issuer, session manager and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		tokens:        tokens,
		sessions:      sessions,
		users:         users,
		hasher:        hasher,
		logger:        l.With("component", "auth"),
		secureCookies: cfg.SecureCookies,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash(uuid.NewString())
		}),
	}, nil
}

// Login checks credentials and starts a new session on the device
// Unknown email and wrong password both return apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, tenantID uuid.UUID, email string, password string, deviceID string) (models.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, tenantID, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if hash, err := s.dummyHash(); err == nil {
			_ = s.hasher.Compare(hash, password)
		}
		return models.Session{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.Session{}, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.Session{}, apperrors.ErrInvalidCredentials
	}

	secret, record, err := s.sessions.CreateSession(ctx, tenantID, user.ID, deviceID)
	if err != nil {
		return models.Session{}, err
	}

	s.logger.Info("user logged in", "tenant_id", tenantID, "user_id", user.ID, "token_id", record.ID)
	return s.newSession(user, secret, record)
}

// Refresh rotates the refresh token and issues access token with actual user roles
// The user is loaded within the rotation, so if it fails the presented token stays valid
// Any rejection is apperrors.ErrUnauthorized
func (s *AuthService) Refresh(ctx context.Context, tenantID uuid.UUID, refresh string, deviceID string) (models.Session, error) {
	var user models.User
	loadUser := func(ctx context.Context, tx repository.Storage, successor models.RefreshToken) error {
		u, err := tx.User().GetUserByID(ctx, tenantID, successor.UserID)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			return apperrors.Unauthorized(err)
		case err != nil:
			return err
		}
		user = u
		return nil
	}

	secret, record, err := s.sessions.Rotate(ctx, tenantID, refresh, deviceID, loadUser)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			s.logger.Info("refresh rejected", "tenant_id", tenantID, "reason", err)
		}
		return models.Session{}, err
	}

	return s.newSession(user, secret, record)
}

// RevokeAll ends every session of the user
func (s *AuthService) RevokeAll(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) error {
	return s.sessions.RevokeAllForUser(ctx, tenantID, userID)
}

// Logout ends the session of the refresh token if it belongs to the principal
func (s *AuthService) Logout(ctx context.Context, principal models.Principal, refresh string) error {
	if refresh == "" {
		return nil
	}
	return s.sessions.RevokeOne(ctx, principal.TenantID, principal.UserID, session.HashSecret(refresh))
}

// ParseAccess validates access token and returns its principal
func (s *AuthService) ParseAccess(access string) (models.Principal, error) {
	claims, err := s.tokens.ParseAccess(access)
	if err != nil {
		return models.Principal{}, apperrors.Unauthorized(err)
	}

	principal, err := claims.Principal()
	if err != nil {
		return models.Principal{}, apperrors.Unauthorized(err)
	}

	return principal, nil
}

func (s *AuthService) newSession(user models.User, secret string, record models.RefreshToken) (models.Session, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.TenantID, user.Roles, user.IsSystemAdmin, 0)
	if err != nil {
		return models.Session{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return models.Session{
		Access:    access,
		Refresh:   models.IssuedToken{Value: secret, ExpiresAt: record.ExpiresAt},
		ExpiresIn: int64(s.tokens.AccessTTL() / time.Second),
	}, nil
}
