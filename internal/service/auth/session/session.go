// Package session manages refresh token lineages: creation, rotation with
// replay detection, device binding and revocation.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
	"github.com/nkiryanov/hrauth/internal/repository"
)

const (
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	secretSize = 32
)

type Config struct {
	// Refresh token lifetime
	// If not set than default is used
	RefreshTTL time.Duration
}

type Manager struct {
	storage    repository.Storage
	logger     logger.Logger
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config, storage repository.Storage, l logger.Logger) (*Manager, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = defaultRefreshTokenTTL
	}

	return &Manager{
		storage:    storage,
		logger:     l.With("component", "session"),
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// HashSecret returns the value stored in place of the raw refresh secret
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func newSecret() (string, error) {
	b := make([]byte, secretSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generate refresh token. Err: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
}

// CreateSession starts a new lineage
// The raw secret is returned once and never stored
func (m *Manager) CreateSession(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, deviceID string) (string, models.RefreshToken, error) {
	secret, err := newSecret()
	if err != nil {
		return "", models.RefreshToken{}, err
	}

	now := m.now()
	token, err := m.storage.Refresh().Save(ctx, models.RefreshToken{
		TenantID:  tenantID,
		UserID:    userID,
		TokenHash: HashSecret(secret),
		DeviceID:  deviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.refreshTTL),
	})
	if err != nil {
		return "", models.RefreshToken{}, persistence(err)
	}

	return secret, token, nil
}

// RotateHook runs inside the rotation transaction after the successor is saved
// An error rolls the rotation back and the presented token stays valid
type RotateHook func(ctx context.Context, tx repository.Storage, successor models.RefreshToken) error

// Rotate exchanges presented secret for a successor in the same lineage
//
// Every rejection is apperrors.ErrUnauthorized with the cause wrapped under it.
// Presenting a revoked token revokes all tokens of its user.
// Device mismatch revokes only the presented token.
func (m *Manager) Rotate(ctx context.Context, tenantID uuid.UUID, presented string, deviceID string, hooks ...RotateHook) (string, models.RefreshToken, error) {
	current, err := m.storage.Refresh().GetByHash(ctx, tenantID, HashSecret(presented))
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return "", models.RefreshToken{}, apperrors.Unauthorized(apperrors.ErrRefreshTokenNotFound)
	case err != nil:
		return "", models.RefreshToken{}, persistence(err)
	}

	log := m.logger.With("tenant_id", tenantID, "user_id", current.UserID, "token_id", current.ID)
	now := m.now()

	switch {
	case current.IsRevoked:
		return "", models.RefreshToken{}, m.replayed(ctx, log, current)

	case current.IsExpired(now):
		return "", models.RefreshToken{}, apperrors.Unauthorized(apperrors.ErrRefreshTokenExpired)

	case deviceID != "" && deviceID != current.DeviceID:
		log.Warn("refresh token presented from other device, token revoked", "device_id", deviceID)
		current.Revoke(now, nil)
		err := m.storage.Refresh().Update(ctx, current)
		if err != nil && !errors.Is(err, apperrors.ErrRefreshTokenRevoked) {
			return "", models.RefreshToken{}, persistence(err)
		}
		return "", models.RefreshToken{}, apperrors.Unauthorized(apperrors.ErrDeviceMismatch)
	}

	if deviceID == "" {
		deviceID = current.DeviceID
	}

	secret, err := newSecret()
	if err != nil {
		return "", models.RefreshToken{}, err
	}

	var successor models.RefreshToken
	err = m.storage.InTx(ctx, func(tx repository.Storage) error {
		successor, err = tx.Refresh().Save(ctx, models.RefreshToken{
			TenantID:      current.TenantID,
			UserID:        current.UserID,
			TokenHash:     HashSecret(secret),
			DeviceID:      deviceID,
			CreatedAt:     now,
			ExpiresAt:     now.Add(m.refreshTTL),
			ParentTokenID: &current.ID,
		})
		if err != nil {
			return err
		}

		rotated := current
		rotated.Revoke(now, &successor.ID)
		if err := tx.Refresh().Update(ctx, rotated); err != nil {
			return err
		}

		for _, hook := range hooks {
			if err := hook(ctx, tx, successor); err != nil {
				return err
			}
		}
		return nil
	})

	switch {
	case err == nil:
		log.Debug("refresh token rotated", "successor_id", successor.ID)
		return secret, successor, nil
	case errors.Is(err, apperrors.ErrRefreshTokenRevoked):
		// Lost the race to a concurrent rotation of the same token
		return "", models.RefreshToken{}, m.replayed(ctx, log, current)
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "", models.RefreshToken{}, err
	default:
		return "", models.RefreshToken{}, persistence(err)
	}
}

func (m *Manager) replayed(ctx context.Context, log logger.Logger, token models.RefreshToken) error {
	count, err := m.storage.Refresh().RevokeAllForUser(ctx, token.TenantID, token.UserID, m.now())
	if err != nil {
		log.Error("revoked refresh token replayed, but user sessions could not be revoked", "error", err)
		return persistence(err)
	}

	log.Warn("revoked refresh token replayed, all user sessions revoked", "revoked", count)
	return apperrors.Unauthorized(apperrors.ErrRefreshTokenRevoked)
}

// RevokeAllForUser revokes every active token of the user. Idempotent
func (m *Manager) RevokeAllForUser(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) error {
	count, err := m.storage.Refresh().RevokeAllForUser(ctx, tenantID, userID, m.now())
	if err != nil {
		return persistence(err)
	}

	m.logger.Info("user sessions revoked", "tenant_id", tenantID, "user_id", userID, "revoked", count)
	return nil
}

// RevokeOne revokes the token with the hash if it belongs to the user
// Unknown, foreign and already revoked tokens are ignored
func (m *Manager) RevokeOne(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, tokenHash string) error {
	token, err := m.storage.Refresh().GetByHash(ctx, tenantID, tokenHash)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return nil
	case err != nil:
		return persistence(err)
	case token.UserID != userID || token.IsRevoked:
		return nil
	}

	token.Revoke(m.now(), nil)
	err = m.storage.Refresh().Update(ctx, token)
	if err != nil && !errors.Is(err, apperrors.ErrRefreshTokenRevoked) {
		return persistence(err)
	}

	return nil
}
