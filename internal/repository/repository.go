package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the same email exists in tenant already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or email within tenant
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save new token. ID is generated if not set
	// Hash collision has to return apperrors.ErrRefreshHashCollision
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token even if it expired or revoked
	// If not found must return apperrors.ErrRefreshTokenNotFound
	GetByHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (models.RefreshToken, error)

	// Persist revocation of the token (is_revoked, revoked_at, replaced_by_token_id)
	// Only a not revoked row may be updated: if the stored token is revoked already
	// has to return apperrors.ErrRefreshTokenRevoked and change nothing
	Update(ctx context.Context, token models.RefreshToken) error

	// Revoke every not revoked token of the user, return number of revoked tokens
	RevokeAllForUser(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, at time.Time) (int64, error)
}

// Tenant configuration (policy documents) repository interface
type TenantConfigRepo interface {
	// Return raw config JSON
	// If tenant has no config must return apperrors.ErrTenantConfigNotFound
	GetConfigJSON(ctx context.Context, tenantID uuid.UUID) (string, error)

	// Create or replace tenant config
	SetConfigJSON(ctx context.Context, tenantID uuid.UUID, config string) error
}

type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	TenantConfig() TenantConfigRepo

	// Run fn in transaction. Storage passed to fn is bound to the transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
