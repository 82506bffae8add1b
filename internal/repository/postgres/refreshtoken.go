package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const refreshTokenColumns = `id, tenant_id, user_id, token_hash, device_id, created_at, expires_at,
	is_revoked, revoked_at, parent_token_id, replaced_by_token_id`

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, tenant_id, user_id, token_hash, device_id, created_at, expires_at,
	is_revoked, revoked_at, parent_token_id, replaced_by_token_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + refreshTokenColumns

func (r *RefreshTokenRepo) Save(ctx context.Context, t models.RefreshToken) (models.RefreshToken, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, saveToken,
		t.ID, t.TenantID, t.UserID, t.TokenHash, t.DeviceID, t.CreatedAt, t.ExpiresAt,
		t.IsRevoked, t.RevokedAt, t.ParentTokenID, t.ReplacedByTokenID,
	)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "refresh_tokens_hash_idx" {
			return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshHashCollision)
		}
		return token, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

const getTokenByHash = `-- name: GetRefreshTokenByHash
SELECT ` + refreshTokenColumns + `
FROM refresh_tokens
WHERE tenant_id = $1 AND token_hash = $2
`

// Get token by its hash
// It should return result even it expired or revoked already
func (r *RefreshTokenRepo) GetByHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getTokenByHash, tenantID, tokenHash)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeRefreshToken if it not revoked
UPDATE refresh_tokens
SET is_revoked = TRUE, revoked_at = $3, replaced_by_token_id = $4
WHERE tenant_id = $1 AND id = $2 AND NOT is_revoked
`

const tokenExists = `-- name: RefreshTokenExists
SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE tenant_id = $1 AND id = $2)
`

// Persist token revocation
// The row is changed only if it is not revoked yet: concurrent writers are serialized
// by the row lock, the loser sees zero affected rows
func (r *RefreshTokenRepo) Update(ctx context.Context, t models.RefreshToken) error {
	if !t.IsRevoked || t.RevokedAt == nil {
		return errors.New("repo error: only token revocation may be persisted")
	}

	tag, err := r.DB.Exec(ctx, revokeToken, t.TenantID, t.ID, *t.RevokedAt, t.ReplacedByTokenID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.DB.QueryRow(ctx, tokenExists, t.TenantID, t.ID).Scan(&exists)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case exists:
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
	default:
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
}

const revokeAllForUser = `-- name: RevokeAllRefreshTokensForUser
UPDATE refresh_tokens
SET is_revoked = TRUE, revoked_at = $3
WHERE tenant_id = $1 AND user_id = $2 AND NOT is_revoked
`

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, revokeAllForUser, tenantID, userID, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(
		&t.ID, &t.TenantID, &t.UserID, &t.TokenHash, &t.DeviceID, &t.CreatedAt, &t.ExpiresAt,
		&t.IsRevoked, &t.RevokedAt, &t.ParentTokenID, &t.ReplacedByTokenID,
	)
	return t, err
}
