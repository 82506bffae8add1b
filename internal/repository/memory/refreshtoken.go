package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/models"
)

type RefreshTokenRepo struct {
	s *Storage
}

func (r *RefreshTokenRepo) Save(ctx context.Context, t models.RefreshToken) (models.RefreshToken, error) {
	defer r.s.lock()()

	if _, ok := r.s.data.hashes[t.TokenHash]; ok {
		return models.RefreshToken{}, fmt.Errorf("repo error: %w", apperrors.ErrRefreshHashCollision)
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	r.s.data.tokens[t.ID] = t
	r.s.data.hashes[t.TokenHash] = t.ID
	return t, nil
}

func (r *RefreshTokenRepo) GetByHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (models.RefreshToken, error) {
	defer r.s.lock()()

	id, ok := r.s.data.hashes[tokenHash]
	if !ok {
		return models.RefreshToken{}, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
	t := r.s.data.tokens[id]
	if t.TenantID != tenantID {
		return models.RefreshToken{}, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
	return t, nil
}

func (r *RefreshTokenRepo) Update(ctx context.Context, t models.RefreshToken) error {
	if !t.IsRevoked || t.RevokedAt == nil {
		return errors.New("repo error: only token revocation may be persisted")
	}

	defer r.s.lock()()

	stored, ok := r.s.data.tokens[t.ID]
	switch {
	case !ok || stored.TenantID != t.TenantID:
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	case stored.IsRevoked:
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
	}

	stored.Revoke(*t.RevokedAt, t.ReplacedByTokenID)
	r.s.data.tokens[t.ID] = stored
	return nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, at time.Time) (int64, error) {
	defer r.s.lock()()

	var count int64
	for id, t := range r.s.data.tokens {
		if t.TenantID != tenantID || t.UserID != userID || t.IsRevoked {
			continue
		}
		t.Revoke(at, nil)
		r.s.data.tokens[id] = t
		count++
	}
	return count, nil
}
