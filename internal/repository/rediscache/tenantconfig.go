// Package rediscache caches tenant policy documents in redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/repository"
)

const (
	keyPrefix = "hrauth:tenant-config"

	// Cached values are prefixed to tell stored config from known absence
	markFound  = "+"
	markAbsent = "-"
)

// TenantConfigRepo is a read-through cache in front of another TenantConfigRepo.
// Redis failures are logged and the request goes to the underlying repo.
type TenantConfigRepo struct {
	next   repository.TenantConfigRepo
	redis  redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

func NewTenantConfigRepo(next repository.TenantConfigRepo, rdb redis.UniversalClient, ttl time.Duration, l logger.Logger) *TenantConfigRepo {
	return &TenantConfigRepo{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: l.With("component", "tenant-config-cache"),
	}
}

func key(tenantID uuid.UUID) string {
	return keyPrefix + ":" + tenantID.String()
}

func (r *TenantConfigRepo) GetConfigJSON(ctx context.Context, tenantID uuid.UUID) (string, error) {
	cached, err := r.redis.Get(ctx, key(tenantID)).Result()
	switch {
	case err == nil && len(cached) > 0:
		if cached[:1] == markAbsent {
			return "", fmt.Errorf("cache: %w", apperrors.ErrTenantConfigNotFound)
		}
		return cached[1:], nil
	case err != nil && !errors.Is(err, redis.Nil):
		r.logger.Warn("cache read failed", "tenant_id", tenantID, "error", err)
	}

	config, err := r.next.GetConfigJSON(ctx, tenantID)
	switch {
	case err == nil:
		r.store(ctx, tenantID, markFound+config)
		return config, nil
	case errors.Is(err, apperrors.ErrTenantConfigNotFound):
		r.store(ctx, tenantID, markAbsent)
		return "", err
	default:
		return "", err
	}
}

// SetConfigJSON writes through and drops the cached value
func (r *TenantConfigRepo) SetConfigJSON(ctx context.Context, tenantID uuid.UUID, config string) error {
	if err := r.next.SetConfigJSON(ctx, tenantID, config); err != nil {
		return err
	}

	if err := r.redis.Del(ctx, key(tenantID)).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", "tenant_id", tenantID, "error", err)
	}
	return nil
}

func (r *TenantConfigRepo) store(ctx context.Context, tenantID uuid.UUID, value string) {
	if err := r.redis.Set(ctx, key(tenantID), value, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", "tenant_id", tenantID, "error", err)
	}
}
