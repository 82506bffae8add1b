package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
)

type TenantConfigRepo struct {
	s *Storage
}

func (r *TenantConfigRepo) GetConfigJSON(ctx context.Context, tenantID uuid.UUID) (string, error) {
	defer r.s.lock()()

	config, ok := r.s.data.configs[tenantID]
	if !ok {
		return "", fmt.Errorf("repo error: %w", apperrors.ErrTenantConfigNotFound)
	}
	return config, nil
}

func (r *TenantConfigRepo) SetConfigJSON(ctx context.Context, tenantID uuid.UUID, config string) error {
	defer r.s.lock()()

	r.s.data.configs[tenantID] = config
	return nil
}
