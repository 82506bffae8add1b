package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/hrauth/internal/apperrors"
)

type TenantConfigRepo struct {
	DB DBTX
}

const getConfigJSON = `-- name: GetTenantConfigJSON
SELECT config_json FROM tenant_configs
WHERE tenant_id = $1
`

func (r *TenantConfigRepo) GetConfigJSON(ctx context.Context, tenantID uuid.UUID) (string, error) {
	rows, _ := r.DB.Query(ctx, getConfigJSON, tenantID)
	config, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return config, nil
	case errors.Is(err, pgx.ErrNoRows):
		return "", fmt.Errorf("repo error: %w", apperrors.ErrTenantConfigNotFound)
	default:
		return "", fmt.Errorf("db error: %w", err)
	}
}

const setConfigJSON = `-- name: SetTenantConfigJSON
INSERT INTO tenant_configs (tenant_id, config_json, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (tenant_id) DO UPDATE
SET config_json = EXCLUDED.config_json, updated_at = EXCLUDED.updated_at
`

func (r *TenantConfigRepo) SetConfigJSON(ctx context.Context, tenantID uuid.UUID, config string) error {
	_, err := r.DB.Exec(ctx, setConfigJSON, tenantID, config)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
