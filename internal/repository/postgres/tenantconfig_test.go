package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/testutil"
)

func Test_TenantConfigRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("get not existed config", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TenantConfigRepo{DB: tx}

			_, err := repo.GetConfigJSON(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrTenantConfigNotFound)
		})
	})

	t.Run("set and get config", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TenantConfigRepo{DB: tx}
			tenantID := uuid.New()

			err := repo.SetConfigJSON(t.Context(), tenantID, `{"policies":[]}`)
			require.NoError(t, err)

			got, err := repo.GetConfigJSON(t.Context(), tenantID)
			require.NoError(t, err)
			require.JSONEq(t, `{"policies":[]}`, got)
		})
	})

	t.Run("set replaces config", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TenantConfigRepo{DB: tx}
			tenantID := uuid.New()
			require.NoError(t, repo.SetConfigJSON(t.Context(), tenantID, `{"policies":[]}`))

			err := repo.SetConfigJSON(t.Context(), tenantID, `not a json at all`)
			require.NoError(t, err, "config stored as is, parsing is not a repo concern")

			got, err := repo.GetConfigJSON(t.Context(), tenantID)
			require.NoError(t, err)
			require.Equal(t, `not a json at all`, got)
		})
	})
}
