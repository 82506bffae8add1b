package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, tenant_id, created_at, email, password_hash, roles, is_system_admin`

const createUser = `-- name: CreateUser
INSERT INTO users (id, tenant_id, email, password_hash, roles, is_system_admin)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}

	rows, _ := r.DB.Query(ctx, createUser, u.ID, u.TenantID, u.Email, u.HashedPassword, u.Roles, u.IsSystemAdmin)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE tenant_id = $1 AND id = $2
`

func (r *UserRepo) GetUserByID(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, tenantID, userID)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE tenant_id = $1 AND lower(email) = lower($2)
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, tenantID, email)
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantID, &u.CreatedAt, &u.Email, &u.HashedPassword, &u.Roles, &u.IsSystemAdmin)
	return u, err
}
