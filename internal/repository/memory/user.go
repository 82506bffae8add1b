package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/models"
)

type UserRepo struct {
	s *Storage
}

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	defer r.s.lock()()

	for _, existed := range r.s.data.users {
		if existed.TenantID == u.TenantID && strings.EqualFold(existed.Email, u.Email) {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Roles = slices.Clone(u.Roles)
	if u.Roles == nil {
		u.Roles = []string{}
	}

	r.s.data.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (models.User, error) {
	defer r.s.lock()()

	u, ok := r.s.data.users[userID]
	if !ok || u.TenantID != tenantID {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.data.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func cloneUser(u models.User) models.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}
