// Package user provisions tenant users. The auth flows only read users,
// creation is done by operators through hrauthctl.
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/models"
	"github.com/nkiryanov/hrauth/internal/repository"
	"github.com/nkiryanov/hrauth/internal/service/auth"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type NewUser struct {
	TenantID      uuid.UUID `validate:"required"`
	Email         string    `validate:"required,email,max=254"`
	Password      string    `validate:"required,min=8,max=72"`
	Roles         []string  `validate:"dive,required"`
	IsSystemAdmin bool
}

type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

// CreateUser validates input and stores user with hashed password
// Returns apperrors.ErrUserAlreadyExists if email is taken in the tenant
func (s *UserService) CreateUser(ctx context.Context, nu NewUser) (models.User, error) {
	nu.Email = strings.TrimSpace(nu.Email)
	if err := validate.Struct(nu); err != nil {
		return models.User{}, fmt.Errorf("invalid user: %w", err)
	}

	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, models.User{
		TenantID:       nu.TenantID,
		Email:          nu.Email,
		HashedPassword: hash,
		Roles:          nu.Roles,
		IsSystemAdmin:  nu.IsSystemAdmin,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}
