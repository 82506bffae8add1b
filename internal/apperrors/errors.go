package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Every failed refresh is reported as ErrUnauthorized.
	// The refresh token errors below are wrapped under it to keep the cause in logs.
	ErrUnauthorized = errors.New("unauthorized")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrRefreshHashCollision = errors.New("refresh token hash collision")
	ErrDeviceMismatch       = errors.New("refresh token device mismatch")

	ErrPersistence = errors.New("persistence failure")

	ErrTenantConfigNotFound = errors.New("tenant config not found")
	ErrPolicyDenied         = errors.New("denied by policy")
)

// Unauthorized wraps cause so that errors.Is matches both ErrUnauthorized and cause
func Unauthorized(cause error) error {
	return fmt.Errorf("%w: %w", ErrUnauthorized, cause)
}
