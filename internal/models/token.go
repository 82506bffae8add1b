package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a persisted refresh token record.
// Only the hash of the secret is stored, the raw secret is given to the caller once.
type RefreshToken struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	DeviceID  string
	CreatedAt time.Time
	ExpiresAt time.Time

	IsRevoked bool
	RevokedAt *time.Time // nil iff IsRevoked is false

	// Lineage links. ParentTokenID is nil for the first token after login
	ParentTokenID     *uuid.UUID
	ReplacedByTokenID *uuid.UUID
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Revoke marks token revoked at the given time and links the successor if any
func (t *RefreshToken) Revoke(at time.Time, replacedBy *uuid.UUID) {
	t.IsRevoked = true
	t.RevokedAt = &at
	t.ReplacedByTokenID = replacedBy
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Session is the result of login or refresh: access and refresh tokens issued together
type Session struct {
	Access  IssuedToken
	Refresh IssuedToken

	// Access token lifetime in seconds
	ExpiresIn int64
}
