package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	CreatedAt      time.Time
	Email          string
	HashedPassword string
	Roles          []string

	// System-wide administrators get elevated roles in every access token
	IsSystemAdmin bool
}

// Principal is the authenticated caller extracted from a valid access token
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []string
}
