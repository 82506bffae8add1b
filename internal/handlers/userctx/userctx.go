package userctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/models"
)

type ctxKey string

const (
	principalKey ctxKey = "principal"
	tenantKey    ctxKey = "tenant"
)

// Create a new context with the authenticated principal
func New(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Extract the principal from the context
func FromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// Create a new context with tenant of not authenticated request
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

func TenantFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantKey).(uuid.UUID)
	return id, ok
}
