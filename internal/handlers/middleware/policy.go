package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/handlers/render"
	"github.com/nkiryanov/hrauth/internal/handlers/userctx"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
)

type authorizer interface {
	Authorize(ctx context.Context, pc models.PolicyContext) error
}

// TargetFunc extracts the user the request acts upon, nil if there is none
type TargetFunc func(r *http.Request) *uuid.UUID

// RequirePolicy lets the request through only if tenant policy allows principal roles
// to perform action on resource. Must be mounted after Auth.
func RequirePolicy(a authorizer, l logger.Logger, resource string, action string, target TargetFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			pc := models.PolicyContext{
				TenantID:    principal.TenantID,
				Resource:    resource,
				Action:      action,
				Roles:       principal.Roles,
				ActorUserID: &principal.UserID,
			}
			if target != nil {
				pc.TargetUserID = target(r)
			}

			err := a.Authorize(r.Context(), pc)
			switch {
			case errors.Is(err, apperrors.ErrPolicyDenied):
				l.Info("denied by policy", "tenant_id", principal.TenantID, "user_id", principal.UserID, "resource", resource, "action", action, "reason", err)
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			case err != nil:
				l.Error("policy evaluation failed", "tenant_id", principal.TenantID, "resource", resource, "action", action, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
