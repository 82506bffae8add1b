package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/handlers/render"
	"github.com/nkiryanov/hrauth/internal/handlers/userctx"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
)

// Evaluate tenant policy for the caller roles
func handleEvaluatePolicy(engine policyEngine, l logger.Logger) http.HandlerFunc {
	type request struct {
		Resource     string `json:"resource" validate:"required,max=128"`
		Action       string `json:"action" validate:"required,max=128"`
		TargetUserID string `json:"targetUserId" validate:"omitempty,uuid"`
	}
	type response struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pc := models.PolicyContext{
			TenantID:    principal.TenantID,
			Resource:    data.Resource,
			Action:      data.Action,
			Roles:       principal.Roles,
			ActorUserID: &principal.UserID,
		}
		if data.TargetUserID != "" {
			// already validated
			target := uuid.MustParse(data.TargetUserID)
			pc.TargetUserID = &target
		}

		decision, err := engine.Evaluate(r.Context(), pc)
		if err != nil {
			l.Error("Failed to evaluate policy", "tenant_id", principal.TenantID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Allowed: decision.Allowed, Reason: decision.Reason})
	}
}
