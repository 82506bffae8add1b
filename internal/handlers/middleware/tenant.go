package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/handlers/render"
	"github.com/nkiryanov/hrauth/internal/handlers/userctx"
)

const TenantHeader = "X-Tenant-ID"

// Tenant resolves tenant of not authenticated request from X-Tenant-ID header
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(TenantHeader)
		if header == "" {
			render.ServiceError(w, "Tenant header is required", http.StatusBadRequest)
			return
		}

		tenantID, err := uuid.Parse(header)
		if err != nil || tenantID == uuid.Nil {
			render.ServiceError(w, "Tenant header is invalid", http.StatusBadRequest)
			return
		}

		ctx := userctx.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
