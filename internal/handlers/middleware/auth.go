package middleware

import (
	"net/http"

	"github.com/nkiryanov/hrauth/internal/handlers/render"
	"github.com/nkiryanov/hrauth/internal/handlers/userctx"
	"github.com/nkiryanov/hrauth/internal/models"
)

type authenticator interface {
	Authenticate(r *http.Request) (models.Principal, error)
}

// Auth rejects requests without valid access token
// The principal of the token is available with userctx.FromContext
func Auth(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := a.Authenticate(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
