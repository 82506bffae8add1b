package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type accessLogger interface {
	Info(msg string, args ...any)
}

// LoggerMiddleware writes one access log record per request
// Tenant is taken from the raw header, it is not validated here
func LoggerMiddleware(l accessLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			l.Info(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", status,
				"size", ww.BytesWritten(),
				"request_id", chimw.GetReqID(r.Context()),
				"tenant_id", r.Header.Get(TenantHeader),
			)
		})
	}
}
