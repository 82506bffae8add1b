package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/nkiryanov/hrauth/internal/handlers/middleware"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
)

type Config struct {
	// Origins allowed to call API with credentials. CORS is disabled if empty
	CORSOrigins []string
}

func NewRouter(
	cfg Config,
	authService authService,
	policyEngine policyEngine,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.Auth(authService)

	router := chi.NewRouter()
	router.Use(
		chimw.RequestID,
		middleware.LoggerMiddleware(logger),
		chimw.Recoverer,
	)

	router.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Tenant)
			r.Post("/login", handleLogin(authService, logger))
			r.Post("/refresh", handleRefresh(authService, logger))
		})
		r.Group(func(r chi.Router) {
			r.Use(withAuth)
			r.Post("/logout", handleLogout(authService, logger))
			r.Get("/me", handleMe())
			r.With(
				middleware.RequirePolicy(policyEngine, logger, "sessions", "revoke-all", userIDFromPath),
			).Post("/users/{userID}/revoke-sessions", handleRevokeSessions(authService, logger))
		})
	})

	router.Route("/api/policy", func(r chi.Router) {
		r.Use(withAuth)
		r.Post("/evaluate", handleEvaluatePolicy(policyEngine, logger))
	})

	if len(cfg.CORSOrigins) == 0 {
		return router
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.TenantHeader},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

func userIDFromPath(r *http.Request) *uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		return nil
	}
	return &id
}

type authService interface {
	// Login user by email and password within the tenant
	// Has to return apperrors.ErrInvalidCredentials for unknown user or wrong password
	Login(ctx context.Context, tenantID uuid.UUID, email string, password string, deviceID string) (models.Session, error)

	// Rotate refresh token and issue new session
	// Every rejection has to match apperrors.ErrUnauthorized
	Refresh(ctx context.Context, tenantID uuid.UUID, refresh string, deviceID string) (models.Session, error)

	RevokeAll(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) error
	Logout(ctx context.Context, principal models.Principal, refresh string) error

	// Get request and return principal if it authenticated or error
	Authenticate(r *http.Request) (models.Principal, error)

	SetSessionCookies(w http.ResponseWriter, session models.Session)
	ClearSessionCookies(w http.ResponseWriter)
}

type policyEngine interface {
	Evaluate(ctx context.Context, pc models.PolicyContext) (models.Decision, error)
	Authorize(ctx context.Context, pc models.PolicyContext) error
}
