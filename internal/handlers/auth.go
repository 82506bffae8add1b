package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/handlers/render"
	"github.com/nkiryanov/hrauth/internal/handlers/userctx"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
	"github.com/nkiryanov/hrauth/internal/service/auth"
)

type sessionResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func newSessionResponse(s models.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.Access.Value,
		RefreshToken: s.Refresh.Value,
		ExpiresIn:    s.ExpiresIn,
	}
}

func handleLogin(authService authService, l logger.Logger) http.HandlerFunc {
	type request struct {
		Email    string `json:"email" validate:"required,max=254"`
		Password string `json:"password" validate:"required,max=72"`
		DeviceID string `json:"deviceId" validate:"deviceid"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := userctx.TenantFromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := authService.Login(r.Context(), tenantID, data.Email, data.Password, data.DeviceID)

		switch {
		case err == nil:
			authService.SetSessionCookies(w, session)
			render.JSON(w, newSessionResponse(session))
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			l.Error("Failed to login", "tenant_id", tenantID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

func handleRefresh(authService authService, l logger.Logger) http.HandlerFunc {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"max=128"`
		DeviceID     string `json:"deviceId" validate:"deviceid"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := userctx.TenantFromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindOptional[request](w, r)
		if err != nil {
			return
		}

		refresh := data.RefreshToken
		if refresh == "" {
			refresh = auth.RefreshFromCookie(r)
		}
		if refresh == "" {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		session, err := authService.Refresh(r.Context(), tenantID, refresh, data.DeviceID)

		switch {
		case err == nil:
			authService.SetSessionCookies(w, session)
			render.JSON(w, newSessionResponse(session))
		case errors.Is(err, apperrors.ErrUnauthorized):
			authService.ClearSessionCookies(w)
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh session", "tenant_id", tenantID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

func handleLogout(authService authService, l logger.Logger) http.HandlerFunc {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"max=128"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindOptional[request](w, r)
		if err != nil {
			return
		}

		refresh := data.RefreshToken
		if refresh == "" {
			refresh = auth.RefreshFromCookie(r)
		}

		if err := authService.Logout(r.Context(), principal, refresh); err != nil {
			l.Error("Failed to logout", "tenant_id", principal.TenantID, "user_id", principal.UserID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		authService.ClearSessionCookies(w)
		render.NoContent(w)
	}
}

func handleRevokeSessions(authService authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		if err := authService.RevokeAll(r.Context(), principal.TenantID, userID); err != nil {
			l.Error("Failed to revoke sessions", "tenant_id", principal.TenantID, "user_id", userID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		l.Info("sessions revoked", "tenant_id", principal.TenantID, "user_id", userID, "by", principal.UserID)
		render.NoContent(w)
	}
}

func handleMe() http.HandlerFunc {
	type response struct {
		UserID   uuid.UUID `json:"userId"`
		TenantID uuid.UUID `json:"tenantId"`
		Roles    []string  `json:"roles"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())

		roles := principal.Roles
		if roles == nil {
			roles = []string{}
		}
		render.JSON(w, response{UserID: principal.UserID, TenantID: principal.TenantID, Roles: roles})
	}
}
