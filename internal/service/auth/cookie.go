package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/models"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	accessHeaderName = "Authorization"
	accessAuthScheme = "Bearer"
)

// SetSessionCookies sets access and refresh tokens as http only strict cookies
func (s *AuthService) SetSessionCookies(w http.ResponseWriter, session models.Session) {
	http.SetCookie(w, s.cookie(AccessCookieName, session.Access))
	http.SetCookie(w, s.cookie(RefreshCookieName, session.Refresh))
}

// ClearSessionCookies expires both session cookies
func (s *AuthService) ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func (s *AuthService) cookie(name string, token models.IssuedToken) *http.Cookie {
	maxAge := int(time.Until(token.ExpiresAt) / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}

	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

// RefreshFromCookie returns refresh token set by SetSessionCookies, empty if absent
func RefreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// AccessFromRequest reads the bearer token and falls back to the access cookie
func AccessFromRequest(r *http.Request) string {
	header := r.Header.Get(accessHeaderName)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, accessAuthScheme) {
		return strings.TrimSpace(token)
	}

	if c, err := r.Cookie(AccessCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate returns principal of the request access token
func (s *AuthService) Authenticate(r *http.Request) (models.Principal, error) {
	access := AccessFromRequest(r)
	if access == "" {
		return models.Principal{}, apperrors.ErrUnauthorized
	}
	return s.ParseAccess(access)
}
