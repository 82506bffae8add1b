package tokenmanager

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/models"
)

const (
	defaultAccessTokenTTL = 15 * time.Minute
	defaultSigningMethod  = "HS256"
)

// Roles every system administrator gets in the access token, in this order
var elevatedRoles = []string{"SuperAdmin", "Admin"}

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	TenantID uuid.UUID `json:"tid"`
	Roles    []string  `json:"roles"`
}

// Principal returns the caller identity carried by the claims
func (c AccessTokenClaims) Principal() (models.Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}

	return models.Principal{
		UserID:   userID,
		TenantID: c.TenantID,
		Roles:    slices.Clone(c.Roles),
	}, nil
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access token lifetime
	// If not set than default is used
	AccessTTL time.Duration
}

type TokenManager struct {
	// Secret key to sign access token
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	accessTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method: %q", cfg.Alg)
	}

	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTokenTTL
	}

	return &TokenManager{
		key:       cfg.SecretKey,
		alg:       alg,
		accessTTL: cfg.AccessTTL,
		now:       time.Now,
	}, nil
}

// AccessTTL is the lifetime used when IssueAccessToken gets zero ttl
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// Sign access token for the subject
// System administrators get elevated roles merged into roles
func (m *TokenManager) IssueAccessToken(subject uuid.UUID, tenant uuid.UUID, roles []string, isSystemAdmin bool, ttl time.Duration) (models.IssuedToken, error) {
	if ttl == 0 {
		ttl = m.accessTTL
	}

	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	if isSystemAdmin {
		roles = append(slices.Clone(roles), elevatedRoles...)
	}

	token := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TenantID: tenant,
			Roles:    uniqueFold(roles),
		},
	)

	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(access string) (AccessTokenClaims, error) {
	claims := AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		&claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return AccessTokenClaims{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return claims, nil
}

// Drop case-insensitive duplicates keeping first spelling and order
func uniqueFold(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))

	for _, role := range roles {
		key := strings.ToLower(role)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, role)
	}

	return out
}
