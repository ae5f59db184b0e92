package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teemow/meetbook/internal/logging"
)

const (
	adminIssuer  = "meetbook"
	adminSubject = "admin"

	// DefaultAdminTokenTTL is the lifetime of issued admin tokens.
	DefaultAdminTokenTTL = 24 * time.Hour
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned when a bearer token is not accepted.
	ErrInvalidToken = errors.New("invalid admin token")

	// ErrNoSigningSecret is returned when issuing without a secret.
	ErrNoSigningSecret = errors.New("admin JWT secret is not configured")
)

// AdminClaims are the claims of an operator token.
type AdminClaims struct {
	jwt.RegisteredClaims
}

// IssueAdminToken signs an HS256 operator token valid for ttl from now.
func IssueAdminToken(secret []byte, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSigningSecret
	}
	if ttl <= 0 {
		ttl = DefaultAdminTokenTTL
	}

	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    adminIssuer,
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// AdminAuth guards the operator routes. A request passes with either the
// static token or a JWT signed with the secret. With neither configured
// the routes are open.
type AdminAuth struct {
	staticToken string
	secret      []byte
	now         func() time.Time
	logger      *slog.Logger
}

// NewAdminAuth creates an AdminAuth.
func NewAdminAuth(staticToken string, secret []byte, logger *slog.Logger) *AdminAuth {
	return &AdminAuth{
		staticToken: staticToken,
		secret:      secret,
		now:         time.Now,
		logger:      logging.WithComponent(logger, "admin-auth"),
	}
}

// Enabled reports whether any credential is configured.
func (a *AdminAuth) Enabled() bool {
	return a != nil && (a.staticToken != "" || len(a.secret) > 0)
}

// Verify checks a bearer token.
func (a *AdminAuth) Verify(token string) error {
	if token == "" {
		return ErrMissingToken
	}
	if a.staticToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.staticToken)) == 1 {
		return nil
	}
	if len(a.secret) == 0 {
		return ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &AdminClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// Middleware rejects unauthenticated requests with 401.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if err := a.Verify(bearerToken(r)); err != nil {
			a.logger.Warn("rejected admin request",
				"path", r.URL.Path,
				logging.Err(err))
			w.Header().Set("WWW-Authenticate", `Bearer realm="meetbook-admin"`)
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"message": "Authentication required.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
