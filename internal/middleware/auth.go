// Package middleware provides the HTTP cross-cutting concerns: bearer
// token authentication and per-client rate limiting.
package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/dpaschgit/lbaasv1/internal/config"
	"github.com/dpaschgit/lbaasv1/internal/domain"
	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "user"

// Claims are the JWT claims issued for API principals.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates HS256 bearer tokens against a static
// user directory.
type Authenticator struct {
	secret      []byte
	tokenExpiry time.Duration
	users       map[string]config.UserConfig
	logger      *logger.Logger
}

// NewAuthenticator creates an authenticator from the auth configuration.
func NewAuthenticator(cfg config.AuthConfig, log *logger.Logger) *Authenticator {
	users := make(map[string]config.UserConfig, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.Username] = u
	}
	return &Authenticator{
		secret:      []byte(cfg.Secret),
		tokenExpiry: time.Duration(cfg.TokenExpiryMinutes) * time.Minute,
		users:       users,
		logger:      log.WithField("component", "auth"),
	}
}

// Authenticate checks credentials and returns the matching user.
func (a *Authenticator) Authenticate(username, password string) (*domain.User, error) {
	u, ok := a.users[username]
	// Constant-time compare; a missing user still burns a comparison so
	// lookups are not distinguishable by timing.
	expected := u.Password
	if subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 || !ok {
		return nil, apperrors.NewAuthenticationError("incorrect username or password")
	}
	if u.Disabled {
		return nil, apperrors.NewAuthenticationError("user account is disabled")
	}
	return &domain.User{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Disabled: u.Disabled,
	}, nil
}

// IssueToken signs a bearer token for an authenticated user.
func (a *Authenticator) IssueToken(user *domain.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(a.tokenExpiry)
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "auth", "failed to sign token")
	}
	return signed, expiresAt, nil
}

// ValidateToken parses a bearer token and returns the embedded user.
func (a *Authenticator) ValidateToken(tokenString string) (*domain.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.NewAuthenticationError("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, apperrors.NewAuthenticationError("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.NewAuthenticationError("invalid token claims")
	}

	u, exists := a.users[claims.Username]
	if !exists {
		return nil, apperrors.NewAuthenticationError("unknown user")
	}
	if u.Disabled {
		return nil, apperrors.NewAuthenticationError("user account is disabled")
	}
	return &domain.User{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Disabled: u.Disabled,
	}, nil
}

// RequireAuth wraps a handler chain with bearer token validation. The
// authenticated user is stored in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			a.logger.WithFields(map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("missing bearer token")
			writeAuthError(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		user, err := a.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			a.logger.WithFields(map[string]interface{}{
				"path":  r.URL.Path,
				"error": err.Error(),
			}).Warn("token validation failed")
			writeAuthError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user stored by RequireAuth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

func writeAuthError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   "authentication_failed",
		"message": message,
		"status":  status,
	})
}
