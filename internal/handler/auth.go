package handler

import (
	"net/http"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// AuthHandler issues bearer tokens and reports the current principal.
type AuthHandler struct {
	auth   *middleware.Authenticator
	logger *logger.Logger
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(auth *middleware.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: log}
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

// Token handles POST /api/v1/auth/token. Credentials arrive as JSON or as
// an OAuth2-style form body.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			respondError(w, apperrors.WrapError(err, apperrors.ErrCodeInvalidRequest, "api", "malformed form body"))
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, expiresAt, err := h.auth.IssueToken(user)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.WithField("username", user.Username).Info("token issued")
	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Me handles GET /api/v1/auth/users/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, apperrors.NewAuthenticationError("no authenticated user"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}
