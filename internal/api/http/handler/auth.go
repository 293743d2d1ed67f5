package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// AuthService defines login, refresh and logout operations.
type AuthService interface {
	Login(ctx context.Context, ext model.ExternalIdentity) (model.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (model.AuthResult, error)
	Logout(ctx context.Context, principalUserID uuid.UUID, refreshToken string) error
}

// OAuthExchanger runs the provider side of the OAuth dance.
type OAuthExchanger interface {
	AuthCodeURL(provider, state string) (string, error)
	Exchange(ctx context.Context, provider, code string) (model.ExternalIdentity, error)
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	oauth          OAuthExchanger
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, oauth OAuthExchanger, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		oauth:          oauth,
		contextManager: contextManager,
		logger:         logger,
	}
}

type userResponse struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authResultResponse struct {
	Username     string            `json:"username"`
	Roles        []string          `json:"roles"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	TokenType    string            `json:"tokenType"`
	ExpiresIn    int64             `json:"expiresIn"`
	User         userResponse      `json:"user"`
	Properties   map[string]string `json:"properties"`
}

func newAuthResultResponse(result model.AuthResult) authResultResponse {
	return authResultResponse{
		Username:     result.Username,
		Roles:        result.Roles,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
		ExpiresIn:    int64(result.ExpiresIn.Seconds()),
		User: userResponse{
			ID:        result.User.ID.String(),
			Nickname:  result.User.Nickname,
			Email:     result.User.Email,
			CreatedAt: result.User.CreatedAt,
			UpdatedAt: result.User.UpdatedAt,
		},
		Properties: result.Properties,
	}
}

const stateCookieName = "oauth_state"

// OAuthStart redirects the client to the provider's consent page.
func (h *Auth) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	state, err := newStateToken()
	if err != nil {
		handleError(w, err)
		return
	}

	url, err := h.oauth.AuthCodeURL(provider, state)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback completes the provider handshake and runs the login flow.
func (h *Auth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" {
		writeError(w, http.StatusBadRequest, "code missing")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != state {
		writeError(w, http.StatusUnauthorized, "state mismatch")
		return
	}

	ext, err := h.oauth.Exchange(r.Context(), provider, code)
	if err != nil {
		h.logger.Error("Auth handler: oauth exchange failed",
			"provider", provider,
			"error", err.Error())
		writeError(w, http.StatusUnauthorized, "exchange failed")
		return
	}

	result, err := h.authService.Login(r.Context(), ext)
	if err != nil {
		h.logger.Error("Auth handler: login failed",
			"provider", provider,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResultResponse(result))
}

// Refresh rotates the presented refresh token and returns a new bundle.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := readRefreshToken(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.writeRefreshError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResultResponse(result))
}

func (h *Auth) writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "Token has expired")
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrTokenUsed):
		// A reused token's family is already wiped; reporting it as
		// missing avoids confirming the token ever existed.
		writeError(w, http.StatusUnauthorized, "Refresh token not found")
	default:
		handleError(w, err)
	}
}

// Logout revokes the presented refresh token's family. Requires a valid
// access token; the refresh token must belong to its principal.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.contextManager.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	refreshToken, err := readRefreshToken(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	err = h.authService.Logout(r.Context(), principal.UserID, refreshToken)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, model.ErrTokenOwnership):
		writeError(w, http.StatusForbidden, "refresh token belongs to another user")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "Refresh token not found")
	default:
		handleError(w, err)
	}
}

// readRefreshToken accepts either {"refreshToken": "..."} or a bare
// token string as the request body.
func readRefreshToken(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", errors.New("empty body")
	}

	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", err
		}
		if payload.RefreshToken == "" {
			return "", errors.New("refreshToken missing")
		}
		return payload.RefreshToken, nil
	}

	return strings.Trim(trimmed, `"`), nil
}

func newStateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
