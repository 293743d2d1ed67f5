package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventa-io/eventa-server/internal/api/http/httpctx"
	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/eventa-io/eventa-server/internal/testutil"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Login(ctx context.Context, ext model.ExternalIdentity) (model.AuthResult, error) {
	args := m.Called(ctx, ext)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (model.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, principalUserID uuid.UUID, refreshToken string) error {
	args := m.Called(ctx, principalUserID, refreshToken)
	return args.Error(0)
}

type mockOAuthExchanger struct {
	mock.Mock
}

func (m *mockOAuthExchanger) AuthCodeURL(provider, state string) (string, error) {
	args := m.Called(provider, state)
	return args.String(0), args.Error(1)
}

func (m *mockOAuthExchanger) Exchange(ctx context.Context, provider, code string) (model.ExternalIdentity, error) {
	args := m.Called(ctx, provider, code)
	return args.Get(0).(model.ExternalIdentity), args.Error(1)
}

func newAuthRouter(h *Auth) http.Handler {
	r := chi.NewRouter()
	r.Get("/auth/{provider}/login", h.OAuthStart)
	r.Get("/auth/{provider}/callback", h.OAuthCallback)
	r.Post("/auth/refresh", h.Refresh)
	r.Delete("/auth/logout", h.Logout)
	return r
}

func sampleAuthResult(userID uuid.UUID) model.AuthResult {
	return model.AuthResult{
		Username:     "gopher",
		Roles:        []string{},
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    model.TokenType,
		ExpiresIn:    time.Hour,
		User: model.User{
			ID:       userID,
			Nickname: "gopher",
			Email:    "gopher@example.com",
		},
		Properties: map[string]string{},
	}
}

func TestAuth_OAuthStart(t *testing.T) {
	oauth := new(mockOAuthExchanger)
	oauth.On("AuthCodeURL", "github", mock.AnythingOfType("string")).
		Return("https://github.com/login/oauth/authorize?state=x", nil)

	h := NewAuth(new(mockAuthService), oauth, httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/github/login", nil)
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://github.com/login/oauth/authorize?state=x", rec.Header().Get("Location"))

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie, "state cookie must be set")
	assert.NotEmpty(t, stateCookie.Value)
	assert.True(t, stateCookie.HttpOnly)
}

func TestAuth_OAuthStart_UnknownProvider(t *testing.T) {
	oauth := new(mockOAuthExchanger)
	oauth.On("AuthCodeURL", "myspace", mock.AnythingOfType("string")).
		Return("", model.ErrNotFound)

	h := NewAuth(new(mockAuthService), oauth, httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/myspace/login", nil)
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth_OAuthCallback(t *testing.T) {
	userID := uuid.New()
	ext := model.ExternalIdentity{
		Provider:       "github",
		ProviderUserID: "12345",
		Nickname:       "gopher",
		Email:          "gopher@example.com",
	}

	oauth := new(mockOAuthExchanger)
	oauth.On("Exchange", mock.Anything, "github", "the-code").Return(ext, nil)

	authService := new(mockAuthService)
	authService.On("Login", mock.Anything, ext).Return(sampleAuthResult(userID), nil)

	h := NewAuth(authService, oauth, httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=the-code&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResultResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "gopher", resp.Username)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, model.TokenType, resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, userID.String(), resp.User.ID)
	assert.NotNil(t, resp.Roles)
	assert.NotNil(t, resp.Properties)

	authService.AssertExpectations(t)
	oauth.AssertExpectations(t)
}

func TestAuth_OAuthCallback_StateMismatch(t *testing.T) {
	h := NewAuth(new(mockAuthService), new(mockOAuthExchanger), httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=the-code&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_OAuthCallback_MissingCode(t *testing.T) {
	h := NewAuth(new(mockAuthService), new(mockOAuthExchanger), httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Refresh(t *testing.T) {
	userID := uuid.New()
	authService := new(mockAuthService)
	authService.On("Refresh", mock.Anything, "old-token").Return(sampleAuthResult(userID), nil)

	h := NewAuth(authService, new(mockOAuthExchanger), httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh",
		strings.NewReader(`{"refreshToken":"old-token"}`))
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResultResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	authService.AssertExpectations(t)
}

func TestAuth_Refresh_BareStringBody(t *testing.T) {
	userID := uuid.New()
	authService := new(mockAuthService)
	authService.On("Refresh", mock.Anything, "old-token").Return(sampleAuthResult(userID), nil)

	h := NewAuth(authService, new(mockOAuthExchanger), httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`"old-token"`))
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	authService.AssertExpectations(t)
}

func TestAuth_Refresh_Errors(t *testing.T) {
	tests := []struct {
		name        string
		serviceErr  error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "unknown token",
			serviceErr:  model.ErrNotFound,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Refresh token not found",
		},
		{
			name:        "expired token",
			serviceErr:  model.ErrTokenExpired,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token has expired",
		},
		{
			name:        "reused token",
			serviceErr:  model.ErrTokenUsed,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Refresh token not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(mockAuthService)
			authService.On("Refresh", mock.Anything, "some-token").
				Return(model.AuthResult{}, tt.serviceErr)

			h := NewAuth(authService, new(mockOAuthExchanger), httpctx.NewManager(), testutil.MakeNoopLogger())

			req := httptest.NewRequest(http.MethodPost, "/auth/refresh",
				strings.NewReader(`{"refreshToken":"some-token"}`))
			rec := httptest.NewRecorder()
			newAuthRouter(h).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestAuth_Logout(t *testing.T) {
	userID := uuid.New()
	authService := new(mockAuthService)
	authService.On("Logout", mock.Anything, userID, "refresh-token").Return(nil)

	contextManager := httpctx.NewManager()
	h := NewAuth(authService, new(mockOAuthExchanger), contextManager, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodDelete, "/auth/logout",
		strings.NewReader(`{"refreshToken":"refresh-token"}`))
	req = req.WithContext(contextManager.SetPrincipal(req.Context(), model.Principal{UserID: userID}))
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	authService.AssertExpectations(t)
}

func TestAuth_Logout_NoPrincipal(t *testing.T) {
	h := NewAuth(new(mockAuthService), new(mockOAuthExchanger), httpctx.NewManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodDelete, "/auth/logout",
		strings.NewReader(`{"refreshToken":"refresh-token"}`))
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_Logout_ForeignToken(t *testing.T) {
	userID := uuid.New()
	authService := new(mockAuthService)
	authService.On("Logout", mock.Anything, userID, "stolen-token").
		Return(model.ErrTokenOwnership)

	contextManager := httpctx.NewManager()
	h := NewAuth(authService, new(mockOAuthExchanger), contextManager, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodDelete, "/auth/logout",
		strings.NewReader(`{"refreshToken":"stolen-token"}`))
	req = req.WithContext(contextManager.SetPrincipal(req.Context(), model.Principal{UserID: userID}))
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_Logout_RepeatedRevoke(t *testing.T) {
	userID := uuid.New()
	authService := new(mockAuthService)
	authService.On("Logout", mock.Anything, userID, "gone-token").
		Return(model.ErrNotFound)

	contextManager := httpctx.NewManager()
	h := NewAuth(authService, new(mockOAuthExchanger), contextManager, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodDelete, "/auth/logout",
		strings.NewReader(`{"refreshToken":"gone-token"}`))
	req = req.WithContext(contextManager.SetPrincipal(req.Context(), model.Principal{UserID: userID}))
	rec := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
