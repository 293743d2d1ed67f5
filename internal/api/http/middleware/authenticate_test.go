package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/eventa-io/eventa-server/internal/api/http/httpctx"
	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/eventa-io/eventa-server/internal/testutil"
)

type mockTokenParser struct {
	mock.Mock
}

func (m *mockTokenParser) ParseAccessToken(token string) (model.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(model.Principal), args.Error(1)
}

func TestAuthenticate_Require(t *testing.T) {
	userID := uuid.New()

	parser := new(mockTokenParser)
	parser.On("ParseAccessToken", "good-token").
		Return(model.Principal{UserID: userID, Nickname: "gopher"}, nil)

	cm := httpctx.NewManager()
	m := NewAuthenticate(parser, cm, testutil.MakeNoopLogger())

	var seen *model.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := cm.GetPrincipal(r.Context()); ok {
			seen = &p
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	m.Require(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, seen) {
		assert.Equal(t, userID, seen.UserID)
	}
}

func TestAuthenticate_Require_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic Zm9vOmJhcg=="},
		{name: "invalid token", header: "Bearer bad-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := new(mockTokenParser)
			parser.On("ParseAccessToken", "bad-token").
				Return(model.Principal{}, errors.New("signature invalid"))

			m := NewAuthenticate(parser, httpctx.NewManager(), testutil.MakeNoopLogger())

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Require(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestAuthenticate_Optional_AnonymousPassesThrough(t *testing.T) {
	cm := httpctx.NewManager()
	m := NewAuthenticate(new(mockTokenParser), cm, testutil.MakeNoopLogger())

	var hadPrincipal bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadPrincipal = cm.GetPrincipal(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	m.Optional(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, hadPrincipal)
}

func TestAuthenticate_Optional_InvalidTokenStaysAnonymous(t *testing.T) {
	parser := new(mockTokenParser)
	parser.On("ParseAccessToken", "bad-token").
		Return(model.Principal{}, errors.New("token is expired"))

	cm := httpctx.NewManager()
	m := NewAuthenticate(parser, cm, testutil.MakeNoopLogger())

	var hadPrincipal bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadPrincipal = cm.GetPrincipal(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	m.Optional(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, hadPrincipal)
}
