package middleware

import (
	"net/http"
	"strings"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// TokenParser verifies bearer tokens and extracts the principal.
type TokenParser interface {
	ParseAccessToken(token string) (model.Principal, error)
}

// Authenticate validates bearer tokens and injects the principal into the
// request context.
type Authenticate struct {
	parser         TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(parser TokenParser, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{parser: parser, contextManager: contextManager, logger: logger}
}

// Require rejects requests without a valid bearer token.
func (m *Authenticate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.principalFromHeader(r)
		if !ok {
			http.Error(w, "invalid or missing access token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetPrincipal(r.Context(), principal)))
	})
}

// Optional injects the principal when a valid bearer token is present but
// lets anonymous requests through. Used on read endpoints where the
// access guard decides per resource.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := m.principalFromHeader(r); ok {
			r = r.WithContext(m.contextManager.SetPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Authenticate) principalFromHeader(r *http.Request) (model.Principal, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return model.Principal{}, false
	}

	principal, err := m.parser.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		m.logger.Debug("Authenticate middleware: token rejected",
			"error", err.Error())
		return model.Principal{}, false
	}

	return principal, true
}
