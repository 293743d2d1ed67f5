package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager mints and verifies access tokens. Issuance is stateless:
// two calls for the same user produce different but equally valid tokens.
type TokenManager interface {
	GenerateAccessToken(user User) (token string, expiresIn time.Duration, err error)
	ParseAccessToken(token string) (Principal, error)
}

// Principal is the authenticated identity derived from a verified access
// token for the duration of one request. Never persisted.
type Principal struct {
	UserID   uuid.UUID
	Nickname string
	Roles    []string
}
