package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore persists refresh-token rotation chains.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByToken(ctx context.Context, token string) (RefreshToken, error)
	// Consume marks the token as used. The transition must be atomic
	// (guarded on is_used=false); Consume reports false when the token
	// was already used, including by a concurrent rotation.
	Consume(ctx context.Context, token string) (bool, error)
	// DeleteFamily removes every token descending from one login.
	DeleteFamily(ctx context.Context, family uuid.UUID) error
	// Delete removes a single token row, used for expired-token cleanup.
	Delete(ctx context.Context, token string) error
}

// RefreshToken is one node of a rotation chain. Token is the opaque
// value handed to the client and the storage key; Family links every
// token descending from the same login for reuse detection.
type RefreshToken struct {
	Token     string
	Family    uuid.UUID
	UserID    uuid.UUID
	IsUsed    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
