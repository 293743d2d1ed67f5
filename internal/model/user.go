package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users and their linked
// external identities.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByIdentity(ctx context.Context, provider, providerUserID string) (User, error)
	// CreateWithIdentity creates the user and the identity link in one
	// transaction. Returns ErrConflict if the (provider, providerUserID)
	// pair is already linked.
	CreateWithIdentity(ctx context.Context, user User, identity Identity) (User, error)
}

// User represents a stored platform user.
type User struct {
	ID        uuid.UUID
	Nickname  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity links a user to one external OAuth provider account.
// At most one user exists per (Provider, ProviderUserID) pair.
type Identity struct {
	Provider       string
	ProviderUserID string
	UserID         uuid.UUID
}

// ExternalIdentity is the outcome of a completed OAuth handshake: a
// provider-scoped stable id plus profile hints used to seed new users.
type ExternalIdentity struct {
	Provider       string
	ProviderUserID string
	Nickname       string
	Email          string
}
