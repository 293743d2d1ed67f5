package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// Identity maps external OAuth identities to stable user records,
// creating the record on first sight.
type Identity struct {
	userStore model.UserStore
	logger    *logger.Logger
}

// NewIdentity creates a new Identity resolver.
func NewIdentity(userStore model.UserStore, logger *logger.Logger) *Identity {
	return &Identity{userStore: userStore, logger: logger}
}

// Resolve returns the user linked to the external identity, creating one
// seeded from the profile hints when none exists. Idempotent: the same
// (provider, providerUserID) pair always resolves to the same user id.
func (s *Identity) Resolve(ctx context.Context, ext model.ExternalIdentity) (model.User, error) {
	user, err := s.userStore.GetByIdentity(ctx, ext.Provider, ext.ProviderUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by identity: %w", err)
	}

	now := time.Now()
	user = model.User{
		ID:        uuid.New(),
		Nickname:  ext.Nickname,
		Email:     ext.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	identity := model.Identity{
		Provider:       ext.Provider,
		ProviderUserID: ext.ProviderUserID,
		UserID:         user.ID,
	}

	created, err := s.userStore.CreateWithIdentity(ctx, user, identity)
	if errors.Is(err, model.ErrConflict) {
		// Concurrent first login for the same identity; the unique
		// constraint guarantees exactly one winner.
		return s.userStore.GetByIdentity(ctx, ext.Provider, ext.ProviderUserID)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Identity service: user created on first login",
		"provider", ext.Provider,
		"user_id", created.ID)

	return created, nil
}
