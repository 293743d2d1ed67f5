package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// TokenService owns the refresh-token ledger: chains of rotating tokens
// grouped into families, one family per original login. A token is
// consumable at most once; presenting an already-consumed token means
// two parties hold descendants of the same session, so the whole family
// is wiped.
type TokenService struct {
	store      model.RefreshTokenStore
	refreshTTL time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// NewTokenService creates a ledger over the given store. refreshTTL
// bounds the lifetime of every token it creates.
func NewTokenService(store model.RefreshTokenStore, refreshTTL time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{
		store:      store,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

const opaqueTokenBytes = 32

func newOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create starts a new token family for the user. Called at login.
func (s *TokenService) Create(ctx context.Context, userID uuid.UUID) (model.RefreshToken, error) {
	return s.createInFamily(ctx, userID, uuid.New())
}

func (s *TokenService) createInFamily(ctx context.Context, userID uuid.UUID, family uuid.UUID) (model.RefreshToken, error) {
	tokenValue, err := newOpaqueToken()
	if err != nil {
		return model.RefreshToken{}, err
	}

	now := s.now()
	rt := model.RefreshToken{
		Token:     tokenValue,
		Family:    family,
		UserID:    userID,
		IsUsed:    false,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, rt); err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return rt, nil
}

// Rotate consumes the presented token and returns its successor in the
// same family.
//
// State machine per presented token:
//   - missing: ErrNotFound
//   - expired: stale row deleted, ErrTokenExpired, family left intact
//   - already consumed: the family is wiped and ErrTokenUsed returned
//   - active: marked used, successor created
//
// The consume step is an atomic check-and-set in the store, so two
// concurrent rotations of the same token cannot both succeed.
func (s *TokenService) Rotate(ctx context.Context, presented string) (model.RefreshToken, error) {
	rt, err := s.store.GetByToken(ctx, presented)
	if errors.Is(err, model.ErrNotFound) {
		return model.RefreshToken{}, model.ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if rt.Expired(s.now()) {
		// Stale row cleanup; the rest of the family stays valid.
		if err := s.store.Delete(ctx, presented); err != nil {
			s.logger.Error("Token service: failed to delete expired token",
				"family", rt.Family,
				"error", err.Error())
		}
		return model.RefreshToken{}, model.ErrTokenExpired
	}

	consumed, err := s.store.Consume(ctx, presented)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !consumed {
		s.logger.Info("Token service: refresh token reuse detected, wiping family",
			"family", rt.Family,
			"user_id", rt.UserID)

		if err := s.store.DeleteFamily(ctx, rt.Family); err != nil {
			return model.RefreshToken{}, fmt.Errorf("failed to wipe token family: %w", err)
		}
		return model.RefreshToken{}, model.ErrTokenUsed
	}

	successor, err := s.createInFamily(ctx, rt.UserID, rt.Family)
	if err != nil {
		return model.RefreshToken{}, err
	}

	s.logger.Debug("Token service: refresh token rotated",
		"family", rt.Family,
		"user_id", rt.UserID)

	return successor, nil
}

// Revoke invalidates the presented token's family on logout. Only the
// owner may revoke; a repeated revoke finds nothing and reports
// ErrNotFound.
func (s *TokenService) Revoke(ctx context.Context, presented string, requestingUserID uuid.UUID) error {
	rt, err := s.store.GetByToken(ctx, presented)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get refresh token: %w", err)
	}

	if rt.UserID != requestingUserID {
		s.logger.Info("Token service: revoke attempted by non-owner",
			"user_id", rt.UserID,
			"requesting_user_id", requestingUserID)
		return model.ErrTokenOwnership
	}

	if err := s.store.DeleteFamily(ctx, rt.Family); err != nil {
		return fmt.Errorf("failed to delete token family: %w", err)
	}

	s.logger.Debug("Token service: token family revoked",
		"family", rt.Family,
		"user_id", rt.UserID)

	return nil
}
