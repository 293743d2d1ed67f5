package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// Auth orchestrates login, refresh and logout by composing the identity
// resolver, the access-token manager and the refresh-token ledger.
type Auth struct {
	identity     *Identity
	tokenService *TokenService
	userStore    model.UserStore
	tokenManager model.TokenManager
	logger       *logger.Logger
}

// NewAuth creates a new Auth gateway.
func NewAuth(
	userStore model.UserStore,
	tokenManager model.TokenManager,
	tokenService *TokenService,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		identity:     NewIdentity(userStore, logger),
		tokenService: tokenService,
		userStore:    userStore,
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// Login resolves the external identity and issues a fresh token bundle.
// Refresh-token issuance is mandatory on every login path: each login
// starts a new token family.
func (a *Auth) Login(ctx context.Context, ext model.ExternalIdentity) (model.AuthResult, error) {
	a.logger.Debug("Auth service: processing login",
		"provider", ext.Provider)

	user, err := a.identity.Resolve(ctx, ext)
	if err != nil {
		a.logger.Error("Auth service: failed to resolve identity",
			"provider", ext.Provider,
			"error", err.Error())
		return model.AuthResult{}, fmt.Errorf("failed to resolve identity: %w", err)
	}

	result, err := a.bundle(ctx, user)
	if err != nil {
		return model.AuthResult{}, err
	}

	a.logger.Info("Auth service: login completed",
		"provider", ext.Provider,
		"user_id", user.ID)

	return result, nil
}

// Refresh rotates the presented refresh token and re-issues both tokens.
// Ledger failures surface untranslated; the transport layer maps them to
// Unauthorized without a token bundle.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.AuthResult, error) {
	rotated, err := a.tokenService.Rotate(ctx, refreshToken)
	if err != nil {
		return model.AuthResult{}, err
	}

	user, err := a.userStore.GetByID(ctx, rotated.UserID)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	accessToken, expiresIn, err := a.tokenManager.GenerateAccessToken(user)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	a.logger.Debug("Auth service: tokens refreshed",
		"user_id", user.ID)

	return newAuthResult(user, accessToken, rotated.Token, expiresIn), nil
}

// Logout revokes the presented refresh token's family on behalf of the
// authenticated principal.
func (a *Auth) Logout(ctx context.Context, principalUserID uuid.UUID, refreshToken string) error {
	return a.tokenService.Revoke(ctx, refreshToken, principalUserID)
}

func (a *Auth) bundle(ctx context.Context, user model.User) (model.AuthResult, error) {
	refreshToken, err := a.tokenService.Create(ctx, user.ID)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	accessToken, expiresIn, err := a.tokenManager.GenerateAccessToken(user)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	return newAuthResult(user, accessToken, refreshToken.Token, expiresIn), nil
}

func newAuthResult(user model.User, accessToken, refreshToken string, expiresIn time.Duration) model.AuthResult {
	return model.AuthResult{
		Username:     user.Nickname,
		Roles:        []string{},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    model.TokenType,
		ExpiresIn:    expiresIn,
		User:         user,
		Properties:   map[string]string{},
	}
}
