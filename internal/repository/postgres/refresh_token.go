package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventa-io/eventa-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token, family, user_id, is_used, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `

	_, err := r.db.Exec(ctx, query,
		token.Token, token.Family, token.UserID, token.IsUsed, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	const query = `
        SELECT token, family, user_id, is_used, expires_at, created_at
        FROM refresh_tokens WHERE token = $1
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.Token, &rt.Family, &rt.UserID, &rt.IsUsed, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return rt, nil
}

// Consume flips is_used in a single conditional update. The WHERE guard
// on is_used makes concurrent rotations of the same token race safely:
// exactly one caller observes the transition.
func (r *RefreshTokenRepository) Consume(ctx context.Context, token string) (bool, error) {
	const query = `
        UPDATE refresh_tokens SET is_used = TRUE
        WHERE token = $1 AND is_used = FALSE
    `
	tag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RefreshTokenRepository) DeleteFamily(ctx context.Context, family uuid.UUID) error {
	const query = `DELETE FROM refresh_tokens WHERE family = $1`
	if _, err := r.db.Exec(ctx, query, family); err != nil {
		return fmt.Errorf("failed to delete token family: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM refresh_tokens WHERE token = $1`
	if _, err := r.db.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
