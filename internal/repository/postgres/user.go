package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eventa-io/eventa-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT id, nickname, email, created_at, updated_at
			  FROM users WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Nickname, &user.Email, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByIdentity(ctx context.Context, provider, providerUserID string) (model.User, error) {
	var user model.User
	query := `SELECT u.id, u.nickname, u.email, u.created_at, u.updated_at
			  FROM users u
			  JOIN identities i ON i.user_id = u.id
			  WHERE i.provider = $1 AND i.provider_user_id = $2`

	err := r.db.QueryRow(ctx, query, provider, providerUserID).Scan(
		&user.ID, &user.Nickname, &user.Email, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by identity: %w", err)
	}

	return user, nil
}

func (r *UserRepository) CreateWithIdentity(ctx context.Context, user model.User, identity model.Identity) (model.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userQuery := `INSERT INTO users (id, nickname, email, created_at, updated_at)
				  VALUES ($1, $2, $3, NOW(), NOW())
				  RETURNING id, nickname, email, created_at, updated_at`

	var savedUser model.User
	err = tx.QueryRow(ctx, userQuery, user.ID, user.Nickname, user.Email).Scan(
		&savedUser.ID, &savedUser.Nickname, &savedUser.Email,
		&savedUser.CreatedAt, &savedUser.UpdatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	identityQuery := `INSERT INTO identities (provider, provider_user_id, user_id)
					  VALUES ($1, $2, $3)`

	_, err = tx.Exec(ctx, identityQuery, identity.Provider, identity.ProviderUserID, identity.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to create identity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.User{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return savedUser, nil
}

// isUniqueViolation reports whether err is a postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
