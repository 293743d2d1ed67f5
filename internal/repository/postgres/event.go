package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventa-io/eventa-server/internal/model"
)

var _ model.EventStore = (*EventRepository)(nil)

type EventRepository struct {
	db *Connection
}

func NewEventRepository(db *Connection) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event model.Event) (model.Event, error) {
	const query = `
        INSERT INTO events (id, author_id, title, body, visibility, poster_key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id, author_id, title, body, visibility, poster_key, created_at, updated_at
    `

	var saved model.Event
	err := r.db.QueryRow(ctx, query,
		event.ID, event.AuthorID, event.Title, event.Body, event.Visibility, event.PosterKey,
	).Scan(
		&saved.ID, &saved.AuthorID, &saved.Title, &saved.Body,
		&saved.Visibility, &saved.PosterKey, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return saved, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	const query = `
        SELECT id, author_id, title, body, visibility, poster_key, created_at, updated_at
        FROM events WHERE id = $1
    `
	var event model.Event
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.AuthorID, &event.Title, &event.Body,
		&event.Visibility, &event.PosterKey, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, model.ErrNotFound
		}
		return model.Event{}, fmt.Errorf("failed to get event by id: %w", err)
	}
	return event, nil
}

// ListPublic excludes invisible and private events; visibility gating of
// single reads belongs to the access guard.
func (r *EventRepository) ListPublic(ctx context.Context) ([]model.Event, error) {
	const query = `
        SELECT id, author_id, title, body, visibility, poster_key, created_at, updated_at
        FROM events WHERE visibility = 'public'
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var event model.Event
		if err := rows.Scan(
			&event.ID, &event.AuthorID, &event.Title, &event.Body,
			&event.Visibility, &event.PosterKey, &event.CreatedAt, &event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, event model.Event) (model.Event, error) {
	const query = `
        UPDATE events SET title = $2, body = $3, visibility = $4, poster_key = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING id, author_id, title, body, visibility, poster_key, created_at, updated_at
    `

	var saved model.Event
	err := r.db.QueryRow(ctx, query,
		event.ID, event.Title, event.Body, event.Visibility, event.PosterKey,
	).Scan(
		&saved.ID, &saved.AuthorID, &saved.Title, &saved.Body,
		&saved.Visibility, &saved.PosterKey, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, model.ErrNotFound
		}
		return model.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return saved, nil
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM events WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
