package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventStore defines persistence operations for events.
type EventStore interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (Event, error)
	// ListPublic returns events visible in public listings. Invisible and
	// private events are excluded here, not by the access guard.
	ListPublic(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, event Event) (Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Visibility is a resource's read-access tier.
type Visibility string

const (
	// VisibilityPublic events are readable by anyone and listed publicly.
	VisibilityPublic Visibility = "public"
	// VisibilityInvisible events are readable by anyone holding the link
	// but excluded from public listings.
	VisibilityInvisible Visibility = "invisible"
	// VisibilityPrivate events are readable by their author only.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility tier.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityInvisible, VisibilityPrivate:
		return true
	}
	return false
}

// Event represents a stored event entity.
type Event struct {
	ID         uuid.UUID
	AuthorID   uuid.UUID
	Title      string
	Body       string
	Visibility Visibility
	PosterKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
