package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/eventa-io/eventa-server/internal/access"
	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
)

// Event manages event resources and their poster images, consulting the
// access guard for every read and write.
type Event struct {
	eventStore model.EventStore
	storage    model.Storage
	logger     *logger.Logger
}

// NewEvent creates a new Event service.
func NewEvent(eventStore model.EventStore, storage model.Storage, logger *logger.Logger) *Event {
	return &Event{
		eventStore: eventStore,
		storage:    storage,
		logger:     logger,
	}
}

// CreateEventParams carries attributes for a new event.
type CreateEventParams struct {
	Title      string
	Body       string
	Visibility model.Visibility
}

// UpdateEventParams carries mutable event attributes.
type UpdateEventParams struct {
	Title      string
	Body       string
	Visibility model.Visibility
}

// CreateEvent stores a new event authored by the principal.
func (s *Event) CreateEvent(ctx context.Context, principal model.Principal, params CreateEventParams) (model.Event, error) {
	visibility := params.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !visibility.Valid() {
		return model.Event{}, fmt.Errorf("unknown visibility %q", visibility)
	}

	event := model.Event{
		ID:         uuid.New(),
		AuthorID:   principal.UserID,
		Title:      params.Title,
		Body:       params.Body,
		Visibility: visibility,
	}

	created, err := s.eventStore.Create(ctx, event)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Debug("Event service: event created",
		"event_id", created.ID,
		"author_id", created.AuthorID)

	return created, nil
}

// GetEvent returns the event if the principal may read it. Private
// events read by anyone but their author report ErrNotFound.
func (s *Event) GetEvent(ctx context.Context, principal *model.Principal, eventID uuid.UUID) (model.Event, error) {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}

	if err := access.CanRead(principal, event.AuthorID, event.Visibility); err != nil {
		return model.Event{}, err
	}

	return event, nil
}

// ListEvents returns publicly listed events. Invisible events are
// excluded here by the listing query, not by the guard.
func (s *Event) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.eventStore.ListPublic(ctx)
}

// UpdateEvent mutates an event on behalf of its author.
func (s *Event) UpdateEvent(ctx context.Context, principal model.Principal, eventID uuid.UUID, params UpdateEventParams) (model.Event, error) {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}

	if err := access.CanWrite(&principal, event.AuthorID); err != nil {
		return model.Event{}, err
	}

	if params.Title != "" {
		event.Title = params.Title
	}
	if params.Body != "" {
		event.Body = params.Body
	}
	if params.Visibility != "" {
		if !params.Visibility.Valid() {
			return model.Event{}, fmt.Errorf("unknown visibility %q", params.Visibility)
		}
		event.Visibility = params.Visibility
	}

	updated, err := s.eventStore.Update(ctx, event)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to update event: %w", err)
	}

	return updated, nil
}

// DeleteEvent removes an event and its poster on behalf of its author.
func (s *Event) DeleteEvent(ctx context.Context, principal model.Principal, eventID uuid.UUID) error {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := access.CanWrite(&principal, event.AuthorID); err != nil {
		return err
	}

	if event.PosterKey != "" {
		if err := s.storage.Delete(ctx, event.PosterKey); err != nil {
			s.logger.Error("Event service: failed to delete poster",
				"event_id", event.ID,
				"error", err.Error())
		}
	}

	return s.eventStore.Delete(ctx, eventID)
}

// UploadPoster stores the poster image for an event authored by the
// principal and records its object key.
func (s *Event) UploadPoster(ctx context.Context, principal model.Principal, eventID uuid.UUID, reader io.Reader) (model.Event, error) {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}

	if err := access.CanWrite(&principal, event.AuthorID); err != nil {
		return model.Event{}, err
	}

	key := posterKey(event.ID)
	if err := s.storage.Upload(ctx, key, reader); err != nil {
		return model.Event{}, fmt.Errorf("failed to upload poster: %w", err)
	}

	event.PosterKey = key
	updated, err := s.eventStore.Update(ctx, event)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to update event: %w", err)
	}

	return updated, nil
}

// DownloadPoster streams an event's poster if the principal may read the
// event.
func (s *Event) DownloadPoster(ctx context.Context, principal *model.Principal, eventID uuid.UUID) (io.ReadCloser, error) {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := access.CanRead(principal, event.AuthorID, event.Visibility); err != nil {
		return nil, err
	}

	if event.PosterKey == "" {
		return nil, model.ErrNotFound
	}

	reader, err := s.storage.Download(ctx, event.PosterKey)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download poster: %w", err)
	}

	return reader, nil
}

func posterKey(eventID uuid.UUID) string {
	return fmt.Sprintf("posters/%s", eventID)
}
