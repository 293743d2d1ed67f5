package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/eventa-io/eventa-server/internal/service"
)

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, principal model.Principal, params service.CreateEventParams) (model.Event, error)
	GetEvent(ctx context.Context, principal *model.Principal, eventID uuid.UUID) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	UpdateEvent(ctx context.Context, principal model.Principal, eventID uuid.UUID, params service.UpdateEventParams) (model.Event, error)
	DeleteEvent(ctx context.Context, principal model.Principal, eventID uuid.UUID) error
	UploadPoster(ctx context.Context, principal model.Principal, eventID uuid.UUID, reader io.Reader) (model.Event, error)
	DownloadPoster(ctx context.Context, principal *model.Principal, eventID uuid.UUID) (io.ReadCloser, error)
}

// Event handles HTTP endpoints for events.
type Event struct {
	eventService   EventService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewEvent creates a new Event handler.
func NewEvent(eventService EventService, contextManager model.ContextManager, logger *logger.Logger) *Event {
	return &Event{
		eventService:   eventService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type eventRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Visibility string `json:"visibility"`
}

type eventResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Visibility string    `json:"visibility"`
	HasPoster  bool      `json:"hasPoster"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newEventResponse(event model.Event) eventResponse {
	return eventResponse{
		ID:         event.ID.String(),
		AuthorID:   event.AuthorID.String(),
		Title:      event.Title,
		Body:       event.Body,
		Visibility: string(event.Visibility),
		HasPoster:  event.PosterKey != "",
		CreatedAt:  event.CreatedAt,
		UpdatedAt:  event.UpdatedAt,
	}
}

func (h *Event) eventID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	return id, err == nil
}

// optionalPrincipal returns the principal if one was authenticated, or
// nil for anonymous requests.
func (h *Event) optionalPrincipal(r *http.Request) *model.Principal {
	principal, ok := h.contextManager.GetPrincipal(r.Context())
	if !ok {
		return nil
	}
	return &principal
}

// Create stores a new event authored by the principal.
func (h *Event) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.contextManager.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Visibility != "" && !model.Visibility(req.Visibility).Valid() {
		writeError(w, http.StatusBadRequest, "unknown visibility")
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), principal, service.CreateEventParams{
		Title:      req.Title,
		Body:       req.Body,
		Visibility: model.Visibility(req.Visibility),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newEventResponse(event))
}

// Get returns one event, subject to the access guard.
func (h *Event) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), h.optionalPrincipal(r), eventID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

// List returns publicly listed events.
func (h *Event) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	responses := make([]eventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, newEventResponse(event))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Update mutates an event on behalf of its author.
func (h *Event) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.contextManager.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	eventID, idOK := h.eventID(r)
	if !idOK {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Visibility != "" && !model.Visibility(req.Visibility).Valid() {
		writeError(w, http.StatusBadRequest, "unknown visibility")
		return
	}

	event, err := h.eventService.UpdateEvent(r.Context(), principal, eventID, service.UpdateEventParams{
		Title:      req.Title,
		Body:       req.Body,
		Visibility: model.Visibility(req.Visibility),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

// Delete removes an event on behalf of its author.
func (h *Event) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.contextManager.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	eventID, idOK := h.eventID(r)
	if !idOK {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), principal, eventID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UploadPoster stores the poster image for an event.
func (h *Event) UploadPoster(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.contextManager.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	eventID, idOK := h.eventID(r)
	if !idOK {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	event, err := h.eventService.UploadPoster(r.Context(), principal, eventID, r.Body)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

// DownloadPoster streams an event's poster image.
func (h *Event) DownloadPoster(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	reader, err := h.eventService.DownloadPoster(r.Context(), h.optionalPrincipal(r), eventID)
	if err != nil {
		handleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Event handler: failed to stream poster",
			"event_id", eventID,
			"error", err.Error())
	}
}
