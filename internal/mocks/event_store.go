package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/eventa-io/eventa-server/internal/model"
)

// EventStore is a mock implementation of model.EventStore.
type EventStore struct {
	mock.Mock
}

func (m *EventStore) Create(ctx context.Context, event model.Event) (model.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventStore) GetByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventStore) ListPublic(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *EventStore) Update(ctx context.Context, event model.Event) (model.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
