package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/eventa-io/eventa-server/internal/model"
)

// UserStore is a mock implementation of model.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByIdentity(ctx context.Context, provider, providerUserID string) (model.User, error) {
	args := m.Called(ctx, provider, providerUserID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) CreateWithIdentity(ctx context.Context, user model.User, identity model.Identity) (model.User, error) {
	args := m.Called(ctx, user, identity)
	return args.Get(0).(model.User), args.Error(1)
}
