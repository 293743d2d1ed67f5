package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/eventa-io/eventa-server/internal/model"
)

// TokenManager is a mock implementation of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func (m *TokenManager) GenerateAccessToken(user model.User) (string, time.Duration, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *TokenManager) ParseAccessToken(token string) (model.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(model.Principal), args.Error(1)
}
