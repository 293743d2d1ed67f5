package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventa-io/eventa-server/internal/mocks"
	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/eventa-io/eventa-server/internal/testutil"
)

func githubIdentity() model.ExternalIdentity {
	return model.ExternalIdentity{
		Provider:       "github",
		ProviderUserID: "12345",
		Nickname:       "gopher",
		Email:          "gopher@example.com",
	}
}

func TestIdentity_Resolve_Existing(t *testing.T) {
	ctx := context.Background()
	ext := githubIdentity()
	existing := model.User{ID: uuid.New(), Nickname: "gopher"}

	userStore := &mocks.UserStore{}
	userStore.On("GetByIdentity", ctx, "github", "12345").Return(existing, nil).Once()

	svc := NewIdentity(userStore, testutil.MakeNoopLogger())

	user, err := svc.Resolve(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)

	userStore.AssertNotCalled(t, "CreateWithIdentity", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentity_Resolve_FirstSight(t *testing.T) {
	ctx := context.Background()
	ext := githubIdentity()

	userStore := &mocks.UserStore{}
	userStore.On("GetByIdentity", ctx, "github", "12345").
		Return(model.User{}, model.ErrNotFound).Once()
	userStore.On("CreateWithIdentity", ctx, mock.AnythingOfType("model.User"), mock.AnythingOfType("model.Identity")).
		Run(func(args mock.Arguments) {
			user := args.Get(1).(model.User)
			identity := args.Get(2).(model.Identity)
			assert.Equal(t, "gopher", user.Nickname)
			assert.Equal(t, "gopher@example.com", user.Email)
			assert.Equal(t, "github", identity.Provider)
			assert.Equal(t, "12345", identity.ProviderUserID)
			assert.Equal(t, user.ID, identity.UserID)
		}).
		Return(model.User{ID: uuid.New(), Nickname: "gopher"}, nil).Once()

	svc := NewIdentity(userStore, testutil.MakeNoopLogger())

	user, err := svc.Resolve(ctx, ext)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)

	userStore.AssertExpectations(t)
}

func TestIdentity_Resolve_ConcurrentFirstLogin(t *testing.T) {
	ctx := context.Background()
	ext := githubIdentity()
	winner := model.User{ID: uuid.New(), Nickname: "gopher"}

	userStore := &mocks.UserStore{}
	userStore.On("GetByIdentity", ctx, "github", "12345").
		Return(model.User{}, model.ErrNotFound).Once()
	userStore.On("CreateWithIdentity", ctx, mock.Anything, mock.Anything).
		Return(model.User{}, model.ErrConflict).Once()
	// Losing the race falls back to the winner's row.
	userStore.On("GetByIdentity", ctx, "github", "12345").
		Return(winner, nil).Once()

	svc := NewIdentity(userStore, testutil.MakeNoopLogger())

	user, err := svc.Resolve(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, user.ID)

	userStore.AssertExpectations(t)
}

func TestIdentity_Resolve_StorageError(t *testing.T) {
	ctx := context.Background()

	userStore := &mocks.UserStore{}
	userStore.On("GetByIdentity", ctx, "github", "12345").
		Return(model.User{}, assert.AnError).Once()

	svc := NewIdentity(userStore, testutil.MakeNoopLogger())

	_, err := svc.Resolve(ctx, githubIdentity())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
