package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/backend"
	"github.com/spec-kit/filedrop-bot/internal/cache"
	"github.com/spec-kit/filedrop-bot/internal/domain"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

type fakeRegistrar struct {
	calls int
	err   error
}

func (f *fakeRegistrar) CreateUser(_ context.Context, req backend.CreateUserRequest) (*backend.CreateUserResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &backend.CreateUserResponse{
		User:      backend.User{ID: "u-1", TelegramID: req.TelegramID},
		Token:     "tok-1",
		IsNewUser: f.calls == 1,
	}, nil
}

func TestEnsureRegisteredFirstAndSecondCall(t *testing.T) {
	reg := &fakeRegistrar{}
	r := NewResolver(reg, cache.NewMemoryTokenStore(), zap.NewNop())
	caller := domain.Caller{ID: 7, FirstName: "Ada"}

	token, isNew, err := r.EnsureRegistered(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.True(t, isNew)
	assert.Equal(t, 1, reg.calls)

	token, isNew, err = r.EnsureRegistered(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.False(t, isNew, "cached caller is a returning caller")
	assert.Equal(t, 1, reg.calls, "cache hit must not call the backend")
}

func TestEnsureRegisteredAfterForget(t *testing.T) {
	reg := &fakeRegistrar{}
	r := NewResolver(reg, cache.NewMemoryTokenStore(), zap.NewNop())
	caller := domain.Caller{ID: 7}

	_, _, err := r.EnsureRegistered(context.Background(), caller)
	require.NoError(t, err)

	r.Forget(caller.ID)

	_, isNew, err := r.EnsureRegistered(context.Background(), caller)
	require.NoError(t, err)
	assert.False(t, isNew, "idempotent re-registration returns the existing account")
	assert.Equal(t, 2, reg.calls)
}

func TestEnsureRegisteredBackendFailure(t *testing.T) {
	reg := &fakeRegistrar{err: util.NewBackendError(503, "backend down")}
	r := NewResolver(reg, cache.NewMemoryTokenStore(), zap.NewNop())

	_, _, err := r.EnsureRegistered(context.Background(), domain.Caller{ID: 7})
	require.Error(t, err)
	assert.True(t, util.IsClass(err, util.ClassBackend))

	// Nothing cached on failure, the next call retries.
	reg.err = nil
	_, _, err = r.EnsureRegistered(context.Background(), domain.Caller{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.calls)
}
