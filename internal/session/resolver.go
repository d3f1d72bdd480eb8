package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/backend"
	"github.com/spec-kit/filedrop-bot/internal/cache"
	"github.com/spec-kit/filedrop-bot/internal/domain"
)

// registrar is the slice of the backend client the resolver needs.
type registrar interface {
	CreateUser(ctx context.Context, req backend.CreateUserRequest) (*backend.CreateUserResponse, error)
}

// Resolver lazily registers callers with the backend and caches their auth
// token for the process lifetime. Registration is idempotent by identity, so
// there is no separate login path.
type Resolver struct {
	backend registrar
	tokens  cache.TokenStore
	logger  *zap.Logger
}

// NewResolver builds the resolver.
func NewResolver(b registrar, tokens cache.TokenStore, logger *zap.Logger) *Resolver {
	return &Resolver{backend: b, tokens: tokens, logger: logger}
}

// EnsureRegistered returns an auth token for the caller, registering the
// account on first contact. isNew is true only when this call created the
// account; a cache hit is always a returning caller. Errors are recoverable,
// the router downgrades them to a user-visible message.
func (r *Resolver) EnsureRegistered(ctx context.Context, caller domain.Caller) (token string, isNew bool, err error) {
	if cached, ok := r.tokens.Get(caller.ID); ok {
		return cached, false, nil
	}

	resp, err := r.backend.CreateUser(ctx, backend.CreateUserRequest{
		TelegramID: caller.ID,
		FirstName:  caller.FirstName,
		Username:   caller.Username,
	})
	if err != nil {
		return "", false, err
	}

	r.tokens.Put(caller.ID, resp.Token)
	if resp.IsNewUser {
		r.logger.Info("registered new user", zap.Int64("caller_id", caller.ID))
	}
	return resp.Token, resp.IsNewUser, nil
}

// Forget drops the cached token for a caller, forcing re-resolution on the
// next contact. Called after account deletion.
func (r *Resolver) Forget(callerID int64) {
	r.tokens.Evict(callerID)
}
