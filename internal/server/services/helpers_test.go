package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const testSecret = "test-secret"

var errBackend = errors.New("backend down")

type fixture struct {
	repo       users.Repository
	tokens     *auth.TokenService
	authn      *Authenticator
	users      *UserService
	dispatcher *Dispatcher
}

func newFixture(t *testing.T, repo users.Repository) *fixture {
	t.Helper()
	if repo == nil {
		repo = users.NewMemoryRepository()
	}
	tokens := auth.NewTokenService(testSecret)
	authn := NewAuthenticator(repo, tokens, logging.Nop())
	us := NewUserService(repo, authn, logging.Nop())
	return &fixture{
		repo:       repo,
		tokens:     tokens,
		authn:      authn,
		users:      us,
		dispatcher: NewDispatcher(us, authn, tokens, 2*time.Hour, logging.Nop()),
	}
}

func basic(login, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+password))
}

// flakyRepo wraps a repository and fails selected calls.
type flakyRepo struct {
	users.Repository
	getErr error
	setErr error
}

func (r *flakyRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.Repository.Get(ctx, key)
}

func (r *flakyRepo) Set(ctx context.Context, key string, value []byte) error {
	if r.setErr != nil {
		return r.setErr
	}
	return r.Repository.Set(ctx, key, value)
}

func (r *flakyRepo) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	if r.setErr != nil {
		return false, r.setErr
	}
	return r.Repository.SetIfAbsent(ctx, key, value)
}
