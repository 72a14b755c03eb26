package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedUser(t *testing.T, f *fixture, login string) *models.User {
	t.Helper()
	raw, err := f.repo.Get(context.Background(), login)
	require.NoError(t, err)
	u, err := models.ParseUser(raw)
	require.NoError(t, err)
	return u
}

func TestCreate_StoresDigest(t *testing.T) {
	f := newFixture(t, nil)

	u, err := f.users.Create(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Login)
	assert.Equal(t, auth.Digest("secret"), u.Password)

	stored := storedUser(t, f, "alice")
	assert.Equal(t, auth.Digest("secret"), stored.Password)
	assert.NotEqual(t, "secret", stored.Password)
}

func TestCreate_MissingFields(t *testing.T) {
	f := newFixture(t, nil)
	for _, tc := range [][2]string{{"", "secret"}, {"alice", ""}, {"", ""}} {
		_, err := f.users.Create(context.Background(), tc[0], tc[1])
		assert.ErrorIs(t, err, common.ErrMissingFields, "login=%q password=%q", tc[0], tc[1])
	}
}

func TestCreate_Twice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)
	_, err = f.users.Create(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrUserAlreadyExists)

	_, err = f.authn.Authenticate(ctx, basic("alice", "secret"))
	assert.NoError(t, err, "first password still valid")
}

func TestCreate_ConcurrentExactlyOneWins(t *testing.T) {
	f := newFixture(t, nil)

	const workers = 20
	var (
		wg      sync.WaitGroup
		ok      atomic.Int32
		already atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.users.Create(context.Background(), "dave", "pw")
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, common.ErrUserAlreadyExists):
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(workers-1), already.Load())
}

func TestCreate_StoreFailure(t *testing.T) {
	f := newFixture(t, &flakyRepo{Repository: users.NewMemoryRepository(), setErr: errBackend})

	_, err := f.users.Create(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, common.ErrStoreFailure)
}

func TestUpdate_ChangesPassword(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = f.users.Update(ctx, basic("alice", "secret"), map[string]any{"password": "newpass"})
	require.NoError(t, err)

	_, err = f.authn.Authenticate(ctx, basic("alice", "secret"))
	assert.ErrorIs(t, err, common.ErrInvalidPassword)
	_, err = f.authn.Authenticate(ctx, basic("alice", "newpass"))
	assert.NoError(t, err)
}

func TestUpdate_LoginIsImmutable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	u, err := f.users.Update(ctx, basic("alice", "secret"), map[string]any{"login": "mallory", "age": json.Number("30")})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Login)

	stored := storedUser(t, f, "alice")
	assert.Equal(t, "alice", stored.Login)
	assert.Equal(t, json.Number("30"), stored.Attributes["age"])

	_, err = f.repo.Get(ctx, "mallory")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdate_MergesAttributes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = f.users.Update(ctx, basic("alice", "secret"), map[string]any{"theme": "dark", "lang": "en"})
	require.NoError(t, err)
	u, err := f.users.Update(ctx, basic("alice", "secret"), map[string]any{"theme": "light", "beta": true})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"theme": "light", "lang": "en", "beta": true}, u.Attributes)
	assert.Equal(t, auth.Digest("secret"), u.Password, "password untouched")
}

func TestUpdate_BearerKeepsStoredDigest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	token, err := f.tokens.Sign(map[string]any{"user": map[string]any{"login": "alice"}}, time.Minute)
	require.NoError(t, err)

	_, err = f.users.Update(ctx, "Bearer "+token, map[string]any{"nick": "al"})
	require.NoError(t, err)

	stored := storedUser(t, f, "alice")
	assert.Equal(t, auth.Digest("secret"), stored.Password)
	assert.Equal(t, "al", stored.Attributes["nick"])
}

func TestUpdate_BearerForUnknownLoginUsesSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	token, err := f.tokens.Sign(map[string]any{"user": map[string]any{"login": "erin", "team": "blue"}}, time.Minute)
	require.NoError(t, err)

	u, err := f.users.Update(ctx, "Bearer "+token, map[string]any{"password": "pw"})
	require.NoError(t, err)
	assert.Equal(t, "blue", u.Attributes["team"])

	_, err = f.authn.Authenticate(ctx, basic("erin", "pw"))
	assert.NoError(t, err)
}

func TestUpdate_Failures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = f.users.Update(ctx, "", map[string]any{"x": 1})
	assert.ErrorIs(t, err, common.ErrMissingAuthorization)

	_, err = f.users.Update(ctx, basic("alice", "wrong"), map[string]any{"x": 1})
	assert.ErrorIs(t, err, common.ErrInvalidPassword)

	_, err = f.users.Update(ctx, basic("alice", "secret"), map[string]any{"password": 42})
	assert.ErrorIs(t, err, common.ErrMissingFields)

	_, err = f.users.Update(ctx, basic("alice", "secret"), map[string]any{"password": "", "x": 1})
	assert.ErrorIs(t, err, common.ErrMissingFields)

	stored := storedUser(t, f, "alice")
	assert.Nil(t, stored.Attributes, "rejected patches are not persisted")
}

func TestUpdate_StoreFailure(t *testing.T) {
	repo := &flakyRepo{Repository: users.NewMemoryRepository()}
	f := newFixture(t, repo)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	repo.setErr = errBackend
	_, err = f.users.Update(ctx, basic("alice", "secret"), map[string]any{"x": 1})
	assert.ErrorIs(t, err, common.ErrStoreFailure)
}
