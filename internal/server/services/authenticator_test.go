package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_Basic(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)

	u, err := f.authn.Authenticate(ctx, basic("alice", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Login)
	assert.Equal(t, auth.Digest("secret"), u.Password, "digest is kept until the dispatcher redacts it")

	u, err = f.authn.Authenticate(ctx, "bAsIc "+base64.StdEncoding.EncodeToString([]byte("alice:secret")))
	require.NoError(t, err, "scheme is case-insensitive")
	assert.Equal(t, "alice", u.Login)
}

func TestAuthenticate_BasicPasswordWithColon(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "bob", "a:b:c")
	require.NoError(t, err)

	_, err = f.authn.Authenticate(ctx, basic("bob", "a:b:c"))
	require.NoError(t, err)
}

func TestAuthenticate_BasicUnpadded(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "al", "pw")
	require.NoError(t, err)

	_, err = f.authn.Authenticate(ctx, "Basic "+base64.RawStdEncoding.EncodeToString([]byte("al:pw")))
	require.NoError(t, err)
}

func TestAuthenticate_Failures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, f.repo.Set(ctx, "broken", []byte("{not json")))

	tests := []struct {
		name          string
		authorization string
		want          error
	}{
		{"empty", "", common.ErrMissingAuthorization},
		{"blank", "   ", common.ErrMissingAuthorization},
		{"unknown scheme", "Digest abc", common.ErrUnsupportedScheme},
		{"scheme only", "Token", common.ErrUnsupportedScheme},
		{"bad base64", "Basic !!!", common.ErrMalformedBasicCredentials},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("alice")), common.ErrMalformedBasicCredentials},
		{"empty login", basic("", "secret"), common.ErrMalformedBasicCredentials},
		{"empty password", basic("alice", ""), common.ErrMalformedBasicCredentials},
		{"no credentials", "Basic", common.ErrMalformedBasicCredentials},
		{"wrong password", basic("alice", "wrong"), common.ErrInvalidPassword},
		{"unknown user", basic("ghost", "secret"), common.ErrInvalidPassword},
		{"unparsable record", basic("broken", "secret"), common.ErrInvalidPassword},
		{"garbage token", "Bearer abc.def.ghi", common.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := f.authn.Authenticate(ctx, tt.authorization)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, u)
		})
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	f := newFixture(t, &flakyRepo{Repository: users.NewMemoryRepository(), getErr: errBackend})

	_, err := f.authn.Authenticate(context.Background(), basic("alice", "secret"))
	assert.ErrorIs(t, err, common.ErrStoreFailure)
	assert.Contains(t, err.Error(), "backend down")
}

func TestAuthenticate_Bearer(t *testing.T) {
	f := newFixture(t, nil)

	token, err := f.tokens.Sign(map[string]any{
		"user": map[string]any{"login": "carol", "theme": "dark"},
	}, time.Minute)
	require.NoError(t, err)

	u, err := f.authn.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Login)
	assert.Equal(t, "dark", u.Attributes["theme"])
}

func TestAuthenticate_BearerTrustsSnapshot(t *testing.T) {
	// carol was never stored; a valid token is enough
	f := newFixture(t, nil)
	token, err := f.tokens.Sign(map[string]any{"user": map[string]any{"login": "carol"}}, time.Minute)
	require.NoError(t, err)

	_, err = f.authn.Authenticate(context.Background(), "bearer "+token)
	require.NoError(t, err)
}

func TestAuthenticate_BearerFailures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	noUser, err := f.tokens.Sign(map[string]any{"jwt": "x"}, time.Minute)
	require.NoError(t, err)

	badUser, err := f.tokens.Sign(map[string]any{"user": "carol"}, time.Minute)
	require.NoError(t, err)

	expired, err := f.tokens.Sign(map[string]any{"user": map[string]any{"login": "carol"}}, -time.Minute)
	require.NoError(t, err)

	foreign, err := auth.NewTokenService("other-secret").Sign(map[string]any{"user": map[string]any{"login": "carol"}}, time.Minute)
	require.NoError(t, err)

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": map[string]any{"login": "carol"},
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"no user claim", noUser, common.ErrNoUserInPayload},
		{"user is not an object", badUser, common.ErrNoUserInPayload},
		{"expired", expired, common.ErrTokenInvalid},
		{"other secret", foreign, common.ErrTokenInvalid},
		{"other algorithm", hs256, common.ErrAlgorithmMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.authn.Authenticate(ctx, "Bearer "+tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
