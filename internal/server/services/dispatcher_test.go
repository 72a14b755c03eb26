package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_EndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created := f.dispatcher.Dispatch(ctx, models.Request{
		Operation: models.OperationCreate,
		Body:      map[string]any{"login": "alice", "password": "secret"},
	})
	require.Equal(t, models.StatusOK, created.Status, created.Envelope.Error)
	require.NotNil(t, created.Envelope.User)
	assert.Equal(t, "alice", created.Envelope.User.Login)
	assert.Empty(t, created.Envelope.User.Password)
	assert.NotEmpty(t, created.Envelope.JWT)

	b, err := json.Marshal(created.Envelope)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
	assert.NotContains(t, string(b), `"error"`)

	read := f.dispatcher.Dispatch(ctx, models.Request{
		Operation:     models.OperationRead,
		Authorization: basic("alice", "secret"),
	})
	require.Equal(t, models.StatusOK, read.Status)
	assert.Equal(t, "alice", read.Envelope.User.Login)
	assert.Empty(t, read.Envelope.User.Password)

	wrong := f.dispatcher.Dispatch(ctx, models.Request{
		Operation:     models.OperationRead,
		Authorization: basic("alice", "wrong"),
	})
	assert.Equal(t, models.StatusFailure, wrong.Status)
	assert.Equal(t, common.ErrInvalidPassword.Error(), wrong.Envelope.Error)
	assert.Empty(t, wrong.Envelope.JWT)
	assert.Nil(t, wrong.Envelope.User)
}

func TestDispatch_TokenCarriesEnvelope(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created := f.dispatcher.Dispatch(ctx, models.Request{
		Operation: models.OperationCreate,
		Body:      map[string]any{"login": "alice", "password": "secret"},
	})
	require.Equal(t, models.StatusOK, created.Status)

	claims, err := f.tokens.Verify(created.Envelope.JWT, []string{common.SigningAlgorithm})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"login": "alice"}, claims["user"])
	assert.Contains(t, claims, "exp")
	assert.Contains(t, claims, "iat")

	// the issued token authenticates the next request
	updated := f.dispatcher.Dispatch(ctx, models.Request{
		Operation:     models.OperationUpdate,
		Authorization: "Bearer " + created.Envelope.JWT,
		Body:          map[string]any{"color": "green", "password": "changed"},
	})
	require.Equal(t, models.StatusOK, updated.Status, updated.Envelope.Error)
	assert.Equal(t, "green", updated.Envelope.User.Attributes["color"])
	assert.Empty(t, updated.Envelope.User.Password)

	read := f.dispatcher.Dispatch(ctx, models.Request{
		Operation:     models.OperationRead,
		Authorization: basic("alice", "changed"),
	})
	assert.Equal(t, models.StatusOK, read.Status)
}

func TestDispatch_CreateFailures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	missing := f.dispatcher.Dispatch(ctx, models.Request{
		Operation: models.OperationCreate,
		Body:      map[string]any{"login": "alice"},
	})
	assert.Equal(t, models.StatusFailure, missing.Status)
	assert.Equal(t, "missing required information", missing.Envelope.Error)

	nonString := f.dispatcher.Dispatch(ctx, models.Request{
		Operation: models.OperationCreate,
		Body:      map[string]any{"login": 5, "password": "x"},
	})
	assert.Equal(t, "missing required information", nonString.Envelope.Error)

	nilBody := f.dispatcher.Dispatch(ctx, models.Request{Operation: models.OperationCreate})
	assert.Equal(t, models.StatusFailure, nilBody.Status)
}

func TestDispatch_ReadWithoutAuthorization(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.dispatcher.Dispatch(context.Background(), models.Request{Operation: models.OperationRead})
	assert.Equal(t, models.StatusFailure, resp.Status)
	assert.Equal(t, "no authorization header", resp.Envelope.Error)
	assert.Empty(t, resp.Envelope.JWT)
}

func TestDispatch_ConcurrentCreate(t *testing.T) {
	f := newFixture(t, nil)

	const workers = 8
	results := make([]models.Response, workers)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.dispatcher.Dispatch(context.Background(), models.Request{
				Operation: models.OperationCreate,
				Body:      map[string]any{"login": "frank", "password": "pw"},
			})
		}()
	}
	wg.Wait()

	wins := 0
	for _, r := range results {
		if r.Status == models.StatusOK {
			wins++
			continue
		}
		assert.Equal(t, "user already exists", r.Envelope.Error)
	}
	assert.Equal(t, 1, wins)
}
