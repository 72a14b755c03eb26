// Package services contains the server-side business logic: the
// dual-scheme Authenticator, the user lifecycle (create/update) and the
// Dispatcher that turns one inbound request into a response envelope.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const (
	schemeBasic  = "basic"
	schemeBearer = "bearer"

	claimUser = "user"
)

// Authenticator resolves an authorization value to a user record.
type Authenticator struct {
	repo   users.Repository
	tokens *auth.TokenService
	logger logging.Logger
}

func NewAuthenticator(repo users.Repository, tokens *auth.TokenService, logger logging.Logger) *Authenticator {
	return &Authenticator{
		repo:   repo,
		tokens: tokens,
		logger: logger.With("module", "authenticator"),
	}
}

// Authenticate accepts "Basic <base64(login:password)>" or "Bearer <token>";
// the scheme is matched case-insensitively.
//
// Basic credentials are checked against the stored digest and the stored
// record is returned with its digest still set. Bearer tokens are trusted as
// issued: the embedded user snapshot is returned without consulting the store.
func (a *Authenticator) Authenticate(ctx context.Context, authorization string) (*models.User, error) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return nil, common.ErrMissingAuthorization
	}

	scheme, credentials, _ := strings.Cut(authorization, " ")
	credentials = strings.TrimSpace(credentials)

	switch strings.ToLower(scheme) {
	case schemeBasic:
		return a.authenticateBasic(ctx, credentials)
	case schemeBearer:
		return a.authenticateBearer(credentials)
	default:
		return nil, common.ErrUnsupportedScheme
	}
}

func (a *Authenticator) authenticateBasic(ctx context.Context, credentials string) (*models.User, error) {
	login, password, err := decodeBasic(credentials)
	if err != nil {
		return nil, err
	}

	stored, err := a.lookup(ctx, login)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		// keep the miss path as expensive as a real comparison
		auth.CheckDigest("", password)
		return nil, common.ErrInvalidPassword
	}
	if !auth.CheckDigest(stored.Password, password) {
		return nil, common.ErrInvalidPassword
	}

	return stored, nil
}

// lookup returns nil without error when the login is unknown or its
// record cannot be parsed.
func (a *Authenticator) lookup(ctx context.Context, login string) (*models.User, error) {
	raw, err := a.repo.Get(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		a.logger.Error(ctx, "credential store read failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStoreFailure, err)
	}

	u, err := models.ParseUser(raw)
	if err != nil {
		a.logger.Warn(ctx, "stored record is not parsable", "login", login, "error", err)
		return nil, nil
	}
	if u.Login == "" {
		u.Login = login
	}
	return u, nil
}

func (a *Authenticator) authenticateBearer(token string) (*models.User, error) {
	claims, err := a.tokens.Verify(token, []string{common.SigningAlgorithm})
	if err != nil {
		return nil, err
	}

	raw, ok := claims[claimUser]
	if !ok || raw == nil {
		return nil, common.ErrNoUserInPayload
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, common.ErrNoUserInPayload
	}
	u, err := models.ParseUser(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoUserInPayload, err)
	}

	return u, nil
}

// decodeBasic splits base64(login:password) on the first colon, so the
// password itself may contain colons.
func decodeBasic(credentials string) (string, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(credentials)
		if err != nil {
			return "", "", common.ErrMalformedBasicCredentials
		}
	}

	login, password, ok := strings.Cut(string(decoded), ":")
	if !ok || login == "" || password == "" {
		return "", "", common.ErrMalformedBasicCredentials
	}
	return login, password, nil
}
