package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	fieldLogin    = "login"
	fieldPassword = "password"
)

// UserService creates and updates user records.
type UserService struct {
	repo   users.Repository
	authn  *Authenticator
	logger logging.Logger
}

func NewUserService(repo users.Repository, authn *Authenticator, logger logging.Logger) *UserService {
	return &UserService{
		repo:   repo,
		authn:  authn,
		logger: logger.With("module", "user_service"),
	}
}

type createInput struct {
	Login    string
	Password string
}

func (in createInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Login, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// Create registers login with the digest of password. Of several concurrent
// creates for the same login exactly one succeeds; the others fail with
// common.ErrUserAlreadyExists.
func (s *UserService) Create(ctx context.Context, login, password string) (*models.User, error) {
	if err := (createInput{Login: login, Password: password}).Validate(); err != nil {
		return nil, common.ErrMissingFields
	}

	u := &models.User{Login: login, Password: auth.Digest(password)}
	if err := s.insert(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "login", login)
	return u, nil
}

func (s *UserService) insert(ctx context.Context, u *models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	ok, err := s.repo.SetIfAbsent(ctx, u.Login, b)
	if err != nil {
		s.logger.Error(ctx, "credential store write failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrStoreFailure, err)
	}
	if !ok {
		return common.ErrUserAlreadyExists
	}
	return nil
}

// Update authenticates the caller and merges patch into their record.
// "password" is stored as a digest, "login" is ignored and every other key
// overwrites or adds an attribute. The merged record is written in a single
// Set under the authenticated login.
func (s *UserService) Update(ctx context.Context, authorization string, patch map[string]any) (*models.User, error) {
	current, err := s.authn.Authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}

	base, err := s.mergeBase(ctx, current)
	if err != nil {
		return nil, err
	}

	// sorted for deterministic logs
	for _, k := range slices.Sorted(maps.Keys(patch)) {
		v := patch[k]
		switch k {
		case fieldLogin:
			continue
		case fieldPassword:
			p, ok := v.(string)
			if !ok || p == "" {
				return nil, common.ErrMissingFields
			}
			base.Password = auth.Digest(p)
		default:
			if base.Attributes == nil {
				base.Attributes = make(map[string]any, len(patch))
			}
			base.Attributes[k] = v
		}
	}

	b, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	if err := s.repo.Set(ctx, base.Login, b); err != nil {
		s.logger.Error(ctx, "credential store write failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStoreFailure, err)
	}

	s.logger.Info(ctx, "user updated", "login", base.Login, "fields", len(patch))
	return base, nil
}

// mergeBase prefers the stored record so that fields missing from a bearer
// snapshot (the digest in particular) survive the update.
func (s *UserService) mergeBase(ctx context.Context, current *models.User) (*models.User, error) {
	if current.Login == "" {
		return nil, common.ErrNoUserInPayload
	}

	raw, err := s.repo.Get(ctx, current.Login)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return clone(current), nil
	case err != nil:
		s.logger.Error(ctx, "credential store read failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStoreFailure, err)
	}

	stored, err := models.ParseUser(raw)
	if err != nil {
		s.logger.Warn(ctx, "stored record is not parsable, using authenticated snapshot", "login", current.Login)
		return clone(current), nil
	}
	stored.Login = current.Login
	return stored, nil
}

func clone(u *models.User) *models.User {
	return &models.User{Login: u.Login, Password: u.Password, Attributes: maps.Clone(u.Attributes)}
}
