package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Dispatcher runs one request through the matching lifecycle branch and
// builds the response envelope.
type Dispatcher struct {
	users    *UserService
	authn    *Authenticator
	tokens   *auth.TokenService
	validity time.Duration
	logger   logging.Logger
}

func NewDispatcher(us *UserService, authn *Authenticator, tokens *auth.TokenService, validity time.Duration, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		users:    us,
		authn:    authn,
		tokens:   tokens,
		validity: validity,
		logger:   logger.With("module", "dispatcher"),
	}
}

// Dispatch never returns an error: every failure is reported in the
// envelope's error field with StatusFailure. The password digest is stripped
// from the envelope on every path, and a token is signed over the envelope
// only when the branch succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.Request) models.Response {
	user, err := d.run(ctx, req)

	env := models.Envelope{User: user.Redacted()}
	if err != nil {
		d.logger.Info(ctx, "request failed", "operation", req.Operation.String(), "error", err)
		env.Error = err.Error()
		return models.Response{Envelope: env, Status: models.StatusFailure}
	}

	token, err := d.tokens.Sign(env, d.validity)
	if err != nil {
		d.logger.Error(ctx, "token signing failed", "error", err)
		env.Error = err.Error()
		return models.Response{Envelope: env, Status: models.StatusFailure}
	}
	env.JWT = token

	d.logger.Debug(ctx, "request served", "operation", req.Operation.String(), "login", env.User.Login)
	return models.Response{Envelope: env, Status: models.StatusOK}
}

func (d *Dispatcher) run(ctx context.Context, req models.Request) (*models.User, error) {
	switch req.Operation {
	case models.OperationCreate:
		login, _ := req.Body[fieldLogin].(string)
		password, _ := req.Body[fieldPassword].(string)
		return d.users.Create(ctx, login, password)
	case models.OperationUpdate:
		return d.users.Update(ctx, req.Authorization, req.Body)
	default:
		return d.authn.Authenticate(ctx, req.Authorization)
	}
}
