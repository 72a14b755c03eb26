// Package server wires the gophauth server together: it opens the
// credential store, builds the services and runs the HTTP and gRPC
// transports until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/rest"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config     *config.Config
	logger     logging.Logger
	repo       users.Repository
	dispatcher *services.Dispatcher
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	repo, err := repomanager.Open(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	tokens := auth.NewTokenService(c.SecretKey)
	authn := services.NewAuthenticator(repo, tokens, logger)
	us := services.NewUserService(repo, authn, logger)
	d := services.NewDispatcher(us, authn, tokens, c.TokenValidityDuration, logger)

	return &App{config: c, logger: logger, repo: repo, dispatcher: d}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) servers() []runner {
	var rs []runner
	if app.config.EndpointAddrHTTP != "" {
		rs = append(rs, rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.dispatcher))
	}
	if app.config.EndpointAddrGRPC != "" {
		rs = append(rs, gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.dispatcher))
	}
	return rs
}

// Run serves until ctx is cancelled, a signal arrives or a transport fails.
// The first transport error is returned; the store is closed on exit.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	defer app.closeRepo()

	rs := app.servers()
	if len(rs) == 0 {
		return errors.New("no transport configured")
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, r := range rs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
				once.Do(func() { firstErr = err })
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}

func (app *App) closeRepo() {
	if err := app.repo.Close(); err != nil {
		app.logger.Error(context.Background(), "store close error", "error", err)
	}
}
