// Package cli implements the interactive gophauth client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
)

type tokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type App struct {
	config  *config.Config
	client  client.Client
	session tokenStore
	login   string
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return newApp(c, apiClient, session.NewStore(c.SessionDir), os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, cl client.Client, s tokenStore, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: cl, session: s, reader: bufio.NewReader(in), out: out}
}

// Run resumes a saved session, if any, and serves the REPL until the user
// leaves.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")
	a.resume(ctx)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) resume(ctx context.Context) {
	token, err := a.session.Load()
	if err != nil || token == "" {
		return
	}
	a.client.SetToken(token)

	u, err := a.client.WhoAmI(ctx)
	if err != nil {
		a.client.SetToken("")
		return
	}
	a.login = u.Login()
	a.saveToken()
}

func (a *App) isLoggedIn() bool {
	return a.client.Token() != ""
}

func (a *App) getStatus() string {
	if a.login == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.login)
}

func (a *App) saveToken() {
	if err := a.session.Save(a.client.Token()); err != nil {
		fmt.Fprintf(a.out, "warning: session not saved: %v\n", err)
	}
}
