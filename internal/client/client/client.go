// Package client talks to the gophauth server over gRPC.
//
// Every successful call returns a fresh token; GRPCClient keeps the latest
// one and presents it as a bearer credential on later calls.
package client

import (
	"context"
)

// User is the redacted record returned by the server.
type User map[string]any

// Login returns the user's login, or "" if absent.
func (u User) Login() string {
	s, _ := u["login"].(string)
	return s
}

type Client interface {
	Close() error
	Register(ctx context.Context, login string, password []byte) (User, error)
	Login(ctx context.Context, login string, password []byte) (User, error)
	WhoAmI(ctx context.Context) (User, error)
	Update(ctx context.Context, patch map[string]any) (User, error)
	Token() string
	SetToken(token string)
}
