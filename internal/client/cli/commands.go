package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

var errUsage = errors.New("usage: set key=value [key=value ...]")

func (a *App) fail(err error) error {
	fmt.Fprintf(a.out, "error: %v\n", err)
	return err
}

func (a *App) readCredentials() (string, []byte, error) {
	login, err := GetSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return login, password, nil
}

func (a *App) Register(ctx context.Context) error {
	login, password, err := a.readCredentials()
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	u, err := a.client.Register(ctx, login, password)
	if err != nil {
		return a.fail(err)
	}

	a.login = u.Login()
	a.saveToken()
	fmt.Fprintf(a.out, "Registered %s\n", a.login)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, password, err := a.readCredentials()
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	u, err := a.client.Login(ctx, login, password)
	if err != nil {
		return a.fail(err)
	}

	a.login = u.Login()
	a.saveToken()
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.client.WhoAmI(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.saveToken()
	a.printUser(u)
	return nil
}

// Set sends key=value pairs as an update. Values that parse as JSON keep
// their type; anything else is sent as a string.
func (a *App) Set(ctx context.Context, args []string) error {
	patch, err := parseAssignments(args)
	if err != nil {
		return a.fail(err)
	}

	u, err := a.client.Update(ctx, patch)
	if err != nil {
		return a.fail(err)
	}
	a.saveToken()
	a.printUser(u)
	return nil
}

func (a *App) Passwd(ctx context.Context) error {
	password, err := GetPassword(a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	if _, err := a.client.Update(ctx, map[string]any{"password": string(password)}); err != nil {
		return a.fail(err)
	}
	a.saveToken()
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.client.SetToken("")
	a.login = ""
	if err := a.session.Clear(); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) printUser(u client.User) {
	for _, k := range slices.Sorted(maps.Keys(u)) {
		fmt.Fprintf(a.out, "  %s: %v\n", k, u[k])
	}
}

func parseAssignments(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	patch := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, errUsage
		}
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			parsed = v
		}
		patch[k] = parsed
	}
	return patch, nil
}
