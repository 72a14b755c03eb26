package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrRequestFailed = errors.New("request failed")
)
