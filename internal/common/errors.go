// Package common defines shared constants and sentinel errors used across
// the server and client layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Storage failures of any kind other than absence.
	ErrStoreFailure = errors.New("store failure")

	// Authentication errors.
	ErrMissingAuthorization      = errors.New("no authorization header")
	ErrUnsupportedScheme         = errors.New("bad authorization request")
	ErrMalformedBasicCredentials = errors.New("malformed basic credentials")
	ErrInvalidPassword           = errors.New("invalid password")

	// Token errors.
	ErrTokenInvalid      = errors.New("invalid token")
	ErrAlgorithmMismatch = errors.New("token algorithm not allowed")
	ErrNoUserInPayload   = errors.New("no user found in jwt payload")

	// Lifecycle errors.
	ErrMissingFields     = errors.New("missing required information")
	ErrUserAlreadyExists = errors.New("user already exists")
)
