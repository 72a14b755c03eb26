// Package users holds the credential store: one opaque serialized user
// record per login, behind a small key-value Repository with several
// backends (memory, SQL, bbolt, MongoDB, S3, Redis).
package users

import "context"

// Repository is a key-value store keyed by login.
//
// Get returns common.ErrNotFound when no value is stored under key.
// SetIfAbsent stores value only if key is unused and reports whether it did;
// every backend implements it atomically.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	Close() error
}
