package users

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"go.etcd.io/bbolt"
)

const credentialsBucket = "credentials"

// BoltRepository keeps records in a single bbolt bucket.
type BoltRepository struct {
	db *bbolt.DB
}

// OpenBoltRepository opens (or creates) the bbolt file at path.
func OpenBoltRepository(path string) (*BoltRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bolt path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create credentials bucket: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(credentialsBucket)).Get([]byte(key))
		if v == nil {
			return common.ErrNotFound
		}
		// v is only valid inside the transaction
		value = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *BoltRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(credentialsBucket)).Put([]byte(key), value)
	})
}

func (r *BoltRepository) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	stored := false
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(credentialsBucket))
		if b.Get([]byte(key)) != nil {
			return nil
		}
		stored = true
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return false, err
	}
	return stored, nil
}

func (r *BoltRepository) Close() error {
	return r.db.Close()
}
