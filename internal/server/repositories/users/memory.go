package users

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// MemoryRepository keeps records in process memory. Values are copied on
// the way in and out.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.records[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (r *MemoryRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[key] = bytes.Clone(value)
	return nil
}

func (r *MemoryRepository) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[key]; ok {
		return false, nil
	}
	r.records[key] = bytes.Clone(value)
	return true, nil
}

func (r *MemoryRepository) Close() error { return nil }
