// Package kv is the persistence substrate of the storefront: a namespaced
// key-value store holding opaque JSON documents plus atomic counters.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is implemented by every backend. Values are opaque bytes (the
// services store JSON documents). GetByPrefix makes no ordering promise.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
	// Incr atomically increments the integer stored at key (missing = 0)
	// and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}
