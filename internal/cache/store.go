// Package cache keeps timestamped snapshots of scraped collections so that
// expensive page walks are only repeated once a snapshot goes stale.
package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by a Store when no value exists for a key.
var ErrMiss = errors.New("cache miss")

// Store is a byte-level key/value backend for cache entries.
type Store interface {
	// Get returns the raw value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value for key. Readers never observe a partial value.
	Put(ctx context.Context, key string, value []byte) error
}
