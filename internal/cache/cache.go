package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Entry is a timestamped snapshot of a collection.
type Entry[T any] struct {
	CapturedAt time.Time `json:"timestamp"`
	Payload    []T       `json:"payload"`
}

// ValidAt reports whether the entry is still fresh at now.
// The TTL boundary is exclusive: an entry exactly ttl old is stale.
func (e *Entry[T]) ValidAt(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.CapturedAt) < ttl
}

// Options configures a Cache.
type Options struct {
	TTL    time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// Cache reads and writes typed entries through a Store.
type Cache[T any] struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// New creates a cache over store. A zero TTL means every entry is stale.
func New[T any](store Store, opts Options) *Cache[T] {
	c := &Cache[T]{store: store, ttl: opts.TTL, log: opts.Logger, now: opts.Now}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// TTL returns the validity window of this cache.
func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// IsValid reports whether e is fresh under this cache's TTL.
func (c *Cache[T]) IsValid(e *Entry[T]) bool {
	return e.ValidAt(c.now(), c.ttl)
}

// Read returns the stored entry for key. Missing, unreadable and malformed
// values all report ok=false; none of them is an error for the caller.
func (c *Cache[T]) Read(ctx context.Context, key string) (*Entry[T], bool) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var e Entry[T]
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn("cache entry malformed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if e.CapturedAt.IsZero() {
		c.log.Warn("cache entry has no timestamp, treating as miss", zap.String("key", key))
		return nil, false
	}
	return &e, true
}

// Write replaces the entry for key with payload captured now.
func (c *Cache[T]) Write(ctx context.Context, key string, payload []T) error {
	b, err := json.MarshalIndent(Entry[T]{CapturedAt: c.now().UTC(), Payload: payload}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.store.Put(ctx, key, b); err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// Load returns the cached payload for key when it is valid and non-empty.
// Otherwise, or when forceRefresh is set, it calls fetch and stores the result.
// A failed write is logged and the fetched payload is still returned.
func (c *Cache[T]) Load(ctx context.Context, key string, forceRefresh bool, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if !forceRefresh {
		if e, ok := c.Read(ctx, key); ok && c.IsValid(e) && len(e.Payload) > 0 {
			c.log.Debug("cache hit",
				zap.String("key", key),
				zap.Int("items", len(e.Payload)),
				zap.Duration("age", c.now().Sub(e.CapturedAt)))
			return e.Payload, nil
		}
	}

	c.log.Info("cache refresh", zap.String("key", key), zap.Bool("forced", forceRefresh))
	payload, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if err := c.Write(ctx, key, payload); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return payload, nil
}

// Status describes the state of one cache key.
type Status struct {
	Key        string        `json:"key"`
	Present    bool          `json:"present"`
	Valid      bool          `json:"valid"`
	CapturedAt time.Time     `json:"captured_at,omitempty"`
	Age        time.Duration `json:"age_ns,omitempty"`
	TTL        time.Duration `json:"ttl_ns"`
	Items      int           `json:"items"`
}

// Status reports whether key is absent, valid or stale.
func (c *Cache[T]) Status(ctx context.Context, key string) Status {
	st := Status{Key: key, TTL: c.ttl}
	e, ok := c.Read(ctx, key)
	if !ok {
		return st
	}
	st.Present = true
	st.Valid = c.IsValid(e)
	st.CapturedAt = e.CapturedAt
	st.Age = c.now().Sub(e.CapturedAt)
	st.Items = len(e.Payload)
	return st
}
