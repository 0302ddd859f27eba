package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore keeps recently used values in memory in front of another Store.
// Writes go to the backing store first, then to memory.
type LRUStore struct {
	next  Store
	cache *lru.Cache[string, []byte]
}

// NewLRUStore wraps next with an in-memory LRU of the given size.
func NewLRUStore(next Store, size int) (*LRUStore, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRUStore{next: next, cache: c}, nil
}

func (s *LRUStore) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, v)
	return v, nil
}

func (s *LRUStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.next.Put(ctx, key, value); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, value)
	return nil
}

// Len returns the number of values held in memory.
func (s *LRUStore) Len() int { return s.cache.Len() }
