package cachestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/fishcast/internal/domain/cache"
)

type entryKey struct {
	provider string
	key      string
}

// MemoryStore is an in-memory implementation of the cache store for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[entryKey]cache.Entry
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryKey]cache.Entry)}
}

// Get implements cache.Store. Expiry is left to the caller.
func (s *MemoryStore) Get(_ context.Context, provider, key string) (cache.Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[entryKey{provider: provider, key: key}]
	s.mu.RUnlock()
	if !ok {
		return cache.Entry{}, false, nil
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, true, nil
}

// Set implements cache.Store.
func (s *MemoryStore) Set(_ context.Context, entry cache.Entry) error {
	entry.Payload = append([]byte(nil), entry.Payload...)
	s.mu.Lock()
	s.entries[entryKey{provider: entry.Provider, key: entry.Key}] = entry
	s.mu.Unlock()
	return nil
}

// DeleteExpired implements cache.Store.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for k, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

var _ cache.Store = (*MemoryStore)(nil)
