package ratestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
)

type windowID struct {
	clientID string
	endpoint string
	start    int64
	length   time.Duration
}

type windowCount struct {
	start time.Time
	count int
}

// MemoryStore keeps rate windows in process memory. Counts are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[windowID]*windowCount
}

// NewMemoryStore constructs an empty window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[windowID]*windowCount)}
}

// IncrementIfBelow implements ratelimit.WindowStore.
func (s *MemoryStore) IncrementIfBelow(_ context.Context, key ratelimit.WindowKey, limit int) (bool, error) {
	id := windowID{
		clientID: key.ClientID,
		endpoint: key.Endpoint,
		start:    key.Start.Unix(),
		length:   key.Length,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		w = &windowCount{start: key.Start}
		s.windows[id] = w
	}
	if w.count >= limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// PruneBefore implements ratelimit.WindowStore.
func (s *MemoryStore) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, w := range s.windows {
		if w.start.Before(cutoff) {
			delete(s.windows, id)
			removed++
		}
	}
	return removed, nil
}

var _ ratelimit.WindowStore = (*MemoryStore)(nil)
