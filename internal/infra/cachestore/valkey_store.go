package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/fishcast/internal/domain/cache"
)

// ValkeyStore persists cache entries in a Valkey-compatible database. Entries
// carry a native TTL, so DeleteExpired has nothing to do.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	now    func() time.Time
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "fishcast"
	}
	return &ValkeyStore{client: client, prefix: prefix, now: time.Now}
}

type storedEntry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *ValkeyStore) Get(ctx context.Context, provider, key string) (cache.Entry, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(provider, key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return cache.Entry{}, false, nil
		}
		return cache.Entry{}, false, err
	}
	var stored storedEntry
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return cache.Entry{}, false, err
	}
	return cache.Entry{
		Provider:  provider,
		Key:       key,
		Payload:   stored.Payload,
		FetchedAt: stored.FetchedAt,
		ExpiresAt: stored.ExpiresAt,
	}, true, nil
}

func (s *ValkeyStore) Set(ctx context.Context, entry cache.Entry) error {
	payload, err := json.Marshal(storedEntry{
		Payload:   entry.Payload,
		FetchedAt: entry.FetchedAt,
		ExpiresAt: entry.ExpiresAt,
	})
	if err != nil {
		return err
	}
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := s.client.B().Set().Key(s.entryKey(entry.Provider, entry.Key)).Value(string(payload)).Ex(ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *ValkeyStore) entryKey(provider, key string) string {
	return fmt.Sprintf("%s:cache:%s:%s", s.prefix, provider, key)
}

var _ cache.Store = (*ValkeyStore)(nil)
