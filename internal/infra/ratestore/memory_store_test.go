package ratestore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
)

func TestMemoryStoreCountsPerWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2025, 1, 10, 0, 1, 0, 0, time.UTC)
	key := ratelimit.WindowKey{ClientID: "198.51.100.4", Endpoint: "forecast", Start: start, Length: time.Minute}

	for i := 0; i < 2; i++ {
		ok, err := store.IncrementIfBelow(ctx, key, 2)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := store.IncrementIfBelow(ctx, key, 2)
	require.NoError(t, err)
	require.False(t, ok)

	other := key
	other.Endpoint = "todays_best"
	ok, err = store.IncrementIfBelow(ctx, other, 2)
	require.NoError(t, err)
	require.True(t, ok)

	next := key
	next.Start = start.Add(time.Minute)
	ok, err = store.IncrementIfBelow(ctx, next, 2)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	key := ratelimit.WindowKey{ClientID: "c", Endpoint: "forecast", Start: time.Unix(600, 0).UTC(), Length: time.Minute}

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.IncrementIfBelow(context.Background(), key, 7); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(7), allowed.Load())
}

func TestMemoryStorePruneBefore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	old := ratelimit.WindowKey{ClientID: "c", Endpoint: "forecast", Start: time.Unix(0, 0).UTC(), Length: time.Hour}
	recent := old
	recent.Start = time.Unix(7200, 0).UTC()

	_, _ = store.IncrementIfBelow(ctx, old, 5)
	_, _ = store.IncrementIfBelow(ctx, recent, 5)

	removed, err := store.PruneBefore(ctx, time.Unix(3600, 0))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
