package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheCounters(t *testing.T) {
	var c CacheCounters
	require.True(t, c.Snapshot().IsZero())
	require.Zero(t, c.Snapshot().HitRatio())

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				c.Miss()
				return
			}
			c.Hit()
		}(i)
	}
	wg.Wait()
	c.Failure()

	usage := c.Snapshot()
	require.Equal(t, CacheUsage{Hits: 20, Misses: 10, Failures: 1}, usage)
	require.InDelta(t, 0.6667, usage.HitRatio(), 0.0001)
}
