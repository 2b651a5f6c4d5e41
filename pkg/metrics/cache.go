package metrics

import "sync/atomic"

// CacheCounters tracks cache traffic. The zero value is ready to use.
type CacheCounters struct {
	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// CacheUsage is a point-in-time copy of CacheCounters.
type CacheUsage struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Failures int64 `json:"failures"`
}

func (c *CacheCounters) Hit()     { c.hits.Add(1) }
func (c *CacheCounters) Miss()    { c.misses.Add(1) }
func (c *CacheCounters) Failure() { c.failures.Add(1) }

// Snapshot returns the current counts.
func (c *CacheCounters) Snapshot() CacheUsage {
	return CacheUsage{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Failures: c.failures.Load(),
	}
}

// IsZero reports whether no traffic was recorded.
func (u CacheUsage) IsZero() bool {
	return u.Hits == 0 && u.Misses == 0 && u.Failures == 0
}

// HitRatio is hits over lookups, or 0 without lookups.
func (u CacheUsage) HitRatio() float64 {
	total := u.Hits + u.Misses
	if total == 0 {
		return 0
	}
	return float64(u.Hits) / float64(total)
}
