package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/yanqian/fishcast/pkg/metrics"
)

// CacheSweeper removes expired cache entries and reports cache traffic.
type CacheSweeper interface {
	ClearExpired(ctx context.Context)
	Usage() metrics.CacheUsage
}

// WindowPruner drops stale rate limit windows.
type WindowPruner interface {
	Prune(ctx context.Context)
}

// Maintenance periodically sweeps the cache and prunes rate windows.
type Maintenance struct {
	scheduler *gocron.Scheduler
	cache     CacheSweeper
	windows   WindowPruner
	interval  time.Duration
	logger    *slog.Logger
}

// New creates the maintenance scheduler. A non-positive interval disables it.
func New(cache CacheSweeper, windows WindowPruner, interval time.Duration, logger *slog.Logger) *Maintenance {
	return &Maintenance{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		windows:   windows,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the maintenance job and starts the underlying scheduler.
func (m *Maintenance) Start() error {
	if m.interval <= 0 {
		m.logger.Info("maintenance disabled")
		return nil
	}
	minutes := int(m.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}
	if _, err := m.scheduler.Every(minutes).Minutes().Do(m.run); err != nil {
		return err
	}
	m.scheduler.StartAsync()
	m.logger.Info("maintenance scheduled", "every_minutes", minutes)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (m *Maintenance) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

func (m *Maintenance) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	m.RunOnce(ctx)
}

// RunOnce performs one sweep and prune.
func (m *Maintenance) RunOnce(ctx context.Context) {
	start := time.Now()
	m.cache.ClearExpired(ctx)
	m.windows.Prune(ctx)
	usage := m.cache.Usage()
	m.logger.Info("maintenance completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"cache_hits", usage.Hits,
		"cache_misses", usage.Misses,
		"cache_failures", usage.Failures,
		"cache_hit_ratio", usage.HitRatio(),
	)
}
