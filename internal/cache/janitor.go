package cache

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically deletes expired cache entries that lazy eviction
// never reached.
type Janitor struct {
	cache    *PGCache
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

func NewJanitor(cache *PGCache, logger *slog.Logger, interval time.Duration) *Janitor {
	if interval == 0 {
		interval = 10 * time.Minute
	}

	return &Janitor{
		cache:    cache,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop and blocks until the context is cancelled or
// Stop is called.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("cache janitor started", "interval", j.interval)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("cache janitor stopped")
			return
		case <-j.done:
			j.logger.Info("cache janitor stopped")
			return
		case <-ticker.C:
			deleted, err := j.cache.CleanupExpired(ctx)
			if err != nil {
				j.logger.Warn("cache cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				j.logger.Debug("removed expired cache entries", "count", deleted)
			}
		}
	}
}

// Stop gracefully shuts down the janitor.
func (j *Janitor) Stop() {
	close(j.done)
}
