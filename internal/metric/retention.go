package metric

import (
	"context"
	"log/slog"
	"time"
)

// RetentionWorker deletes observations past the retention horizon on a
// fixed interval.
type RetentionWorker struct {
	repo     *Repository
	logger   *slog.Logger
	horizon  time.Duration
	interval time.Duration
	done     chan struct{}
}

func NewRetentionWorker(repo *Repository, logger *slog.Logger, horizon, interval time.Duration) *RetentionWorker {
	if horizon == 0 {
		horizon = 2 * 365 * 24 * time.Hour
	}
	if interval == 0 {
		interval = 24 * time.Hour
	}

	return &RetentionWorker{
		repo:     repo,
		logger:   logger,
		horizon:  horizon,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the retention loop and blocks until the context is cancelled
// or Stop is called.
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retention worker started",
		"horizon", w.horizon,
		"interval", w.interval,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		case <-w.done:
			w.logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop gracefully shuts down the worker.
func (w *RetentionWorker) Stop() {
	close(w.done)
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	deleted, err := w.repo.DeleteOlderThan(ctx, w.horizon)
	if err != nil {
		w.logger.Error("failed to delete expired observations", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.Info("deleted expired observations", "count", deleted)
	}
}
