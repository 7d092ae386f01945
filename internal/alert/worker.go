package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RuleStore is the persistence surface the worker needs.
type RuleStore interface {
	ListEnabled(ctx context.Context) ([]*Rule, error)
	MarkTriggered(ctx context.Context, event *Event) error
}

// Worker evaluates enabled rules on a fixed interval.
type Worker struct {
	store    RuleStore
	engine   *Engine
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

func NewWorker(store RuleStore, engine *Engine, notifier Notifier, logger *slog.Logger, interval time.Duration) *Worker {
	if interval == 0 {
		interval = 30 * time.Second
	}

	return &Worker{
		store:    store,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the evaluation loop and blocks until the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("alert worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("alert worker stopped")
			return
		case <-w.done:
			w.logger.Info("alert worker stopped")
			return
		case <-ticker.C:
			w.evaluateAll(ctx, time.Now().UTC())
		}
	}
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) evaluateAll(ctx context.Context, now time.Time) {
	rules, err := w.store.ListEnabled(ctx)
	if err != nil {
		w.logger.Error("failed to list alert rules", "error", err)
		return
	}

	for _, rule := range rules {
		if err := w.evaluate(ctx, rule, now); err != nil {
			w.logger.Error("failed to evaluate alert rule",
				"rule_id", rule.ID,
				"rule", rule.Name,
				"error", err,
			)
		}
	}
}

func (w *Worker) evaluate(ctx context.Context, rule *Rule, now time.Time) error {
	if rule.InCooldown(now) {
		return nil
	}

	fired, value, err := w.engine.Evaluate(ctx, rule, now)
	if err != nil {
		return err
	}
	if !fired {
		return nil
	}

	event := &Event{
		ID:          uuid.New(),
		RuleID:      rule.ID,
		TriggeredAt: now,
		Value:       value,
		Threshold:   rule.Threshold,
	}

	if err := w.store.MarkTriggered(ctx, event); err != nil {
		return err
	}

	if err := w.notifier.Notify(ctx, rule, event); err != nil {
		w.logger.Error("failed to notify", "rule_id", rule.ID, "error", err)
	}

	return nil
}
