package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/datalumen/lumen/internal/analytics"
)

// Store is the persistence surface the worker needs.
type Store interface {
	List(ctx context.Context) ([]*Definition, error)
	MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Aggregator runs the time-series engine for a report's parameters.
type Aggregator interface {
	GetTimeSeries(ctx context.Context, p analytics.TimeSeriesParams) ([]analytics.Row, error)
}

// Sink receives materialized report rows. Rendering and delivery live
// behind this seam; the default just logs the outcome.
type Sink interface {
	Deliver(ctx context.Context, def *Definition, rows []analytics.Row) error
}

// LogSink is the default Sink: it records that the report ran.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(_ context.Context, def *Definition, rows []analytics.Row) error {
	s.Logger.Info("report generated",
		"report_id", def.ID,
		"report", def.Name,
		"rows", len(rows),
	)
	return nil
}

// Worker runs due report definitions on a fixed check interval.
type Worker struct {
	store    Store
	engine   Aggregator
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

func NewWorker(store Store, engine Aggregator, sink Sink, logger *slog.Logger, interval time.Duration) *Worker {
	if interval == 0 {
		interval = time.Minute
	}

	return &Worker{
		store:    store,
		engine:   engine,
		sink:     sink,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the scheduling loop and blocks until the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("report worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("report worker stopped")
			return
		case <-w.done:
			w.logger.Info("report worker stopped")
			return
		case <-ticker.C:
			w.runDue(ctx, time.Now().UTC())
		}
	}
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) runDue(ctx context.Context, now time.Time) {
	defs, err := w.store.List(ctx)
	if err != nil {
		w.logger.Error("failed to list report definitions", "error", err)
		return
	}

	for _, def := range defs {
		if !def.Due(now) {
			continue
		}
		if err := w.run(ctx, def, now); err != nil {
			w.logger.Error("report run failed",
				"error", err,
				"report_id", def.ID,
				"report", def.Name,
			)
		}
	}
}

func (w *Worker) run(ctx context.Context, def *Definition, now time.Time) error {
	start, end := def.Schedule.Window(now)

	rows, err := w.engine.GetTimeSeries(ctx, analytics.TimeSeriesParams{
		StartDate:   start,
		EndDate:     end,
		Granularity: def.Granularity,
		Metrics:     def.Metrics,
		Source:      def.Source,
	})
	if err != nil {
		return err
	}

	if err := w.sink.Deliver(ctx, def, rows); err != nil {
		return err
	}

	if err := w.store.MarkRun(ctx, def.ID, now); err != nil {
		return err
	}

	w.logger.Debug("report run complete",
		"report_id", def.ID,
		"window_start", start.Format("2006-01-02"),
		"window_end", end.Format("2006-01-02"),
	)
	return nil
}
