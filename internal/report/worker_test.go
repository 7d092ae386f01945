package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalumen/lumen/internal/analytics"
	"github.com/datalumen/lumen/internal/metric"
)

func TestSchedule_Window(t *testing.T) {
	// Wednesday 2025-03-12, mid-morning.
	now := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		schedule Schedule
		start    string
		end      string
	}{
		{ScheduleDaily, "2025-03-11", "2025-03-11"},
		{ScheduleWeekly, "2025-03-03", "2025-03-09"}, // previous ISO week
		{ScheduleMonthly, "2025-02-01", "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(string(tt.schedule), func(t *testing.T) {
			start, end := tt.schedule.Window(now)
			assert.Equal(t, tt.start, start.Format("2006-01-02"))
			assert.Equal(t, tt.end, end.Format("2006-01-02"))
		})
	}
}

func TestDefinition_Due(t *testing.T) {
	now := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC) // Wednesday

	yesterday := now.AddDate(0, 0, -1)
	earlierToday := now.Add(-2 * time.Hour)
	lastWeek := now.AddDate(0, 0, -7)
	lastMonth := now.AddDate(0, -1, 0)

	tests := []struct {
		name     string
		schedule Schedule
		lastRun  *time.Time
		want     bool
	}{
		{"never ran", ScheduleDaily, nil, true},
		{"daily ran yesterday", ScheduleDaily, &yesterday, true},
		{"daily ran today", ScheduleDaily, &earlierToday, false},
		{"weekly ran last week", ScheduleWeekly, &lastWeek, true},
		{"weekly ran this week", ScheduleWeekly, &yesterday, false},
		{"monthly ran last month", ScheduleMonthly, &lastMonth, true},
		{"monthly ran this month", ScheduleMonthly, &yesterday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &Definition{Schedule: tt.schedule, LastRunAt: tt.lastRun}
			assert.Equal(t, tt.want, def.Due(now))
		})
	}
}

type fakeReportStore struct {
	defs    []*Definition
	listErr error
	marked  []uuid.UUID
}

func (f *fakeReportStore) List(context.Context) ([]*Definition, error) {
	return f.defs, f.listErr
}

func (f *fakeReportStore) MarkRun(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeEngine struct {
	params []analytics.TimeSeriesParams
	err    error
}

func (f *fakeEngine) GetTimeSeries(_ context.Context, p analytics.TimeSeriesParams) ([]analytics.Row, error) {
	f.params = append(f.params, p)
	if f.err != nil {
		return nil, f.err
	}
	return []analytics.Row{{Date: p.StartDate.Format("2006-01-02"), Values: map[string]float64{}}}, nil
}

type fakeSink struct {
	delivered []*Definition
	err       error
}

func (f *fakeSink) Deliver(_ context.Context, def *Definition, _ []analytics.Row) error {
	f.delivered = append(f.delivered, def)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_RunDue(t *testing.T) {
	now := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	earlierToday := now.Add(-time.Hour)

	due := &Definition{
		ID:          uuid.New(),
		Name:        "weekly traffic",
		Metrics:     []string{metric.PageViews, metric.Sessions},
		Granularity: metric.GranularityDay,
		Schedule:    ScheduleWeekly,
	}
	notDue := &Definition{
		ID:        uuid.New(),
		Name:      "daily revenue",
		Metrics:   []string{metric.Revenue},
		Schedule:  ScheduleDaily,
		LastRunAt: &earlierToday,
	}

	store := &fakeReportStore{defs: []*Definition{due, notDue}}
	engine := &fakeEngine{}
	sink := &fakeSink{}
	w := NewWorker(store, engine, sink, discardLogger(), time.Minute)

	w.runDue(context.Background(), now)

	require.Len(t, engine.params, 1, "only the due report runs")
	assert.Equal(t, []string{metric.PageViews, metric.Sessions}, engine.params[0].Metrics)
	assert.Equal(t, "2025-03-03", engine.params[0].StartDate.Format("2006-01-02"))
	assert.Equal(t, "2025-03-09", engine.params[0].EndDate.Format("2006-01-02"))

	require.Len(t, sink.delivered, 1)
	assert.Equal(t, due.ID, sink.delivered[0].ID)
	assert.Equal(t, []uuid.UUID{due.ID}, store.marked)
}

func TestWorker_EngineFailureDoesNotMarkRun(t *testing.T) {
	due := &Definition{
		ID:       uuid.New(),
		Name:     "daily revenue",
		Metrics:  []string{metric.Revenue},
		Schedule: ScheduleDaily,
	}

	store := &fakeReportStore{defs: []*Definition{due}}
	engine := &fakeEngine{err: errors.New("store down")}
	sink := &fakeSink{}
	w := NewWorker(store, engine, sink, discardLogger(), time.Minute)

	w.runDue(context.Background(), time.Now().UTC())

	assert.Empty(t, sink.delivered)
	assert.Empty(t, store.marked, "failed runs stay due")
}
