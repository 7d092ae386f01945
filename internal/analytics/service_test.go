package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalumen/lumen/internal/metric"
)

// fakeStore implements MetricStore with pluggable behavior. Counters are
// guarded because the KPI engine queries concurrently.
type fakeStore struct {
	mu sync.Mutex

	groupedFn func(names []string, start, end time.Time, source string, g metric.Granularity) ([]metric.GroupedRow, error)
	windowFn  func(names []string, start, end time.Time) (map[string]metric.WindowAggregate, error)
	trendFn   func(names []string, start, end time.Time) (map[string][]metric.TrendPoint, error)

	groupedCalls int
	windowCalls  int
	trendCalls   int
}

func (f *fakeStore) QueryGrouped(_ context.Context, names []string, start, end time.Time, source string, g metric.Granularity) ([]metric.GroupedRow, error) {
	f.mu.Lock()
	f.groupedCalls++
	f.mu.Unlock()
	if f.groupedFn == nil {
		return nil, nil
	}
	return f.groupedFn(names, start, end, source, g)
}

func (f *fakeStore) QueryWindowAggregate(_ context.Context, names []string, start, end time.Time) (map[string]metric.WindowAggregate, error) {
	f.mu.Lock()
	f.windowCalls++
	f.mu.Unlock()
	if f.windowFn == nil {
		return map[string]metric.WindowAggregate{}, nil
	}
	return f.windowFn(names, start, end)
}

func (f *fakeStore) QueryDailyTrend(_ context.Context, names []string, start, end time.Time) (map[string][]metric.TrendPoint, error) {
	f.mu.Lock()
	f.trendCalls++
	f.mu.Unlock()
	if f.trendFn == nil {
		return map[string][]metric.TrendPoint{}, nil
	}
	return f.trendFn(names, start, end)
}

func newTestService(store MetricStore, backend Backend) *Service {
	return NewService(store, backend, metric.DefaultRegistry(), testLogger(), Options{})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetTimeSeries_PivotsAndZeroFills(t *testing.T) {
	store := &fakeStore{
		groupedFn: func([]string, time.Time, time.Time, string, metric.Granularity) ([]metric.GroupedRow, error) {
			return []metric.GroupedRow{
				{BucketKey: "2025-01-01", Name: "revenue", Sum: 100},
				{BucketKey: "2025-01-01", Name: "sessions", Sum: 10},
				{BucketKey: "2025-01-02", Name: "revenue", Sum: 200},
			}, nil
		},
	}
	svc := newTestService(store, nil)

	rows, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 2),
		Granularity: metric.GranularityDay,
		Metrics:     []string{"revenue", "sessions"},
	})
	require.NoError(t, err)

	require.Equal(t, []Row{
		{Date: "2025-01-01", Values: map[string]float64{"revenue": 100, "sessions": 10}},
		{Date: "2025-01-02", Values: map[string]float64{"revenue": 200, "sessions": 0}},
	}, rows)

	// The wire shape is flat, date first, metrics alphabetical.
	data, err := json.Marshal(rows[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-01-02","revenue":200,"sessions":0}`, string(data))
	assert.Equal(t, `{"date":"2025-01-02","revenue":200,"sessions":0}`, string(data))
}

func TestGetTimeSeries_RowsCarryExactlyRequestedMetrics(t *testing.T) {
	store := &fakeStore{
		groupedFn: func([]string, time.Time, time.Time, string, metric.Granularity) ([]metric.GroupedRow, error) {
			return []metric.GroupedRow{
				{BucketKey: "2025-01-01", Name: "page_views", Sum: 500},
			}, nil
		},
	}
	svc := newTestService(store, nil)

	// "made_up_metric" is not registered; the engine still zero-fills it.
	metrics := []string{"page_views", "conversions", "made_up_metric"}
	rows, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 1),
		Granularity: metric.GranularityDay,
		Metrics:     metrics,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.Len(t, rows[0].Values, len(metrics))
	for _, name := range metrics {
		_, ok := rows[0].Values[name]
		assert.True(t, ok, "row must carry %q", name)
	}
	assert.Equal(t, 500.0, rows[0].Values["page_views"])
	assert.Equal(t, 0.0, rows[0].Values["conversions"])
	assert.Equal(t, 0.0, rows[0].Values["made_up_metric"])
}

func TestGetTimeSeries_SortsRowsByDate(t *testing.T) {
	store := &fakeStore{
		groupedFn: func([]string, time.Time, time.Time, string, metric.Granularity) ([]metric.GroupedRow, error) {
			return []metric.GroupedRow{
				{BucketKey: "2025-03-01", Name: "sessions", Sum: 3},
				{BucketKey: "2025-01-01", Name: "sessions", Sum: 1},
				{BucketKey: "2025-02-01", Name: "sessions", Sum: 2},
			}, nil
		},
	}
	svc := newTestService(store, nil)

	rows, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 3, 31),
		Granularity: metric.GranularityMonth,
		Metrics:     []string{"sessions"},
	})
	require.NoError(t, err)

	dates := []string{rows[0].Date, rows[1].Date, rows[2].Date}
	assert.Equal(t, []string{"2025-01-01", "2025-02-01", "2025-03-01"}, dates)
}

func TestGetTimeSeries_EmptyMetricSet(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil)

	rows, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 31),
		Granularity: metric.GranularityDay,
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 0, store.groupedCalls, "store must not be queried")
}

func TestGetTimeSeries_NoObservations(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	rows, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 31),
		Granularity: metric.GranularityDay,
		Metrics:     []string{"revenue"},
	})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGetTimeSeries_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{
		groupedFn: func([]string, time.Time, time.Time, string, metric.Granularity) ([]metric.GroupedRow, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := newTestService(store, nil)

	_, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 2),
		Granularity: metric.GranularityDay,
		Metrics:     []string{"revenue"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time series query")
}

func TestGetTimeSeries_WholeDayExpansion(t *testing.T) {
	var gotStart, gotEnd time.Time
	store := &fakeStore{
		groupedFn: func(_ []string, start, end time.Time, _ string, _ metric.Granularity) ([]metric.GroupedRow, error) {
			gotStart, gotEnd = start, end
			return nil, nil
		},
	}
	svc := newTestService(store, nil)

	// Time-of-day on the inputs is ignored.
	_, err := svc.GetTimeSeries(context.Background(), TimeSeriesParams{
		StartDate:   time.Date(2025, 1, 1, 14, 30, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 2, 9, 15, 0, 0, time.UTC),
		Granularity: metric.GranularityDay,
		Metrics:     []string{"revenue"},
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2025, 1, 2, 23, 59, 59, 999000000, time.UTC), gotEnd)
}

func TestGetTimeSeries_CacheHitSkipsStore(t *testing.T) {
	store := &fakeStore{
		groupedFn: func([]string, time.Time, time.Time, string, metric.Granularity) ([]metric.GroupedRow, error) {
			return []metric.GroupedRow{{BucketKey: "2025-01-01", Name: "revenue", Sum: 100}}, nil
		},
	}
	svc := newTestService(store, newMemBackend())

	params := TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 2),
		Granularity: metric.GranularityDay,
		Metrics:     []string{"revenue"},
	}

	first, err := svc.GetTimeSeries(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.GetTimeSeries(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.groupedCalls, "second call must be served from cache")
}

// Results must be identical with the cache disabled, cold, or broken.
func TestGetTimeSeries_CacheTransparency(t *testing.T) {
	newStore := func() *fakeStore {
		return &fakeStore{
			groupedFn: func([]string, time.Time, time.Time, string, metric.Granularity) ([]metric.GroupedRow, error) {
				return []metric.GroupedRow{
					{BucketKey: "2025-01-01", Name: "revenue", Sum: 100},
					{BucketKey: "2025-01-02", Name: "revenue", Sum: 200},
				}, nil
			},
		}
	}

	params := TimeSeriesParams{
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 2),
		Granularity: metric.GranularityDay,
		Metrics:     []string{"revenue", "sessions"},
	}

	backends := map[string]Backend{
		"disabled": nil,
		"cold":     newMemBackend(),
		"broken":   failingBackend{},
	}

	var reference []Row
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(newStore(), backend)
			rows, err := svc.GetTimeSeries(context.Background(), params)
			require.NoError(t, err)
			if reference == nil {
				reference = rows
				return
			}
			assert.Equal(t, reference, rows)
		})
	}
}

func TestGetKPIs_SevenDayWindow(t *testing.T) {
	currentWindowStart := date(2025, 1, 8)
	previousWindowStart := date(2025, 1, 1)

	store := &fakeStore{
		windowFn: func(_ []string, start, _ time.Time) (map[string]metric.WindowAggregate, error) {
			switch {
			case start.Equal(currentWindowStart):
				return map[string]metric.WindowAggregate{
					"revenue":     {Sum: 300, Avg: 150},
					"bounce_rate": {Sum: 90, Avg: 45},
				}, nil
			case start.Equal(previousWindowStart):
				return map[string]metric.WindowAggregate{
					"revenue":     {Sum: 120, Avg: 60},
					"bounce_rate": {Sum: 100, Avg: 50},
				}, nil
			default:
				return nil, errors.New("unexpected window start")
			}
		},
		trendFn: func([]string, time.Time, time.Time) (map[string][]metric.TrendPoint, error) {
			return map[string][]metric.TrendPoint{
				"revenue": {
					{Date: "2025-01-09", Value: 100},
					{Date: "2025-01-12", Value: 200},
				},
			}, nil
		},
	}
	svc := newTestService(store, nil)

	resp, err := svc.GetKPIs(context.Background(), date(2025, 1, 8), date(2025, 1, 14))
	require.NoError(t, err)

	assert.Equal(t, PeriodWindow{Start: "2025-01-08", End: "2025-01-14"}, resp.Period.Current)
	assert.Equal(t, PeriodWindow{Start: "2025-01-01", End: "2025-01-07"}, resp.Period.Previous)

	registry := metric.DefaultRegistry()
	require.Len(t, resp.KPIs, registry.Len())

	byID := make(map[string]KPI, len(resp.KPIs))
	for i, kpi := range resp.KPIs {
		byID[kpi.ID] = kpi
		assert.Equal(t, registry.IDs()[i], kpi.ID, "KPI order follows the registry")
	}

	// Sum policy.
	revenue := byID["revenue"]
	assert.Equal(t, "Revenue", revenue.Label)
	assert.Equal(t, metric.FormatCurrency, revenue.Format)
	assert.Equal(t, 300.0, revenue.Value)
	assert.Equal(t, 120.0, revenue.PreviousValue)

	// Average policy.
	bounce := byID["bounce_rate"]
	assert.Equal(t, 45.0, bounce.Value)
	assert.Equal(t, 50.0, bounce.PreviousValue)

	// Metrics with no observations default to zero on both sides.
	sessions := byID["sessions"]
	assert.Equal(t, 0.0, sessions.Value)
	assert.Equal(t, 0.0, sessions.PreviousValue)

	// Trend spans exactly the current window, one point per day, zero-filled.
	require.Len(t, revenue.Trend, 7)
	assert.Equal(t, metric.TrendPoint{Date: "2025-01-08", Value: 0}, revenue.Trend[0])
	assert.Equal(t, metric.TrendPoint{Date: "2025-01-09", Value: 100}, revenue.Trend[1])
	assert.Equal(t, metric.TrendPoint{Date: "2025-01-12", Value: 200}, revenue.Trend[4])
	assert.Equal(t, metric.TrendPoint{Date: "2025-01-14", Value: 0}, revenue.Trend[6])

	// Metrics absent from the trend data still get a full zero series.
	require.Len(t, sessions.Trend, 7)
	for i, point := range sessions.Trend {
		assert.Equal(t, date(2025, 1, 8).AddDate(0, 0, i).Format("2006-01-02"), point.Date)
		assert.Equal(t, 0.0, point.Value)
	}
}

func TestGetKPIs_PreviousPeriodEquality(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		prevStart string
		prevEnd   string
	}{
		{
			name:      "single day",
			start:     date(2025, 3, 15),
			end:       date(2025, 3, 15),
			prevStart: "2025-03-14",
			prevEnd:   "2025-03-14",
		},
		{
			name:      "week",
			start:     date(2025, 1, 8),
			end:       date(2025, 1, 14),
			prevStart: "2025-01-01",
			prevEnd:   "2025-01-07",
		},
		{
			name:      "window across month boundary",
			start:     date(2025, 3, 1),
			end:       date(2025, 3, 10),
			prevStart: "2025-02-19",
			prevEnd:   "2025-02-28",
		},
		{
			name:      "thirty days",
			start:     date(2025, 6, 1),
			end:       date(2025, 6, 30),
			prevStart: "2025-05-02",
			prevEnd:   "2025-05-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeStore{}, nil)

			resp, err := svc.GetKPIs(context.Background(), tt.start, tt.end)
			require.NoError(t, err)

			assert.Equal(t, tt.prevStart, resp.Period.Previous.Start)
			assert.Equal(t, tt.prevEnd, resp.Period.Previous.End)

			// Equal day count, previous window ends the day before the
			// current one starts.
			prevStart, _ := time.Parse("2006-01-02", resp.Period.Previous.Start)
			prevEnd, _ := time.Parse("2006-01-02", resp.Period.Previous.End)
			assert.Equal(t, wholeDays(tt.start, tt.end), wholeDays(prevStart, prevEnd))
			assert.Equal(t, tt.start.AddDate(0, 0, -1), prevEnd)
		})
	}
}

func TestGetKPIs_QueryFailureFailsWholeCall(t *testing.T) {
	store := &fakeStore{
		trendFn: func([]string, time.Time, time.Time) (map[string][]metric.TrendPoint, error) {
			return nil, errors.New("statement timeout")
		},
	}
	svc := newTestService(store, nil)

	resp, err := svc.GetKPIs(context.Background(), date(2025, 1, 8), date(2025, 1, 14))
	require.Error(t, err)
	assert.Nil(t, resp, "no partial KPI response")
	assert.Contains(t, err.Error(), "daily trend")
}

func TestGetKPIs_CacheHitSkipsStore(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newMemBackend())

	first, err := svc.GetKPIs(context.Background(), date(2025, 1, 8), date(2025, 1, 14))
	require.NoError(t, err)
	second, err := svc.GetKPIs(context.Background(), date(2025, 1, 8), date(2025, 1, 14))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.windowCalls, "one current plus one previous query")
	assert.Equal(t, 1, store.trendCalls)
}

func TestGetKPIs_CacheTransparency(t *testing.T) {
	newStore := func() *fakeStore {
		return &fakeStore{
			windowFn: func([]string, time.Time, time.Time) (map[string]metric.WindowAggregate, error) {
				return map[string]metric.WindowAggregate{
					"page_views": {Sum: 1000, Avg: 250},
				}, nil
			},
		}
	}

	withCache := newTestService(newStore(), newMemBackend())
	withoutCache := newTestService(newStore(), nil)

	got, err := withCache.GetKPIs(context.Background(), date(2025, 1, 8), date(2025, 1, 14))
	require.NoError(t, err)
	want, err := withoutCache.GetKPIs(context.Background(), date(2025, 1, 8), date(2025, 1, 14))
	require.NoError(t, err)

	assert.Equal(t, want, got)
}
