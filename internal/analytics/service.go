package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/datalumen/lumen/internal/metric"
)

// MetricStore is the query surface the engines need from the metric store.
type MetricStore interface {
	QueryGrouped(ctx context.Context, names []string, start, end time.Time, source string, g metric.Granularity) ([]metric.GroupedRow, error)
	QueryWindowAggregate(ctx context.Context, names []string, start, end time.Time) (map[string]metric.WindowAggregate, error)
	QueryDailyTrend(ctx context.Context, names []string, start, end time.Time) (map[string][]metric.TrendPoint, error)
}

// Options tunes the result cache TTLs.
type Options struct {
	TimeSeriesTTL time.Duration
	KPITTL        time.Duration
}

// Service is the aggregation and KPI engine. It is stateless per call; the
// registry is read-only, so concurrent use needs no synchronization.
type Service struct {
	store    MetricStore
	cache    *resultCache
	registry *metric.Registry
	logger   *slog.Logger
	tsTTL    time.Duration
	kpiTTL   time.Duration
}

// NewService builds the engine. A nil backend disables caching; results are
// identical either way, only slower.
func NewService(store MetricStore, backend Backend, registry *metric.Registry, logger *slog.Logger, opts Options) *Service {
	if opts.TimeSeriesTTL == 0 {
		opts.TimeSeriesTTL = 120 * time.Second
	}
	if opts.KPITTL == 0 {
		opts.KPITTL = 300 * time.Second
	}

	return &Service{
		store:    store,
		cache:    newResultCache(backend, logger),
		registry: registry,
		logger:   logger,
		tsTTL:    opts.TimeSeriesTTL,
		kpiTTL:   opts.KPITTL,
	}
}

// GetTimeSeries returns one row per time bucket that has observations,
// pivoted so every requested metric appears in every row (0 when absent),
// sorted by date ascending. Metric names are not validated against the
// registry here; unregistered names match nothing and zero-fill.
func (s *Service) GetTimeSeries(ctx context.Context, p TimeSeriesParams) ([]Row, error) {
	if len(p.Metrics) == 0 {
		return []Row{}, nil
	}

	key := timeSeriesKey(p)
	var cached []Row
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	start, end := dayBounds(p.StartDate, p.EndDate)

	grouped, err := s.store.QueryGrouped(ctx, p.Metrics, start, end, p.Source, p.Granularity)
	if err != nil {
		return nil, fmt.Errorf("time series query: %w", err)
	}

	rows := pivot(grouped, p.Metrics)

	s.cache.set(ctx, key, rows, s.tsTTL)
	return rows, nil
}

// GetKPIs compares the requested window against the immediately preceding
// window of equal day length for every registered metric, with a zero-filled
// daily trend across the current window. The three store queries run
// concurrently; all are awaited and the first error fails the whole call.
func (s *Service) GetKPIs(ctx context.Context, startDate, endDate time.Time) (*KPIResponse, error) {
	key := kpiKey(startDate, endDate)
	var cached KPIResponse
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	days := wholeDays(startDate, endDate)
	prevStartDate := startDate.AddDate(0, 0, -days)
	prevEndDate := startDate.AddDate(0, 0, -1)

	start, end := dayBounds(startDate, endDate)
	prevStart, prevEnd := dayBounds(prevStartDate, prevEndDate)

	ids := s.registry.IDs()

	var (
		current  map[string]metric.WindowAggregate
		previous map[string]metric.WindowAggregate
		trend    map[string][]metric.TrendPoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.store.QueryWindowAggregate(gctx, ids, start, end)
		if err != nil {
			return fmt.Errorf("current period aggregate: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previous, err = s.store.QueryWindowAggregate(gctx, ids, prevStart, prevEnd)
		if err != nil {
			return fmt.Errorf("previous period aggregate: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		trend, err = s.store.QueryDailyTrend(gctx, ids, start, end)
		if err != nil {
			return fmt.Errorf("daily trend: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	kpis := make([]KPI, 0, s.registry.Len())
	for _, def := range s.registry.All() {
		kpis = append(kpis, KPI{
			ID:            def.ID,
			Label:         def.Label,
			Value:         resolveAggregate(current[def.ID], def.Aggregation),
			PreviousValue: resolveAggregate(previous[def.ID], def.Aggregation),
			Format:        def.Format,
			Trend:         fillDailyTrend(trend[def.ID], startDate, days),
		})
	}

	resp := &KPIResponse{
		KPIs: kpis,
		Period: KPIPeriod{
			Current: PeriodWindow{
				Start: startDate.Format(dateKeyLayout),
				End:   endDate.Format(dateKeyLayout),
			},
			Previous: PeriodWindow{
				Start: prevStartDate.Format(dateKeyLayout),
				End:   prevEndDate.Format(dateKeyLayout),
			},
		},
	}

	s.cache.set(ctx, key, resp, s.kpiTTL)
	return resp, nil
}

// pivot turns sparse (bucket, metric) sums into one row per bucket carrying
// every requested metric, zero-filled, sorted by bucket key. Bucket keys
// sort lexicographically in chronological order by construction.
func pivot(grouped []metric.GroupedRow, metrics []string) []Row {
	byBucket := make(map[string]map[string]float64)
	for _, g := range grouped {
		bucket, ok := byBucket[g.BucketKey]
		if !ok {
			bucket = make(map[string]float64, len(metrics))
			byBucket[g.BucketKey] = bucket
		}
		bucket[g.Name] = g.Sum
	}

	buckets := make([]string, 0, len(byBucket))
	for key := range byBucket {
		buckets = append(buckets, key)
	}
	sort.Strings(buckets)

	rows := make([]Row, 0, len(buckets))
	for _, bucket := range buckets {
		values := make(map[string]float64, len(metrics))
		for _, name := range metrics {
			values[name] = byBucket[bucket][name]
		}
		rows = append(rows, Row{Date: bucket, Values: values})
	}

	return rows
}

// resolveAggregate picks sum or average per the metric's configured policy.
// A zero-valued aggregate (metric absent from the window) yields 0 either way.
func resolveAggregate(agg metric.WindowAggregate, policy metric.Aggregation) float64 {
	if policy == metric.AggregationAverage {
		return agg.Avg
	}
	return agg.Sum
}

// fillDailyTrend expands a sparse daily series to exactly one point per day
// of the window, zero where no observations exist.
func fillDailyTrend(points []metric.TrendPoint, startDate time.Time, days int) []metric.TrendPoint {
	byDate := make(map[string]float64, len(points))
	for _, p := range points {
		byDate[p.Date] = p.Value
	}

	filled := make([]metric.TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		date := startDate.AddDate(0, 0, i).Format(dateKeyLayout)
		filled = append(filled, metric.TrendPoint{Date: date, Value: byDate[date]})
	}

	return filled
}

// dayBounds expands calendar dates to whole-day inclusive instants in UTC,
// regardless of any time-of-day on the inputs.
func dayBounds(startDate, endDate time.Time) (time.Time, time.Time) {
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}

// wholeDays counts the inclusive day span between two calendar dates.
func wholeDays(startDate, endDate time.Time) int {
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}
