package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	dateKeyLayout = "2006-01-02"

	// allSourcesKey stands in for "no source filter" so that filtered and
	// unfiltered requests can never share a cache entry.
	allSourcesKey = "all"
)

// timeSeriesKey builds the cache key for a time-series request. Every
// distinguishing input appears in the key; the metric list is sorted so
// equivalent requests collide on purpose.
func timeSeriesKey(p TimeSeriesParams) string {
	metrics := make([]string, len(p.Metrics))
	copy(metrics, p.Metrics)
	sort.Strings(metrics)

	source := p.Source
	if source == "" {
		source = allSourcesKey
	}

	return fmt.Sprintf("timeseries:%s|%s|%s|%s|%s",
		strings.Join(metrics, ","),
		p.Granularity,
		p.StartDate.Format(dateKeyLayout),
		p.EndDate.Format(dateKeyLayout),
		source,
	)
}

// kpiKey builds the cache key for a KPI request. The KPI metric set is fixed
// by the registry, so the period boundaries alone identify the response.
func kpiKey(startDate, endDate time.Time) string {
	return fmt.Sprintf("kpis:%s|%s",
		startDate.Format(dateKeyLayout),
		endDate.Format(dateKeyLayout),
	)
}
