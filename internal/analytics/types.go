package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/datalumen/lumen/internal/metric"
)

// TimeSeriesParams describes one aggregation request. Start and end are
// calendar dates; the engine expands them to whole-day inclusive instants.
type TimeSeriesParams struct {
	StartDate   time.Time
	EndDate     time.Time
	Granularity metric.Granularity
	Metrics     []string
	Source      string // empty matches all sources
}

// Row is one time bucket of an aggregated series. Every requested metric is
// present in Values; metrics with no observations carry 0. The JSON shape is
// flat: {"date": "...", "<metric>": n, ...}.
type Row struct {
	Date   string
	Values map[string]float64
}

func (r Row) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	date, err := json.Marshal(r.Date)
	if err != nil {
		return nil, err
	}
	buf.Write(date)

	for _, name := range names {
		buf.WriteByte(',')
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(r.Values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	r.Values = make(map[string]float64, len(fields))
	for key, value := range fields {
		if key == "date" {
			date, ok := value.(string)
			if !ok {
				return fmt.Errorf("row date must be a string, got %T", value)
			}
			r.Date = date
			continue
		}
		number, ok := value.(float64)
		if !ok {
			return fmt.Errorf("row metric %q must be numeric, got %T", key, value)
		}
		r.Values[key] = number
	}

	return nil
}

// KPI is one headline metric with its prior-period comparison and daily trend.
type KPI struct {
	ID            string              `json:"id"`
	Label         string              `json:"label"`
	Value         float64             `json:"value"`
	PreviousValue float64             `json:"previousValue"`
	Format        metric.Format       `json:"format"`
	Trend         []metric.TrendPoint `json:"trend"`
}

// PeriodWindow is a calendar-date window boundary pair.
type PeriodWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type KPIPeriod struct {
	Current  PeriodWindow `json:"current"`
	Previous PeriodWindow `json:"previous"`
}

type KPIResponse struct {
	KPIs   []KPI     `json:"kpis"`
	Period KPIPeriod `json:"period"`
}
