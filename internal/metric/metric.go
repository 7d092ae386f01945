package metric

import (
	"time"

	"github.com/google/uuid"
)

// Known metric identifiers. Observations carrying any other name are
// rejected at ingestion; queries for unknown names simply match nothing.
const (
	PageViews          = "page_views"
	UniqueVisitors     = "unique_visitors"
	Sessions           = "sessions"
	BounceRate         = "bounce_rate"
	AvgSessionDuration = "avg_session_duration"
	Conversions        = "conversions"
	ConversionRate     = "conversion_rate"
	Revenue            = "revenue"
)

// Format classifies how a metric value is rendered by clients.
type Format string

const (
	FormatNumber     Format = "number"
	FormatCurrency   Format = "currency"
	FormatPercentage Format = "percentage"
	FormatDuration   Format = "duration"
)

// Aggregation defines how raw observations collapse into one bucket value.
type Aggregation string

const (
	AggregationSum     Aggregation = "sum"
	AggregationAverage Aggregation = "average"
)

// Definition describes one registered metric.
type Definition struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Format      Format      `json:"format"`
	Aggregation Aggregation `json:"aggregation"`
}

// Registry is the process-wide metric configuration. It is immutable after
// construction and safe for unsynchronized concurrent reads.
type Registry struct {
	order []string
	byID  map[string]Definition
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{
		order: make([]string, 0, len(defs)),
		byID:  make(map[string]Definition, len(defs)),
	}
	for _, d := range defs {
		if _, dup := r.byID[d.ID]; dup {
			continue
		}
		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
	}
	return r
}

// DefaultRegistry returns the fixed set of metrics the dashboard knows about.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Definition{ID: PageViews, Label: "Page Views", Format: FormatNumber, Aggregation: AggregationSum},
		Definition{ID: UniqueVisitors, Label: "Unique Visitors", Format: FormatNumber, Aggregation: AggregationSum},
		Definition{ID: Sessions, Label: "Sessions", Format: FormatNumber, Aggregation: AggregationSum},
		Definition{ID: BounceRate, Label: "Bounce Rate", Format: FormatPercentage, Aggregation: AggregationAverage},
		Definition{ID: AvgSessionDuration, Label: "Avg. Session Duration", Format: FormatDuration, Aggregation: AggregationAverage},
		Definition{ID: Conversions, Label: "Conversions", Format: FormatNumber, Aggregation: AggregationSum},
		Definition{ID: ConversionRate, Label: "Conversion Rate", Format: FormatPercentage, Aggregation: AggregationAverage},
		Definition{ID: Revenue, Label: "Revenue", Format: FormatCurrency, Aggregation: AggregationSum},
	)
}

func (r *Registry) Get(id string) (Definition, bool) {
	d, ok := r.byID[id]
	return d, ok
}

func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns definitions in registration order.
func (r *Registry) All() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.byID[id])
	}
	return defs
}

// IDs returns metric identifiers in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Observation is one immutable metric fact.
type Observation struct {
	ID         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	Value      float64                `json:"value"`
	OccurredAt time.Time              `json:"occurred_at"`
	Source     string                 `json:"source"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// DefaultSource tags observations whose ingestion path did not name one.
const DefaultSource = "default"
