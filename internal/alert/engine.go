package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/datalumen/lumen/internal/metric"
)

// WindowReader is the slice of the metric store the engine evaluates against.
type WindowReader interface {
	QueryWindowAggregate(ctx context.Context, names []string, start, end time.Time) (map[string]metric.WindowAggregate, error)
}

// Engine decides whether a rule fires. The metric's registered aggregation
// policy picks sum or average over the rule's window.
type Engine struct {
	store    WindowReader
	registry *metric.Registry
}

func NewEngine(store WindowReader, registry *metric.Registry) *Engine {
	return &Engine{store: store, registry: registry}
}

// Evaluate computes the rule's metric aggregate over its window ending at
// now and reports whether the threshold was crossed, along with the value.
func (e *Engine) Evaluate(ctx context.Context, rule *Rule, now time.Time) (bool, float64, error) {
	start, end := rule.Window(now)

	aggregates, err := e.store.QueryWindowAggregate(ctx, []string{rule.Metric}, start, end)
	if err != nil {
		return false, 0, fmt.Errorf("aggregate metric %s: %w", rule.Metric, err)
	}

	value := aggregates[rule.Metric].Sum
	if def, ok := e.registry.Get(rule.Metric); ok && def.Aggregation == metric.AggregationAverage {
		value = aggregates[rule.Metric].Avg
	}

	return compare(rule.Operator, value, rule.Threshold), value, nil
}

func compare(op Operator, value, threshold float64) bool {
	switch op {
	case OperatorGt:
		return value > threshold
	case OperatorGte:
		return value >= threshold
	case OperatorLt:
		return value < threshold
	case OperatorLte:
		return value <= threshold
	default:
		return false
	}
}
