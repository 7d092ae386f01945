package alert

import (
	"context"
	"log/slog"
)

// Notifier receives fired alerts. Delivery transports live behind this
// seam; the default just logs.
type Notifier interface {
	Notify(ctx context.Context, rule *Rule, event *Event) error
}

// LogNotifier is the default Notifier.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, rule *Rule, event *Event) error {
	n.Logger.Warn("alert fired",
		"rule_id", rule.ID,
		"rule", rule.Name,
		"metric", rule.Metric,
		"severity", string(rule.Severity),
		"value", event.Value,
		"threshold", event.Threshold,
	)
	return nil
}
