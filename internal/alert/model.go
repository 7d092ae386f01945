package alert

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

type Operator string

const (
	OperatorGt  Operator = "gt"
	OperatorGte Operator = "gte"
	OperatorLt  Operator = "lt"
	OperatorLte Operator = "lte"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorGt, OperatorGte, OperatorLt, OperatorLte:
		return true
	}
	return false
}

// Rule watches one metric over a sliding window and fires when its
// aggregate crosses the threshold. Cooldown bounds how often it can fire.
type Rule struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Metric          string     `json:"metric"`
	Operator        Operator   `json:"operator"`
	Threshold       float64    `json:"threshold"`
	WindowSeconds   int        `json:"window_seconds"`
	CooldownSeconds int        `json:"cooldown_seconds"`
	Severity        Severity   `json:"severity"`
	Enabled         bool       `json:"enabled"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Window returns the evaluation window ending at now.
func (r *Rule) Window(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Duration(r.WindowSeconds) * time.Second), now
}

// InCooldown reports whether the rule fired too recently to fire again.
func (r *Rule) InCooldown(now time.Time) bool {
	if r.LastTriggeredAt == nil {
		return false
	}
	return now.Before(r.LastTriggeredAt.Add(time.Duration(r.CooldownSeconds) * time.Second))
}

// Event records one firing of a rule.
type Event struct {
	ID          uuid.UUID `json:"id"`
	RuleID      uuid.UUID `json:"rule_id"`
	TriggeredAt time.Time `json:"triggered_at"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	CreatedAt   time.Time `json:"created_at"`
}
