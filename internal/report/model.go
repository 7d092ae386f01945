package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/datalumen/lumen/internal/metric"
)

// Schedule selects how often a recurring report runs. Each schedule covers
// the most recent completed calendar period of its width.
type Schedule string

const (
	ScheduleDaily   Schedule = "daily"
	ScheduleWeekly  Schedule = "weekly"
	ScheduleMonthly Schedule = "monthly"
)

func (s Schedule) Valid() bool {
	switch s {
	case ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
		return true
	}
	return false
}

// granularity maps a schedule to the bucket width of its calendar period.
func (s Schedule) granularity() metric.Granularity {
	switch s {
	case ScheduleWeekly:
		return metric.GranularityWeek
	case ScheduleMonthly:
		return metric.GranularityMonth
	default:
		return metric.GranularityDay
	}
}

// Window returns the calendar-date bounds of the last completed period
// before now: yesterday for daily, the previous ISO week for weekly, the
// previous calendar month for monthly.
func (s Schedule) Window(now time.Time) (start, end time.Time) {
	periodStart := metric.TruncateToBucket(now, s.granularity())
	end = periodStart.AddDate(0, 0, -1)
	start = metric.TruncateToBucket(end, s.granularity())
	return start, end
}

// Definition is one recurring report configuration.
type Definition struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Metrics     []string           `json:"metrics"`
	Granularity metric.Granularity `json:"granularity"`
	Source      string             `json:"source,omitempty"`
	Schedule    Schedule           `json:"schedule"`
	LastRunAt   *time.Time         `json:"last_run_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Due reports whether the definition owes a run: it has never run, or its
// last run predates the start of the current calendar period.
func (d *Definition) Due(now time.Time) bool {
	if d.LastRunAt == nil {
		return true
	}
	periodStart := metric.TruncateToBucket(now, d.Schedule.granularity())
	return d.LastRunAt.Before(periodStart)
}
