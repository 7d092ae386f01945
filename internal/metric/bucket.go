package metric

import "time"

// Granularity selects the bucket width for a time-series query.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// TruncField maps a granularity to the date_trunc field the store groups by.
// Unrecognized values fall back to day, matching BucketKey; callers that
// want strict validation must check Valid() at the boundary.
func (g Granularity) TruncField() string {
	switch g {
	case GranularityHour:
		return "hour"
	case GranularityWeek:
		return "week"
	case GranularityMonth:
		return "month"
	default:
		return "day"
	}
}

// TruncateToBucket returns the canonical start instant of the bucket
// containing ts, in UTC. Week buckets start on the Monday of the ISO week
// containing ts; taking the Monday's calendar date sidesteps the ISO
// week-year mismatch around January 1.
func TruncateToBucket(ts time.Time, g Granularity) time.Time {
	ts = ts.UTC()
	switch g {
	case GranularityHour:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, time.UTC)
	case GranularityWeek:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		wd := int(day.Weekday())
		if wd == 0 {
			wd = 7 // ISO numbering, Sunday is day 7
		}
		return day.AddDate(0, 0, 1-wd)
	case GranularityMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		// Unknown granularities behave as day. Stored report definitions may
		// carry values newer binaries no longer recognize, so this must stay
		// total rather than error.
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// BucketKey maps a timestamp and granularity to its canonical bucket key.
// Keys are zero-padded ISO-8601 shapes, so lexicographic order equals
// chronological order at every granularity.
func BucketKey(ts time.Time, g Granularity) string {
	b := TruncateToBucket(ts, g)
	if g == GranularityHour {
		return b.Format("2006-01-02T15:00:00")
	}
	return b.Format("2006-01-02")
}
