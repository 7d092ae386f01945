package metric

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketKey(t *testing.T) {
	tests := []struct {
		name        string
		ts          time.Time
		granularity Granularity
		want        string
	}{
		{
			name:        "hour truncates minutes and seconds",
			ts:          time.Date(2025, 3, 15, 14, 37, 25, 0, time.UTC),
			granularity: GranularityHour,
			want:        "2025-03-15T14:00:00",
		},
		{
			name:        "hour at top of hour",
			ts:          time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
			granularity: GranularityHour,
			want:        "2025-03-15T09:00:00",
		},
		{
			name:        "day truncates to midnight",
			ts:          time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC),
			granularity: GranularityDay,
			want:        "2025-03-15",
		},
		{
			name:        "week maps midweek to its monday",
			ts:          time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC), // Thursday
			granularity: GranularityWeek,
			want:        "2025-03-10",
		},
		{
			name:        "week keeps monday as monday",
			ts:          time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
			granularity: GranularityWeek,
			want:        "2024-12-30",
		},
		{
			name:        "week maps sunday back to the prior monday",
			ts:          time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC),
			granularity: GranularityWeek,
			want:        "2025-03-10",
		},
		{
			name:        "week crosses the year boundary to the ISO week",
			ts:          time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), // Wednesday, ISO week 1 of 2025
			granularity: GranularityWeek,
			want:        "2024-12-30",
		},
		{
			name:        "week where january 1 falls in the last ISO week of the prior year",
			ts:          time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC), // Sunday, ISO week 52 of 2022
			granularity: GranularityWeek,
			want:        "2022-12-26",
		},
		{
			name:        "month truncates to the first",
			ts:          time.Date(2025, 3, 15, 14, 37, 0, 0, time.UTC),
			granularity: GranularityMonth,
			want:        "2025-03-01",
		},
		{
			name:        "month in december",
			ts:          time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			granularity: GranularityMonth,
			want:        "2024-12-01",
		},
		{
			name:        "unknown granularity falls back to day",
			ts:          time.Date(2025, 3, 15, 14, 37, 0, 0, time.UTC),
			granularity: Granularity("quarter"),
			want:        "2025-03-15",
		},
		{
			name:        "empty granularity falls back to day",
			ts:          time.Date(2025, 3, 15, 14, 37, 0, 0, time.UTC),
			granularity: Granularity(""),
			want:        "2025-03-15",
		},
		{
			name:        "non-UTC timestamps are keyed in UTC",
			ts:          time.Date(2025, 3, 15, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			granularity: GranularityDay,
			want:        "2025-03-16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketKey(tt.ts, tt.granularity))
		})
	}
}

// Lexicographic ordering of bucket keys must coincide with chronological
// ordering at every granularity.
func TestBucketKey_OrderingMatchesTime(t *testing.T) {
	timestamps := []time.Time{
		time.Date(2024, 12, 23, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 30, 5, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 6, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 3, 0, 30, 0, 0, time.UTC),
		time.Date(2025, 10, 20, 18, 45, 0, 0, time.UTC),
	}

	for _, g := range []Granularity{GranularityHour, GranularityDay, GranularityWeek, GranularityMonth} {
		t.Run(string(g), func(t *testing.T) {
			keys := make([]string, len(timestamps))
			for i, ts := range timestamps {
				keys[i] = BucketKey(ts, g)
			}

			sorted := append([]string(nil), keys...)
			sort.Strings(sorted)
			assert.Equal(t, keys, sorted, "keys for chronological timestamps must already be sorted")
		})
	}
}

func TestTruncateToBucket_WeekReturnsMonday(t *testing.T) {
	// Every day of one week lands on the same Monday.
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		ts := monday.AddDate(0, 0, offset).Add(13 * time.Hour)
		got := TruncateToBucket(ts, GranularityWeek)
		assert.Equal(t, monday, got, "day offset %d", offset)
		assert.Equal(t, time.Monday, got.Weekday())
	}
}

func TestGranularity_Valid(t *testing.T) {
	assert.True(t, GranularityHour.Valid())
	assert.True(t, GranularityDay.Valid())
	assert.True(t, GranularityWeek.Valid())
	assert.True(t, GranularityMonth.Valid())
	assert.False(t, Granularity("quarter").Valid())
	assert.False(t, Granularity("").Valid())
}

func TestGranularity_TruncField(t *testing.T) {
	assert.Equal(t, "hour", GranularityHour.TruncField())
	assert.Equal(t, "day", GranularityDay.TruncField())
	assert.Equal(t, "week", GranularityWeek.TruncField())
	assert.Equal(t, "month", GranularityMonth.TruncField())
	// Fallback must agree with BucketKey's day semantics.
	assert.Equal(t, "day", Granularity("quarter").TruncField())
}
