package rag

import (
	"strings"
	"time"
)

// TimeRange is a concrete [Start, End] interval derived from a temporal
// phrase. Both bounds are treated inclusively by the context engine.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// ParseTimeRange maps a temporal phrase in the message to a concrete interval
// relative to now. The first matching phrase wins. "yesterday" is the one
// closed full-day window; every other phrase is open-ended up to now.
func ParseTimeRange(message string, now time.Time) (TimeRange, bool) {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "today"):
		return TimeRange{Start: startOfDay(now), End: now}, true
	case strings.Contains(lower, "yesterday"):
		start := startOfDay(now.AddDate(0, 0, -1))
		return TimeRange{Start: start, End: start.Add(24*time.Hour - time.Millisecond)}, true
	case strings.Contains(lower, "last week"):
		return TimeRange{Start: now.AddDate(0, 0, -14), End: now}, true
	case strings.Contains(lower, "this week"):
		return TimeRange{Start: now.AddDate(0, 0, -7), End: now}, true
	case strings.Contains(lower, "this month"), strings.Contains(lower, "recent"):
		return TimeRange{Start: now.AddDate(0, 0, -30), End: now}, true
	}
	return TimeRange{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Contains reports whether t falls within the range, bounds inclusive.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
