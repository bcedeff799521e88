package overlap

import (
	"math"
	"strings"
	"time"
)

const day = 24 * time.Hour

// dateLayouts are tried in order; all parse as UTC. Numeric month and day
// elements are unpadded, which accepts both "1/5/2024" and "01/05/2024".
var dateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	"2006-1-2 15:04:05",
	"2006/1/2",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a calendar date in one of the accepted layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysBetween counts the days from start to end inclusive of both ends.
// Rounding absorbs sub-day drift such as an end taken from the wall clock.
func DaysBetween(start, end time.Time) int {
	return int(math.Round(float64(end.Sub(start))/float64(day))) + 1
}

// CrossWorkDays returns the number of days two periods share, or 0.
// An end date that does not parse means the period is still running and
// now is used in its place. A start date that does not parse yields 0.
func CrossWorkDays(startDate1, endDate1, startDate2, endDate2 string, now time.Time) int {
	start1, ok1 := ParseDate(startDate1)
	start2, ok2 := ParseDate(startDate2)
	if !ok1 || !ok2 {
		return 0
	}

	end1 := endOrNow(endDate1, now)
	end2 := endOrNow(endDate2, now)

	maxStart := start1
	if start2.After(maxStart) {
		maxStart = start2
	}
	minEnd := end1
	if end2.Before(minEnd) {
		minEnd = end2
	}

	if minEnd.Before(maxStart) {
		return 0
	}
	return DaysBetween(maxStart, minEnd)
}

func endOrNow(s string, now time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return now
}
