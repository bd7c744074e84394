package engine

import (
	"time"

	"github.com/campusops/meetgen-api/internal/models"
)

// EnumerateDates walks day-by-day from start to end (inclusive) and returns
// the ordered dates falling on the target weekday. When max > 0 enumeration
// stops after max dates. If the start date's weekday does not match, the
// first emitted date is the next matching weekday at or after start. An empty
// slice is returned when no date in range matches.
func EnumerateDates(start, end time.Time, day models.Weekday, max int) []time.Time {
	var dates []time.Time
	if end.Before(start) {
		return dates
	}

	cursor := truncateToDate(start)
	last := truncateToDate(end)
	for !cursor.After(last) {
		if day.Matches(cursor) {
			dates = append(dates, cursor)
			if max > 0 && len(dates) >= max {
				break
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return dates
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
