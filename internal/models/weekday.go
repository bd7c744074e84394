package models

import (
	"strings"
	"time"
)

// Weekday is the canonical 7-value day enum used by the generation engine.
// Display-locale day names are normalized to this form at the ingestion
// boundary; core logic never branches on localized strings.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// weekdayAliases maps English and Indonesian day names onto the canonical enum.
var weekdayAliases = map[string]Weekday{
	"MONDAY":    Monday,
	"TUESDAY":   Tuesday,
	"WEDNESDAY": Wednesday,
	"THURSDAY":  Thursday,
	"FRIDAY":    Friday,
	"SATURDAY":  Saturday,
	"SUNDAY":    Sunday,
	"SENIN":     Monday,
	"SELASA":    Tuesday,
	"RABU":      Wednesday,
	"KAMIS":     Thursday,
	"JUMAT":     Friday,
	"JUM'AT":    Friday,
	"SABTU":     Saturday,
	"MINGGU":    Sunday,
	"AHAD":      Sunday,
}

var weekdayFromTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// ParseWeekday normalizes a day name to the canonical enum.
func ParseWeekday(raw string) (Weekday, bool) {
	day, ok := weekdayAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return day, ok
}

// WeekdayOf converts a calendar date to the canonical enum.
func WeekdayOf(t time.Time) Weekday {
	return weekdayFromTime[t.Weekday()]
}

// Valid reports whether the weekday holds one of the seven canonical values.
func (w Weekday) Valid() bool {
	switch w {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Matches reports whether the date falls on this weekday.
func (w Weekday) Matches(t time.Time) bool {
	return WeekdayOf(t) == w
}
