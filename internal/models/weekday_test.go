package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekdayNormalizesLocales(t *testing.T) {
	cases := map[string]Weekday{
		"monday":    Monday,
		"MONDAY":    Monday,
		" Senin ":   Monday,
		"jumat":     Friday,
		"Jum'at":    Friday,
		"minggu":    Sunday,
		"ahad":      Sunday,
		"WEDNESDAY": Wednesday,
		"rabu":      Wednesday,
	}
	for raw, want := range cases {
		got, ok := ParseWeekday(raw)
		require.True(t, ok, "input %q", raw)
		assert.Equal(t, want, got, "input %q", raw)
	}

	_, ok := ParseWeekday("someday")
	assert.False(t, ok)
}

func TestWeekdayMatches(t *testing.T) {
	monday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Monday.Matches(monday))
	assert.False(t, Tuesday.Matches(monday))
	assert.Equal(t, Monday, WeekdayOf(monday))
}

func TestWeekdayValid(t *testing.T) {
	assert.True(t, Saturday.Valid())
	assert.False(t, Weekday("SOMEDAY").Valid())
	assert.False(t, Weekday("").Valid())
}
