package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/meetgen-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEnumerateDatesMondaysOfJanuary(t *testing.T) {
	dates := EnumerateDates(date(2024, time.January, 1), date(2024, time.January, 31), models.Monday, 0)

	require.Len(t, dates, 5)
	expected := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 8),
		date(2024, time.January, 15),
		date(2024, time.January, 22),
		date(2024, time.January, 29),
	}
	assert.Equal(t, expected, dates)
}

func TestEnumerateDatesSkipsToFirstMatch(t *testing.T) {
	// 2024-01-01 is a Monday; the first Wednesday is the 3rd.
	dates := EnumerateDates(date(2024, time.January, 1), date(2024, time.January, 31), models.Wednesday, 0)

	require.NotEmpty(t, dates)
	assert.Equal(t, date(2024, time.January, 3), dates[0])
}

func TestEnumerateDatesCappedAtMax(t *testing.T) {
	dates := EnumerateDates(date(2024, time.January, 1), date(2024, time.June, 30), models.Monday, 3)

	assert.Len(t, dates, 3)
}

func TestEnumerateDatesNoMatchInRange(t *testing.T) {
	// One-day range on a Monday, asking for Friday.
	dates := EnumerateDates(date(2024, time.January, 1), date(2024, time.January, 1), models.Friday, 0)

	assert.Empty(t, dates)
}

func TestEnumerateDatesInvertedRange(t *testing.T) {
	dates := EnumerateDates(date(2024, time.February, 1), date(2024, time.January, 1), models.Monday, 0)

	assert.Empty(t, dates)
}
