package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameDayUsesTheDaysLocation(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2025, 10, 20, 0, 0, 0, 0, denver)

	// 03:00 UTC on the 21st is still the evening of the 20th in Denver.
	utcEvening := time.Date(2025, 10, 21, 3, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(utcEvening, day))

	nextDay := time.Date(2025, 10, 21, 15, 0, 0, 0, time.UTC)
	assert.False(t, SameDay(nextDay, day))
}

func TestWithinDaysIsInclusive(t *testing.T) {
	from := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)

	assert.True(t, WithinDays(from, from, to))
	assert.True(t, WithinDays(to.Add(23*time.Hour), from, to))
	assert.False(t, WithinDays(from.Add(-time.Second), from, to))
	assert.False(t, WithinDays(to.AddDate(0, 0, 1), from, to))
}
