package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayNumber(t *testing.T) {
	sunday := time.Date(2020, time.March, 22, 10, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)
	saturday := sunday.AddDate(0, 0, 6)

	assert.Equal(t, 7, WeekdayNumber(sunday))
	assert.Equal(t, 1, WeekdayNumber(monday))
	assert.Equal(t, 6, WeekdayNumber(saturday))
}

func TestInReferenceZone(t *testing.T) {
	// 02:30 UTC on a Monday is still Sunday evening in New York.
	instant := time.Date(2020, time.March, 23, 2, 30, 0, 0, time.UTC)
	local := InReferenceZone(instant)

	assert.Equal(t, 7, WeekdayNumber(local))
	assert.Equal(t, "22:30:00", FormatTimeOfDay(local))
	assert.Equal(t, ReferenceTimeZone, local.Location().String())
}

func TestParseDateTime(t *testing.T) {
	sundayTen := time.Date(2024, time.June, 9, 10, 0, 0, 0, ReferenceLocation())

	cases := map[string]time.Time{
		"2024-06-09T14:00:00Z":          sundayTen,
		"2024-06-09T10:00:00-04:00":     sundayTen,
		"2024-06-09T10:00:00":           sundayTen,
		"2024-06-09T10:00":              sundayTen,
		"2024-06-09T10:00:00.000":       sundayTen,
		"2024-06-09":                    time.Date(2024, time.June, 9, 0, 0, 0, 0, ReferenceLocation()),
		"2024-06-09T14:00:00.500+00:00": sundayTen.Add(500 * time.Millisecond),
	}
	for input, want := range cases {
		got, err := ParseDateTime(input)
		require.NoError(t, err, input)
		assert.True(t, want.Equal(got), "%s parsed as %s", input, got)
	}

	for _, input := range []string{"", "tomorrow", "2024-06-09 10:00", "10:00"} {
		_, err := ParseDateTime(input)
		assert.Error(t, err, input)
	}
}

func TestParseWeekday(t *testing.T) {
	n, err := ParseWeekday("Sunday")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = ParseWeekday(" monday ")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ParseWeekday("Funday")
	assert.Error(t, err)
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Wednesday", WeekdayName(3))
	assert.Equal(t, "", WeekdayName(9))
}

func TestNormalizeClock(t *testing.T) {
	v, err := NormalizeClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, "08:30:00", v)

	v, err = NormalizeClock("23:59:59")
	require.NoError(t, err)
	assert.Equal(t, "23:59:59", v)

	for _, bad := range []string{"8:30", "25:00", "ab:cd", ""} {
		_, err := NormalizeClock(bad)
		assert.Error(t, err, bad)
	}
}
