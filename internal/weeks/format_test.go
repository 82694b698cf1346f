package weeks

import (
	"testing"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2025-03-01", FormatDate(d))

	for _, invalid := range []string{"", "2025-3-1", "01.03.2025", "2025-13-01", "2025-02-30"} {
		_, err := ParseDate(invalid, time.UTC)
		assert.ErrorIs(t, err, apperr.ErrValidation, invalid)
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	h, m, err = ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	for _, invalid := range []string{"", "9", "24:00", "12:60", "12:5", "ab:cd", "123:00", "-1:00"} {
		_, _, err := ParseClock(invalid)
		assert.ErrorIs(t, err, apperr.ErrValidation, invalid)
	}
}

func TestFormatTime(t *testing.T) {
	s, err := FormatTime("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", s)

	s, err = FormatTime("23:59")
	require.NoError(t, err)
	assert.Equal(t, "23:59", s)

	_, err = FormatTime("25:00")
	assert.Error(t, err)

	assert.Equal(t, "14:30", FormatClock(time.Date(2025, 1, 1, 14, 30, 45, 0, time.UTC)))
	assert.Equal(t, "00:07", FormatClock(time.Date(2025, 1, 1, 0, 7, 0, 0, time.UTC)))
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		start, end string
		expected   string
	}{
		{"09:00", "10:30", "1h 30m"},
		{"09:00", "11:00", "2h"},
		{"09:00", "09:45", "45m"},
		{"09:00", "09:00", "0m"},
		{"23:00", "01:30", "2h 30m"},
		{"22:15", "22:00", "23h 45m"},
		{"", "10:00", ""},
		{"09:00", "nope", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, FormatDuration(tc.start, tc.end), tc.start+"-"+tc.end)
	}
}

func TestFormatTimeForDisplay(t *testing.T) {
	assert.Equal(t, "2:30 PM", FormatTimeForDisplay("14:30"))
	assert.Equal(t, "12:00 AM", FormatTimeForDisplay("00:00"))
	assert.Equal(t, "12:15 PM", FormatTimeForDisplay("12:15"))
	assert.Equal(t, "9:05 AM", FormatTimeForDisplay("09:05"))
	assert.Equal(t, "", FormatTimeForDisplay("later"))
}

func TestFormatDateForDisplay(t *testing.T) {
	assert.Equal(t, "Monday, Feb 24", FormatDateForDisplay(time.Date(2025, time.February, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Saturday, Mar 1", FormatDateForDisplay(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "", MonthName(13))
}
