package weeks

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
)

const day = 24 * time.Hour

// YearWeek identifies a week of a year, written as "YYYY-W" (week not zero padded).
// Week numbers follow the scheduler's own numbering, see Current.
type YearWeek struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// ParseYearWeek parses "2025-7" (or the zero padded "2025-07")
func ParseYearWeek(s string) (YearWeek, error) {
	yearStr, weekStr, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		return YearWeek{}, apperr.Validation("invalid year-week %q, expected YYYY-W", s)
	}
	if len(yearStr) != 4 || !isDigits(yearStr) {
		return YearWeek{}, apperr.Validation("invalid year in year-week %q", s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return YearWeek{}, apperr.Validation("invalid year in year-week %q", s)
	}
	if len(weekStr) > 2 || !isDigits(weekStr) {
		return YearWeek{}, apperr.Validation("invalid week in year-week %q, expected 1-53", s)
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil || week < 1 || week > 53 {
		return YearWeek{}, apperr.Validation("invalid week in year-week %q, expected 1-53", s)
	}
	return YearWeek{Year: year, Week: week}, nil
}

// isDigits reports whether s is a non-empty run of ASCII digits, no sign allowed
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (yw YearWeek) String() string {
	return fmt.Sprintf("%d-%d", yw.Year, yw.Week)
}

// Current returns the week now falls into:
//
//	week = ceil((days since Jan 1 + weekday of Jan 1) / 7)
//
// This is not ISO 8601 week numbering. Stored schedules are keyed by it,
// so it must not change. Week 0 belongs to week 52 of the previous year,
// and week 53 becomes week 1 of the next year during its last 3 days.
func Current(now time.Time) YearWeek {
	year := now.Year()
	startOfYear := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
	dayOfYear := now.YearDay() - 1

	week := int(math.Ceil(float64(dayOfYear+int(startOfYear.Weekday())) / 7))

	if week == 0 {
		return YearWeek{Year: year - 1, Week: 52}
	}

	if week == 53 {
		firstDayOfNextYear := time.Date(year+1, time.January, 1, 0, 0, 0, 0, now.Location())
		if !now.Before(firstDayOfNextYear.Add(-3 * day)) {
			return YearWeek{Year: year + 1, Week: 1}
		}
	}

	return YearWeek{Year: year, Week: week}
}

// Previous wraps within weeks 1..52
func (yw YearWeek) Previous() YearWeek {
	yw.Week--
	if yw.Week < 1 {
		yw.Year--
		yw.Week = 52
	}
	return yw
}

// Next wraps within weeks 1..52, so week 53 is never reached by navigation
func (yw YearWeek) Next() YearWeek {
	yw.Week++
	if yw.Week > 52 {
		yw.Year++
		yw.Week = 1
	}
	return yw
}

type DateRange struct {
	Start     time.Time
	End       time.Time
	Formatted string
}

// DateRange returns the Monday to Sunday span around day 1+(week-1)*7 of the year,
// formatted as "D/M - D/M YYYY".
func (yw YearWeek) DateRange(loc *time.Location) DateRange {
	simple := time.Date(yw.Year, time.January, 1+(yw.Week-1)*7, 0, 0, 0, 0, loc)
	dayOfWeek := int(simple.Weekday())

	var start time.Time
	if dayOfWeek <= 4 {
		start = simple.AddDate(0, 0, 1-dayOfWeek)
	} else {
		start = simple.AddDate(0, 0, 8-dayOfWeek)
	}
	end := start.AddDate(0, 0, 6)

	return DateRange{
		Start: start,
		End:   end,
		Formatted: fmt.Sprintf(
			"%d/%d - %d/%d %d",
			start.Day(), int(start.Month()), end.Day(), int(end.Month()), yw.Year,
		),
	}
}

// StartOfWeek returns midnight of the first day of the week t is in,
// weeks starting on startDay.
func StartOfWeek(t time.Time, startDay time.Weekday) time.Time {
	weekday := int(t.Weekday())
	diff := weekday - int(startDay)
	if diff < 0 {
		diff += 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-diff, 0, 0, 0, 0, t.Location())
}

// EndOfWeek returns the last millisecond of the week t is in
func EndOfWeek(t time.Time, startDay time.Weekday) time.Time {
	start := StartOfWeek(t, startDay)
	return time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
