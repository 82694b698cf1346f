package weeks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
)

const DateLayout = "2006-01-02"

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date, at midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock parses a 24h "HH:MM" (or "H:MM") wall clock time
func ParseClock(s string) (hours, minutes int, err error) {
	hoursStr, minutesStr, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || hoursStr == "" || len(minutesStr) != 2 || len(hoursStr) > 2 {
		return 0, 0, apperr.Validation("invalid time %q, expected HH:MM", s)
	}
	hours, err = strconv.Atoi(hoursStr)
	if err != nil || hours < 0 || hours > 23 {
		return 0, 0, apperr.Validation("invalid hours in time %q", s)
	}
	minutes, err = strconv.Atoi(minutesStr)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, 0, apperr.Validation("invalid minutes in time %q", s)
	}
	return hours, minutes, nil
}

// FormatClock returns the HH:MM wall clock of t
func FormatClock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// FormatTime normalizes "9:05" to "09:05"
func FormatTime(s string) (string, error) {
	hours, minutes, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// FormatDuration returns the length of a session as "1h 30m", "2h" or "45m".
// An end before the start means the session ends the next day.
// Empty string is returned for invalid times.
func FormatDuration(startTime, endTime string) string {
	startHours, startMinutes, err := ParseClock(startTime)
	if err != nil {
		return ""
	}
	endHours, endMinutes, err := ParseClock(endTime)
	if err != nil {
		return ""
	}

	duration := (endHours*60 + endMinutes) - (startHours*60 + startMinutes)
	if duration < 0 {
		duration += 24 * 60
	}

	hours, minutes := duration/60, duration%60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatTimeForDisplay turns "14:30" into "2:30 PM"
func FormatTimeForDisplay(s string) string {
	hours, minutes, err := ParseClock(s)
	if err != nil {
		return ""
	}
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	hours %= 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d %s", hours, minutes, ampm)
}

// FormatDateForDisplay formats t like "Monday, Feb 24"
func FormatDateForDisplay(t time.Time) string {
	return t.Format("Monday, Jan 2")
}

func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
