package academic

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format for calendar dates.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into midnight UTC of that calendar day.
func ParseDay(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	day, err := time.Parse(DayLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must use YYYY-MM-DD format")
	}
	return day, nil
}

// CivilDay truncates t to midnight UTC of the calendar day it carries in its own location.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDay(now.In(loc))
}

// DaysUntil counts whole calendar days from today to day. Past days are negative.
func DaysUntil(day, today time.Time) int {
	return int(CivilDay(day).Sub(CivilDay(today)).Hours() / 24)
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return CivilDay(t).Format(DayLayout)
}
