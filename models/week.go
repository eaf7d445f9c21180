package models

import (
	"fmt"
	"time"
)

// WeekLayout is the date format of week keys.
const WeekLayout = "2006-01-02"

// WeekStart returns the Monday of the week containing t, observed in loc,
// formatted as YYYY-MM-DD.
func WeekStart(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7 // Monday = 0
	monday := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	return monday.Format(WeekLayout)
}

// ParseWeek validates a week key. It must be a real date that falls on a
// Monday.
func ParseWeek(week string) (string, error) {
	d, err := time.Parse(WeekLayout, week)
	if err != nil {
		return "", fmt.Errorf("week must be a date in YYYY-MM-DD format")
	}
	if d.Weekday() != time.Monday {
		return "", fmt.Errorf("week must start on a Monday")
	}
	return d.Format(WeekLayout), nil
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(WeekLayout, s)
	return err == nil
}
