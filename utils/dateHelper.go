package utils

import (
	"fmt"
	"time"
)

const MonthKeyLayout = "2006-01"

// MonthStart truncates t to the first instant of its month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthKeys lists "YYYY-MM" keys from the month of from through the month of to, inclusive.
func MonthKeys(from, to time.Time) []string {
	var keys []string
	if to.Before(from) {
		return keys
	}
	end := MonthStart(to)
	for m := MonthStart(from); !m.After(end); m = m.AddDate(0, 1, 0) {
		keys = append(keys, m.Format(MonthKeyLayout))
	}
	return keys
}

// ParseDateRange parses YYYY-MM-DD bounds; empty values default to the current month.
// The returned end is exclusive (start of the day after toDate).
func ParseDateRange(fromDate, toDate string, now time.Time) (time.Time, time.Time, error) {
	from := MonthStart(now)
	to := from.AddDate(0, 1, -1)
	var err error
	if fromDate != "" {
		if from, err = time.ParseInLocation(time.DateOnly, fromDate, now.Location()); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", fromDate)
		}
	}
	if toDate != "" {
		if to, err = time.ParseInLocation(time.DateOnly, toDate, now.Location()); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", toDate)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date is earlier than from date")
	}
	return from, to.AddDate(0, 0, 1), nil
}
