package core

import (
	"strings"
	"time"
)

// MonthKeyLayout is the wire format for month keys (e.g. "2025-10").
const MonthKeyLayout = "2006-01"

// MonthKey identifies a calendar month as "YYYY-MM". Months are the unit of
// browsing: the ledger is viewed one month at a time, and every month other
// than the current one is read-only (archive mode).
type MonthKey string

// MonthKeyOf returns the month key containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(MonthKeyLayout))
}

// ParseMonthKey parses and validates a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(MonthKeyLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return MonthKeyOf(t), nil
}

func (k MonthKey) String() string {
	return string(k)
}

// Time returns the first instant of the month (UTC).
func (k MonthKey) Time() time.Time {
	t, err := time.Parse(MonthKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// First returns the first day of the month.
func (k MonthKey) First() Date {
	t := k.Time()
	return NewDate(t.Year(), int(t.Month()), 1)
}

// Last returns the last day of the month.
func (k MonthKey) Last() Date {
	t := k.Time()
	// Day zero of the next month
	return Date{Time: time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)}
}

// Prev returns the previous month's key.
func (k MonthKey) Prev() MonthKey {
	return MonthKeyOf(k.Time().AddDate(0, -1, 0))
}

// Next returns the next month's key.
func (k MonthKey) Next() MonthKey {
	return MonthKeyOf(k.Time().AddDate(0, 1, 0))
}

// Contains reports whether d falls inside the month.
func (k MonthKey) Contains(d Date) bool {
	return MonthKeyOf(d.Time) == k
}

// DisplayName formats the month for humans, e.g. "October 2025".
func (k MonthKey) DisplayName() string {
	return k.Time().Format("January 2006")
}

// Year returns the calendar year of the month key.
func (k MonthKey) Year() int {
	return k.Time().Year()
}

// Month returns the month number (1-12).
func (k MonthKey) Month() int {
	return int(k.Time().Month())
}

// DaysIn returns the number of days in the month.
func (k MonthKey) DaysIn() int {
	return k.Last().Day()
}
