// Expense analytics: pure date-windowed aggregation over expense records.
//
// Every function takes the records and an explicit reference time and has no
// side effects. Records with a zero date are skipped by the filters, so a
// record whose date failed to parse upstream simply drops out of every
// window instead of poisoning a calculation.
package core

import (
	"sort"
	"time"
)

// Trend directions for month-over-month comparison.
const (
	TrendIncrease TrendDirection = "increase"
	TrendDecrease TrendDirection = "decrease"
	TrendSimilar  TrendDirection = "similar"
)

// Totals within this percentage of each other count as "similar".
const trendSimilarThreshold = 5.0

type (
	TrendDirection string

	// TrendIndicator categorizes the change between two monthly totals.
	TrendIndicator struct {
		Direction  TrendDirection `json:"direction"`
		Symbol     string         `json:"symbol"`
		Percentage float64        `json:"percentage"`
		Color      string         `json:"color"`
	}

	// Window is an inclusive [Start, End] date range. A zero Start means no
	// lower bound; a zero End means "everything up to the reference time"
	// (future records excluded).
	Window struct {
		Start Date
		End   Date
	}
)

// FilterByRange returns the records whose dates fall inside w. When w.End is
// zero, records after the reference date are excluded.
func FilterByRange(expenses []Expense, w Window, now time.Time) []Expense {
	ref := DateOf(now)
	var out []Expense
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		if !w.Start.IsZero() && e.Date.Before(w.Start) {
			continue
		}
		if !w.End.IsZero() {
			if e.Date.After(w.End) {
				continue
			}
		} else if e.Date.After(ref) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterByMonth returns the records of the month containing at. With
// excludeFuture, records after at are dropped; otherwise the whole month
// counts.
func FilterByMonth(expenses []Expense, at time.Time, excludeFuture bool) []Expense {
	key := MonthKeyOf(at)
	end := key.Last()
	if excludeFuture {
		end = DateOf(at)
	}
	return FilterByRange(expenses, Window{Start: key.First(), End: end}, at)
}

// FilterByWeek returns the records of the ISO week (Monday through Sunday)
// containing at. With excludeFuture, records after at are dropped.
func FilterByWeek(expenses []Expense, at time.Time, excludeFuture bool) []Expense {
	start := weekStart(at)
	end := Date{Time: start.AddDate(0, 0, 6)}
	if excludeFuture {
		end = DateOf(at)
	}
	return FilterByRange(expenses, Window{Start: Date{Time: start}, End: end}, at)
}

// FilterPast drops records dated after now.
func FilterPast(expenses []Expense, now time.Time) []Expense {
	return FilterByRange(expenses, Window{}, now)
}

// Sum adds up the amounts of the given records.
func Sum(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return Money{Cents: total}
}

// DayProgress returns the current day and the number of days in the month.
func DayProgress(now time.Time) (day, daysInMonth int) {
	return now.Day(), MonthKeyOf(now).DaysIn()
}

// WeekProgress returns the position in the month as a decimal week number
// (week 1 covers days 1-7; the decimal part walks through the week) and the
// total number of weeks in the month.
func WeekProgress(now time.Time) (preciseWeek float64, totalWeeks int) {
	day := now.Day()
	baseWeek := (day-1)/7 + 1
	dayInWeek := (day - 1) % 7
	preciseWeek = float64(baseWeek) + float64(dayInWeek)/10.0

	daysInMonth := MonthKeyOf(now).DaysIn()
	totalWeeks = daysInMonth / 7
	if daysInMonth%7 > 0 {
		totalWeeks++
	}
	return preciseWeek, totalWeeks
}

// DailyAverage computes the month total divided by the days elapsed so far.
func DailyAverage(expenses []Expense, now time.Time) (Money, int) {
	if len(expenses) == 0 {
		return Money{}, 0
	}
	total := Sum(FilterByMonth(expenses, now, true))
	days := now.Day()
	return Money{Cents: divRoundHalfUp(total.Cents, int64(days))}, days
}

// WeeklyAverage computes the month total divided by the weeks elapsed so far,
// where week N covers days 7N-6 through 7N.
func WeeklyAverage(expenses []Expense, now time.Time) (Money, int) {
	if len(expenses) == 0 {
		return Money{}, 0
	}
	total := Sum(FilterByMonth(expenses, now, true))
	weeks := (now.Day()-1)/7 + 1
	return Money{Cents: divRoundHalfUp(total.Cents, int64(weeks))}, weeks
}

// WeeklyPace computes the current ISO week's spend divided by the days
// elapsed in that week (Monday through now, inclusive).
func WeeklyPace(expenses []Expense, now time.Time) (Money, int) {
	if len(expenses) == 0 {
		return Money{}, 0
	}
	total := Sum(FilterByWeek(expenses, now, true))
	days := mondayIndex(now) + 1
	return Money{Cents: divRoundHalfUp(total.Cents, int64(days))}, days
}

// Median returns the median amount among past records and how many records
// were considered. An even count averages the two middle values, rounding
// half-up to a whole cent.
func Median(expenses []Expense, now time.Time) (Money, int) {
	past := FilterPast(expenses, now)
	if len(past) == 0 {
		return Money{}, 0
	}
	amounts := make([]int64, len(past))
	for i, e := range past {
		amounts[i] = e.Amount.Cents
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	n := len(amounts)
	if n%2 == 1 {
		return Money{Cents: amounts[n/2]}, n
	}
	return Money{Cents: divRoundHalfUp(amounts[n/2-1]+amounts[n/2], 2)}, n
}

// Largest returns the biggest past record's amount and description.
func Largest(expenses []Expense, now time.Time) (Money, string) {
	past := FilterPast(expenses, now)
	if len(past) == 0 {
		return Money{}, "No expenses"
	}
	max := past[0]
	for _, e := range past[1:] {
		if e.Amount.Cents > max.Amount.Cents {
			max = e
		}
	}
	return max.Amount, max.Description
}

// Trend compares the current month total against the previous month's.
// It returns nil when there is no previous total to compare against.
func Trend(current, previous Money) *TrendIndicator {
	if previous.Cents <= 0 {
		return nil
	}
	diff := current.Cents - previous.Cents
	pct := float64(diff) / float64(previous.Cents) * 100
	if pct < 0 {
		pct = -pct
	}
	switch {
	case pct < trendSimilarThreshold:
		return &TrendIndicator{Direction: TrendSimilar, Symbol: "≈", Percentage: pct, Color: "#999999"}
	case diff > 0:
		return &TrendIndicator{Direction: TrendIncrease, Symbol: "▲", Percentage: pct, Color: "#C00000"}
	default:
		return &TrendIndicator{Direction: TrendDecrease, Symbol: "▼", Percentage: pct, Color: "#666666"}
	}
}

// ContextDate is the reference time analytics should use for a viewed month:
// the wall clock for the current month, the month's last day in archive mode.
func ContextDate(viewed MonthKey, now time.Time) time.Time {
	if viewed == MonthKeyOf(now) {
		return now
	}
	return viewed.Last().Time
}

// weekStart returns the Monday of the week containing t, at UTC midnight.
func weekStart(t time.Time) time.Time {
	d := DateOf(t)
	return d.AddDate(0, 0, -mondayIndex(t))
}

// mondayIndex maps Monday..Sunday to 0..6.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
