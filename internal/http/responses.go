package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"finpad/internal/core"
	"finpad/internal/ledger"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// moneyStat is an amount in both machine and display form.
type moneyStat struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func newMoneyStat(m core.Money) moneyStat {
	return moneyStat{Cents: m.Cents, Display: m.Format()}
}

// averageStat is an average amount plus the divisor that produced it.
type averageStat struct {
	moneyStat
	Over int `json:"over"`
}

// overviewResponse is the month dashboard: totals, averages and
// progress for one month, with the trend against the previous one.
type overviewResponse struct {
	Month       string `json:"month"`
	DisplayName string `json:"display_name"`
	Archive     bool   `json:"archive"`
	ContextDate string `json:"context_date"`

	Total moneyStat `json:"total"`
	Count int       `json:"count"`

	DailyAverage  averageStat `json:"daily_average"`
	WeeklyAverage averageStat `json:"weekly_average"`
	WeeklyPace    averageStat `json:"weekly_pace"`
	Median        averageStat `json:"median"`

	Largest struct {
		moneyStat
		Description string `json:"description"`
	} `json:"largest"`

	DayProgress struct {
		Day         int `json:"day"`
		DaysInMonth int `json:"days_in_month"`
	} `json:"day_progress"`

	WeekProgress struct {
		Week       float64 `json:"week"`
		TotalWeeks int     `json:"total_weeks"`
	} `json:"week_progress"`

	PreviousTotal moneyStat            `json:"previous_total"`
	Trend         *core.TrendIndicator `json:"trend,omitempty"`
}

// expenseListResponse is the detailed expense list of a month.
type expenseListResponse struct {
	Month    string          `json:"month"`
	Expenses []ledger.Record `json:"expenses"`
	Total    moneyStat       `json:"total"`
}

// recordedResponse confirms an expense creation.
type recordedResponse struct {
	ID int64 `json:"id"`
}

// importResponse summarizes a CSV import.
type importResponse struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
