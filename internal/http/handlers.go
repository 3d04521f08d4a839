package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finpad/internal/core"
	"finpad/internal/csvio"
	"finpad/internal/ledger"
	"finpad/internal/ledger/memory"
	"finpad/internal/storage"
)

const defaultSuggestionLimit = 5

// handleOverview serves GET /api/overview?month=YYYY-MM: the month
// dashboard with totals, averages, progress and the month-over-month
// trend. Months other than the current one are served in archive mode,
// with the month's last day as the reference date.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	month, err := parseMonthParam(r.URL.Query(), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month (want YYYY-MM)")
		return
	}

	cacheKey := overviewCacheKey(month)
	if cached, ok := s.overviewCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	records, err := s.ledger.ListMonth(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview list error", "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load month")
		return
	}

	prevTotal, err := s.ledger.MonthTotal(r.Context(), month.Prev())
	if err != nil {
		slog.ErrorContext(r.Context(), "Previous month total error", "month", month.Prev(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load month")
		return
	}

	resp := buildOverview(month, records, prevTotal, now)
	s.overviewCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func buildOverview(month core.MonthKey, records []ledger.Record, prevTotal core.Money, now time.Time) overviewResponse {
	at := core.ContextDate(month, now)

	expenses := make([]core.Expense, len(records))
	for i, rec := range records {
		expenses[i] = rec.Expense
	}

	counted := core.FilterByMonth(expenses, at, true)
	total := core.Sum(counted)

	daily, days := core.DailyAverage(expenses, at)
	weekly, weeks := core.WeeklyAverage(expenses, at)
	pace, paceDays := core.WeeklyPace(expenses, at)
	median, medianCount := core.Median(expenses, at)
	largestAmount, largestDesc := core.Largest(expenses, at)
	day, daysInMonth := core.DayProgress(at)
	week, totalWeeks := core.WeekProgress(at)

	resp := overviewResponse{
		Month:       month.String(),
		DisplayName: month.DisplayName(),
		Archive:     month != core.MonthKeyOf(now),
		ContextDate: core.DateOf(at).String(),

		Total: newMoneyStat(total),
		Count: len(counted),

		DailyAverage:  averageStat{moneyStat: newMoneyStat(daily), Over: days},
		WeeklyAverage: averageStat{moneyStat: newMoneyStat(weekly), Over: weeks},
		WeeklyPace:    averageStat{moneyStat: newMoneyStat(pace), Over: paceDays},
		Median:        averageStat{moneyStat: newMoneyStat(median), Over: medianCount},

		PreviousTotal: newMoneyStat(prevTotal),
		Trend:         core.Trend(total, prevTotal),
	}
	resp.Largest.moneyStat = newMoneyStat(largestAmount)
	resp.Largest.Description = largestDesc
	resp.DayProgress.Day = day
	resp.DayProgress.DaysInMonth = daysInMonth
	resp.WeekProgress.Week = week
	resp.WeekProgress.TotalWeeks = totalWeeks
	return resp
}

// handleListExpenses serves GET /api/expenses?month=YYYY-MM.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	month, err := parseMonthParam(r.URL.Query(), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month (want YYYY-MM)")
		return
	}

	records, ok := s.listCache.Get(listCacheKey(month))
	if !ok {
		records, err = s.ledger.ListMonth(r.Context(), month)
		if err != nil {
			slog.ErrorContext(r.Context(), "Expense list error", "month", month, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load expenses")
			return
		}
		s.listCache.Set(listCacheKey(month), records)
	}

	var total core.Money
	for _, rec := range records {
		total.Cents += rec.Amount.Cents
	}

	writeJSON(w, http.StatusOK, expenseListResponse{
		Month:    month.String(),
		Expenses: records,
		Total:    newMoneyStat(total),
	})
}

// handleCreateExpense serves POST /api/expenses. Only the current month
// accepts new expenses; archived months are read-only.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	e, err := parseExpenseRequest(r, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	month := core.MonthKeyOf(e.Date.Time)
	if month != core.MonthKeyOf(now) {
		writeError(w, http.StatusConflict, "archived months are read-only")
		return
	}

	id, err := s.ledger.Record(r.Context(), e)
	if err != nil {
		slog.ErrorContext(r.Context(), "Record expense error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record expense")
		return
	}

	s.invalidateMonth(month)
	writeJSON(w, http.StatusCreated, recordedResponse{ID: id})
}

// handleDeleteExpense serves DELETE /api/expenses/{id}. Deletion is only
// allowed for expenses in the current month.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	now := s.now()
	current := core.MonthKeyOf(now)

	// Reject deletes that reach into archived months.
	records, err := s.ledger.ListMonth(r.Context(), current)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete lookup error", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusConflict, "expense not found in the current month; archived months are read-only")
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, memory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete expense error", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	s.invalidateMonth(current)
	w.WriteHeader(http.StatusNoContent)
}

// handleMonths serves GET /api/months: every month with at least one
// expense, newest first, always including the current month.
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.ledger.Months(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Months list error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load months")
		return
	}

	current := core.MonthKeyOf(s.now())
	hasCurrent := false
	for _, m := range months {
		if m == current {
			hasCurrent = true
			break
		}
	}
	if !hasCurrent {
		months = append([]core.MonthKey{current}, months...)
	}

	type monthEntry struct {
		Month       string `json:"month"`
		DisplayName string `json:"display_name"`
		Archive     bool   `json:"archive"`
	}
	out := make([]monthEntry, len(months))
	for i, m := range months {
		out[i] = monthEntry{
			Month:       m.String(),
			DisplayName: m.DisplayName(),
			Archive:     m != current,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSuggestions serves GET /api/suggestions?q=prefix&limit=n.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	prefix := sanitizeInput(r.URL.Query().Get("q"))
	limit := parseLimitParam(r.URL.Query())
	if limit == 0 {
		limit = defaultSuggestionLimit
	}

	suggestions, err := s.ledger.Suggest(r.Context(), prefix, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Suggestions error", "prefix", prefix, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []ledger.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// handleExport serves GET /api/export?month=YYYY-MM as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthParam(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month (want YYYY-MM)")
		return
	}

	records, err := s.ledger.ListMonth(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export list error", "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export month")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "expenses-"+month.String()+".csv"))
	if err := csvio.WriteCSV(w, records); err != nil {
		slog.ErrorContext(r.Context(), "Export write error", "month", month, "error", err)
	}
}

// handleImport serves POST /api/import with a CSV body. Rows with
// errors are skipped and reported; valid rows are recorded. Import is a
// restore tool, so rows may target any month.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		writeError(w, http.StatusBadRequest, "empty body")
		return
	}

	expenses, rowErrors := csvio.ParseCSV(string(body))

	imported := 0
	for _, e := range expenses {
		if _, err := s.ledger.Record(r.Context(), e); err != nil {
			slog.ErrorContext(r.Context(), "Import record error", "description", e.Description, "error", err)
			rowErrors = append(rowErrors, fmt.Sprintf("%s %q: not recorded", e.Date, e.Description))
			continue
		}
		imported++
	}

	// Imported rows may land in any month.
	s.overviewCache.InvalidatePrefix("")
	s.listCache.InvalidatePrefix("")

	status := http.StatusOK
	if imported == 0 && len(rowErrors) > 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, importResponse{Imported: imported, Errors: rowErrors})
}

func overviewCacheKey(month core.MonthKey) string {
	return "overview:" + month.String()
}

func listCacheKey(month core.MonthKey) string {
	return "list:" + month.String()
}

// invalidateMonth drops every cached view touched by a mutation in
// month: the month itself and the next month, whose trend compares
// against it.
func (s *Server) invalidateMonth(month core.MonthKey) {
	for _, m := range []core.MonthKey{month, month.Next()} {
		s.overviewCache.Delete(overviewCacheKey(m))
	}
	s.listCache.Delete(listCacheKey(month))
}
