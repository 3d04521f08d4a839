// Package http provides the JSON API server.
//
// This file implements utilities for parsing and validating HTTP request
// data: month selection, expense payloads (JSON or form-encoded), and
// input sanitization.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finpad/internal/core"
)

// maxBodyBytes caps request bodies; expense payloads and CSV imports are small.
const maxBodyBytes = 1 << 20

// parseMonthParam extracts the "month" query parameter (YYYY-MM),
// defaulting to the month containing now.
func parseMonthParam(query url.Values, now time.Time) (core.MonthKey, error) {
	raw := strings.TrimSpace(query.Get("month"))
	if raw == "" {
		return core.MonthKeyOf(now), nil
	}
	return core.ParseMonthKey(raw)
}

// expensePayload is the decoded body of an expense creation request.
type expensePayload struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// parseExpenseRequest decodes an expense creation body. JSON and
// form-encoded payloads are both accepted. A missing date defaults to
// today.
func parseExpenseRequest(r *http.Request, now time.Time) (core.Expense, error) {
	payload, err := decodeExpensePayload(r)
	if err != nil {
		return core.Expense{}, err
	}

	date := core.DateOf(now)
	if raw := strings.TrimSpace(payload.Date); raw != "" {
		date, err = core.ParseDate(raw)
		if err != nil {
			return core.Expense{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
		}
	}

	amountRaw := strings.TrimSpace(payload.Amount)
	if amountRaw == "" {
		return core.Expense{}, errors.New("missing amount")
	}
	cents, err := core.ParseDecimalToCents(amountRaw)
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid amount %q: %w", amountRaw, err)
	}

	e := core.Expense{
		Date:        date,
		Description: sanitizeInput(payload.Description),
		Amount:      core.Money{Cents: cents},
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func decodeExpensePayload(r *http.Request) (expensePayload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return expensePayload{}, fmt.Errorf("read body: %w", err)
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return expensePayload{}, errors.New("empty body")
	}

	if trimmed[0] == '{' {
		var p expensePayload
		if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
			return expensePayload{}, fmt.Errorf("invalid JSON body: %w", err)
		}
		return p, nil
	}

	form, err := url.ParseQuery(trimmed)
	if err != nil {
		return expensePayload{}, fmt.Errorf("invalid form body: %w", err)
	}
	return expensePayload{
		Date:        form.Get("date"),
		Description: form.Get("description"),
		Amount:      form.Get("amount"),
	}, nil
}

// parseLimitParam extracts a positive "limit" query parameter; zero
// means "use the server default".
func parseLimitParam(query url.Values) int {
	raw := strings.TrimSpace(query.Get("limit"))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
