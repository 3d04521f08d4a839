// Package csvio reads and writes the expense interchange format:
// a CSV with a "Date,Description,Amount" header, dates in ISO-8601
// and amounts as decimal currency strings.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"finpad/internal/core"
	"finpad/internal/ledger"
)

var header = []string{"Date", "Description", "Amount"}

var centsPerUnit = decimal.NewFromInt(100)

// ParseCSV parses expenses from a CSV string.
// It returns a list of expenses and a list of error messages for invalid rows.
func ParseCSV(content string) ([]core.Expense, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read CSV: %v", err)}
	}

	if len(records) < 2 {
		return []core.Expense{}, nil // Empty or header-only
	}

	headers := parseHeaders(records[0])
	var expenses []core.Expense
	var errors []string

	for i, record := range records[1:] {
		rowNum := i + 2
		if len(record) < len(headers) {
			errors = append(errors, fmt.Sprintf("Row %d: Not enough fields", rowNum))
			continue
		}

		rowMap := make(map[string]string)
		for j, h := range headers {
			if j < len(record) {
				rowMap[h] = strings.TrimSpace(record[j])
			}
		}

		e, err := mapToExpense(rowMap)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		expenses = append(expenses, *e)
	}

	return expenses, errors
}

func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

func mapToExpense(row map[string]string) (*core.Expense, error) {
	dateStr := row["Date"]
	if dateStr == "" {
		return nil, fmt.Errorf("missing Date")
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Date format: %s", dateStr)
	}

	description := row["Description"]
	if description == "" {
		return nil, fmt.Errorf("missing Description")
	}

	amountStr := row["Amount"]
	if amountStr == "" {
		return nil, fmt.Errorf("missing Amount")
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Amount: %s", amountStr)
	}

	e := core.Expense{Date: date, Description: description, Amount: amount}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// parseAmount converts a decimal currency string to cents, rounding
// anything past two decimal places half up.
func parseAmount(s string) (core.Money, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil {
		return core.Money{}, err
	}
	cents := d.Mul(centsPerUnit).Round(0)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return core.Money{}, fmt.Errorf("amount out of range")
	}
	return core.Money{Cents: cents.IntPart()}, nil
}

// WriteCSV writes records to w in the interchange format, header first.
func WriteCSV(w io.Writer, records []ledger.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Date.String(),
			rec.Description,
			formatAmount(rec.Amount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(m core.Money) string {
	return decimal.NewFromInt(m.Cents).Div(centsPerUnit).StringFixed(2)
}
