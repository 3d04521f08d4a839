package ledger

import (
	"context"

	"finpad/internal/core"
)

// Record is an expense as stored, with its ledger identity.
type Record struct {
	ID           int64 `json:"id"`
	core.Expense       // date, description, amount
}

// Suggestion is a ranked description-history entry for auto-complete.
type Suggestion struct {
	Text       string     `json:"text"`
	UseCount   int        `json:"use_count"`
	LastUsed   core.Date  `json:"last_used"`
	LastAmount core.Money `json:"last_amount"`
}

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Record(ctx context.Context, e core.Expense) (id int64, err error)
	}

	ExpenseDeleter interface {
		Delete(ctx context.Context, id int64) error
	}

	// ExpenseLister returns the detailed list of expenses for a given month,
	// in insertion order.
	ExpenseLister interface {
		ListMonth(ctx context.Context, month core.MonthKey) ([]Record, error)
	}

	// MonthReader provides aggregated month data. MonthTotal returns zero
	// for months with no records.
	MonthReader interface {
		MonthTotal(ctx context.Context, month core.MonthKey) (core.Money, error)
		Months(ctx context.Context) ([]core.MonthKey, error)
	}

	// Suggester serves description auto-complete. An empty prefix returns
	// the top entries overall.
	Suggester interface {
		Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error)
	}
)
