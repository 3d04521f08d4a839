package adapters

import (
	"context"

	"finpad/internal/core"
	"finpad/internal/history"
	"finpad/internal/ledger"
	"finpad/internal/services"
	"finpad/internal/storage"
)

// SQLiteAdapter adapts SQLiteRepository, ExpenseService and the history
// service to the ledger ports. This allows the HTTP handlers to work
// unchanged while using the SQLite + AMQP backend.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.ExpenseService
	history *history.Service
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.ExpenseService, history *history.Service) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
		history: history,
	}
}

// Record implements ledger.ExpenseWriter
func (a *SQLiteAdapter) Record(ctx context.Context, e core.Expense) (int64, error) {
	return a.service.RecordExpense(ctx, e)
}

// Delete implements ledger.ExpenseDeleter
func (a *SQLiteAdapter) Delete(ctx context.Context, id int64) error {
	return a.service.DeleteExpense(ctx, id)
}

// ListMonth implements ledger.ExpenseLister
func (a *SQLiteAdapter) ListMonth(ctx context.Context, month core.MonthKey) ([]ledger.Record, error) {
	return a.storage.ListMonth(ctx, month)
}

// MonthTotal implements ledger.MonthReader
func (a *SQLiteAdapter) MonthTotal(ctx context.Context, month core.MonthKey) (core.Money, error) {
	return a.storage.MonthTotal(ctx, month)
}

// Months implements ledger.MonthReader
func (a *SQLiteAdapter) Months(ctx context.Context) ([]core.MonthKey, error) {
	return a.storage.Months(ctx)
}

// Suggest implements ledger.Suggester
func (a *SQLiteAdapter) Suggest(ctx context.Context, prefix string, limit int) ([]ledger.Suggestion, error) {
	return a.history.Suggest(ctx, prefix, limit)
}
