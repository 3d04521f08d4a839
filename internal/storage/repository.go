package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finpad/internal/core"
	"finpad/internal/ledger"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an expense id does not exist or is already deleted.
var ErrNotFound = errors.New("expense not found")

// Mirror states for the external sheet sync.
const (
	MirrorPending = "pending"
	MirrorDone    = "done"
	MirrorError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Record implements ledger.ExpenseWriter
func (r *SQLiteRepository) Record(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount_cents) VALUES (?, ?, ?)`,
		e.Date.String(), e.Description, e.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return id, nil
}

// Delete implements ledger.ExpenseDeleter by soft-deleting the row.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (ledger.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, description, amount_cents FROM expenses WHERE id = ? AND deleted_at IS NULL`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Record{}, ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("get expense: %w", err)
	}
	return rec, nil
}

// ListMonth implements ledger.ExpenseLister
func (r *SQLiteRepository) ListMonth(ctx context.Context, month core.MonthKey) ([]ledger.Record, error) {
	first, last := month.First(), month.Last()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount_cents FROM expenses
		 WHERE date >= ? AND date <= ? AND deleted_at IS NULL
		 ORDER BY date, id`,
		first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("list month expenses: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// MonthTotal implements ledger.MonthReader
func (r *SQLiteRepository) MonthTotal(ctx context.Context, month core.MonthKey) (core.Money, error) {
	first, last := month.First(), month.Last()

	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE date >= ? AND date <= ? AND deleted_at IS NULL`,
		first.String(), last.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("get month total: %w", err)
	}

	return core.Money{Cents: cents}, nil
}

// Months implements ledger.MonthReader, newest month first.
func (r *SQLiteRepository) Months(ctx context.Context) ([]core.MonthKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT substr(date, 1, 7) AS month FROM expenses
		 WHERE deleted_at IS NULL
		 ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	defer rows.Close()

	var months []core.MonthKey
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		month, err := core.ParseMonthKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", raw, err)
		}
		months = append(months, month)
	}
	return months, rows.Err()
}

// PendingMirror returns expenses not yet synced to the external sheet.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]ledger.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount_cents FROM expenses
		 WHERE mirror_state = ? AND deleted_at IS NULL
		 ORDER BY id
		 LIMIT ?`,
		MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror expenses: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	return r.setMirrorState(ctx, id, MirrorDone)
}

func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id int64) error {
	return r.setMirrorState(ctx, id, MirrorError)
}

func (r *SQLiteRepository) setMirrorState(ctx context.Context, id int64, state string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET mirror_state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("set mirror state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set mirror state: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertDescription records one use of a description. Matching is
// case-insensitive, so "Coffee" and "coffee" share a single entry.
func (r *SQLiteRepository) UpsertDescription(ctx context.Context, description string, amount core.Money, usedOn core.Date) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO description_history (description, use_count, last_used, last_amount_cents)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(description) DO UPDATE SET
		     use_count = use_count + 1,
		     last_used = excluded.last_used,
		     last_amount_cents = excluded.last_amount_cents`,
		description, usedOn.String(), amount.Cents)
	if err != nil {
		return fmt.Errorf("upsert description: %w", err)
	}
	return nil
}

// TopDescriptions implements ledger.Suggester. An empty prefix matches
// every entry; ordering is most used first, most recent breaking ties.
func (r *SQLiteRepository) TopDescriptions(ctx context.Context, prefix string, limit int) ([]ledger.Suggestion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT description, use_count, last_used, last_amount_cents FROM description_history
		 WHERE description LIKE ? ESCAPE '\'
		 ORDER BY use_count DESC, last_used DESC
		 LIMIT ?`,
		escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("list description suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []ledger.Suggestion
	for rows.Next() {
		var (
			s        ledger.Suggestion
			lastUsed string
		)
		if err := rows.Scan(&s.Text, &s.UseCount, &lastUsed, &s.LastAmount.Cents); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		s.LastUsed, err = core.ParseDate(lastUsed)
		if err != nil {
			return nil, fmt.Errorf("parse suggestion date %q: %w", lastUsed, err)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

// PruneHistory keeps only the top max entries by rank.
func (r *SQLiteRepository) PruneHistory(ctx context.Context, max int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM description_history WHERE id NOT IN (
		     SELECT id FROM description_history
		     ORDER BY use_count DESC, last_used DESC
		     LIMIT ?
		 )`, max)
	if err != nil {
		return fmt.Errorf("prune description history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ledger.Record, error) {
	var (
		rec ledger.Record
		raw string
	)
	if err := row.Scan(&rec.ID, &raw, &rec.Description, &rec.Amount.Cents); err != nil {
		return ledger.Record{}, err
	}

	date, err := core.ParseDate(raw)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("parse expense date %q: %w", raw, err)
	}
	rec.Date = date
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]ledger.Record, error) {
	var records []ledger.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
