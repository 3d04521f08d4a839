package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finpad/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finpad.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustRecord(t *testing.T, repo *SQLiteRepository, date string, cents int64, desc string) int64 {
	t.Helper()

	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", date, err)
	}
	id, err := repo.Record(context.Background(), core.Expense{
		Date:        d,
		Description: desc,
		Amount:      core.Money{Cents: cents},
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return id
}

func TestRecordAndListMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustRecord(t, repo, "2025-10-03", 1250, "Groceries")
	mustRecord(t, repo, "2025-10-01", 450, "Coffee")
	mustRecord(t, repo, "2025-11-05", 9900, "Rent share")

	records, err := repo.ListMonth(ctx, core.MonthKey("2025-10"))
	if err != nil {
		t.Fatalf("ListMonth() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("ListMonth() returned %d records, want 2", len(records))
	}
	// Ordered by date, so Coffee comes first.
	if records[0].Description != "Coffee" || records[1].Description != "Groceries" {
		t.Errorf("ListMonth() order = [%s, %s], want [Coffee, Groceries]",
			records[0].Description, records[1].Description)
	}
	if records[0].Amount.Cents != 450 {
		t.Errorf("records[0].Amount.Cents = %d, want 450", records[0].Amount.Cents)
	}
	if records[0].Date.String() != "2025-10-01" {
		t.Errorf("records[0].Date = %s, want 2025-10-01", records[0].Date)
	}
}

func TestMonthTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustRecord(t, repo, "2025-10-03", 1250, "Groceries")
	mustRecord(t, repo, "2025-10-20", 450, "Coffee")
	mustRecord(t, repo, "2025-11-05", 9900, "Rent share")

	total, err := repo.MonthTotal(ctx, core.MonthKey("2025-10"))
	if err != nil {
		t.Fatalf("MonthTotal() error = %v", err)
	}
	if total.Cents != 1700 {
		t.Errorf("MonthTotal() = %d cents, want 1700", total.Cents)
	}

	empty, err := repo.MonthTotal(ctx, core.MonthKey("2024-01"))
	if err != nil {
		t.Fatalf("MonthTotal() empty month error = %v", err)
	}
	if empty.Cents != 0 {
		t.Errorf("MonthTotal() empty month = %d cents, want 0", empty.Cents)
	}
}

func TestMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustRecord(t, repo, "2025-09-15", 100, "a")
	mustRecord(t, repo, "2025-11-01", 100, "b")
	mustRecord(t, repo, "2025-11-20", 100, "c")
	mustRecord(t, repo, "2025-10-02", 100, "d")

	months, err := repo.Months(ctx)
	if err != nil {
		t.Fatalf("Months() error = %v", err)
	}

	want := []core.MonthKey{"2025-11", "2025-10", "2025-09"}
	if len(months) != len(want) {
		t.Fatalf("Months() returned %d months, want %d", len(months), len(want))
	}
	for i, m := range months {
		if m != want[i] {
			t.Errorf("Months()[%d] = %s, want %s", i, m, want[i])
		}
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustRecord(t, repo, "2025-10-03", 1250, "Groceries")

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Deleted rows disappear from listings and totals.
	records, err := repo.ListMonth(ctx, core.MonthKey("2025-10"))
	if err != nil {
		t.Fatalf("ListMonth() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListMonth() after delete returned %d records, want 0", len(records))
	}

	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustRecord(t, repo, "2025-10-03", 1250, "Groceries")

	rec, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.ID != id || rec.Description != "Groceries" || rec.Amount.Cents != 1250 {
		t.Errorf("Get() = %+v, want id=%d Groceries 1250", rec, id)
	}

	if _, err := repo.Get(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestMirrorStateLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := mustRecord(t, repo, "2025-10-03", 1250, "Groceries")
	second := mustRecord(t, repo, "2025-10-04", 450, "Coffee")

	pending, err := repo.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("PendingMirror() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("PendingMirror() returned %d records, want 2", len(pending))
	}

	if err := repo.MarkMirrored(ctx, first); err != nil {
		t.Fatalf("MarkMirrored() error = %v", err)
	}
	if err := repo.MarkMirrorError(ctx, second); err != nil {
		t.Fatalf("MarkMirrorError() error = %v", err)
	}

	pending, err = repo.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("PendingMirror() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingMirror() after marking returned %d records, want 0", len(pending))
	}

	if err := repo.MarkMirrored(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkMirrored() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestDescriptionHistoryRanking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	use := func(desc, date string, cents int64) {
		t.Helper()
		d, err := core.ParseDate(date)
		if err != nil {
			t.Fatalf("ParseDate(%q) error = %v", date, err)
		}
		if err := repo.UpsertDescription(ctx, desc, core.Money{Cents: cents}, d); err != nil {
			t.Fatalf("UpsertDescription(%q) error = %v", desc, err)
		}
	}

	use("Coffee", "2025-10-01", 450)
	use("coffee", "2025-10-02", 500) // case-insensitive, same entry
	use("Groceries", "2025-10-03", 1250)
	use("Cinema", "2025-10-04", 1600)

	got, err := repo.TopDescriptions(ctx, "c", 10)
	if err != nil {
		t.Fatalf("TopDescriptions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("TopDescriptions(c) returned %d entries, want 2", len(got))
	}
	// Coffee has two uses and ranks first; Cinema follows.
	if got[0].Text != "Coffee" || got[0].UseCount != 2 {
		t.Errorf("top suggestion = %q (count %d), want Coffee (count 2)", got[0].Text, got[0].UseCount)
	}
	if got[0].LastUsed.String() != "2025-10-02" || got[0].LastAmount.Cents != 500 {
		t.Errorf("top suggestion last use = %s / %d cents, want 2025-10-02 / 500",
			got[0].LastUsed, got[0].LastAmount.Cents)
	}
	if got[1].Text != "Cinema" {
		t.Errorf("second suggestion = %q, want Cinema", got[1].Text)
	}

	all, err := repo.TopDescriptions(ctx, "", 10)
	if err != nil {
		t.Fatalf("TopDescriptions() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("TopDescriptions(empty prefix) returned %d entries, want 3", len(all))
	}
}

func TestTopDescriptionsEscapesWildcards(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d, _ := core.ParseDate("2025-10-01")
	if err := repo.UpsertDescription(ctx, "100% juice", core.Money{Cents: 300}, d); err != nil {
		t.Fatalf("UpsertDescription() error = %v", err)
	}
	if err := repo.UpsertDescription(ctx, "1000 pieces puzzle", core.Money{Cents: 2000}, d); err != nil {
		t.Fatalf("UpsertDescription() error = %v", err)
	}

	got, err := repo.TopDescriptions(ctx, "100%", 10)
	if err != nil {
		t.Fatalf("TopDescriptions() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "100% juice" {
		t.Errorf("TopDescriptions(100%%) = %v, want exactly [100%% juice]", got)
	}
}

func TestPruneHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d, _ := core.ParseDate("2025-10-01")
	descriptions := []string{"a", "b", "c", "d", "e"}
	for i, desc := range descriptions {
		// Give each a distinct use count so pruning order is deterministic.
		for j := 0; j <= i; j++ {
			if err := repo.UpsertDescription(ctx, desc, core.Money{Cents: 100}, d); err != nil {
				t.Fatalf("UpsertDescription(%q) error = %v", desc, err)
			}
		}
	}

	if err := repo.PruneHistory(ctx, 2); err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}

	got, err := repo.TopDescriptions(ctx, "", 10)
	if err != nil {
		t.Fatalf("TopDescriptions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("after prune, %d entries remain, want 2", len(got))
	}
	if got[0].Text != "e" || got[1].Text != "d" {
		t.Errorf("after prune, entries = [%s, %s], want [e, d]", got[0].Text, got[1].Text)
	}
}
