// Package worker consumes expense events and runs background maintenance:
// it keeps the description history current and mirrors recorded expenses
// to the external backup sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finpad/internal/amqp"
	"finpad/internal/history"
	"finpad/internal/ledger"
	"finpad/internal/storage"
)

// Mirror appends expense rows to an external backup sheet.
// Satisfied by google.Client; nil disables mirroring.
type Mirror interface {
	Append(ctx context.Context, rec ledger.Record) error
}

type MaintenanceWorker struct {
	storage   *storage.SQLiteRepository
	history   *history.Service
	mirror    Mirror
	batchSize int
}

func NewMaintenanceWorker(storage *storage.SQLiteRepository, history *history.Service, mirror Mirror, batchSize int) *MaintenanceWorker {
	return &MaintenanceWorker{
		storage:   storage,
		history:   history,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single expense event from AMQP. Unknown kinds
// are acknowledged so they do not requeue forever.
func (w *MaintenanceWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	switch msg.Kind {
	case amqp.EventExpenseRecorded:
		return w.handleRecorded(ctx, msg.ID)
	case amqp.EventExpenseDeleted:
		return w.handleDeleted(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Skipping event of unknown kind", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

func (w *MaintenanceWorker) handleRecorded(ctx context.Context, id int64) error {
	rec, err := w.storage.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the event was processed.
		slog.WarnContext(ctx, "Recorded expense no longer exists, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	// History failures are logged, not retried: a requeue would count
	// the same use twice.
	if err := w.history.Record(ctx, rec.Description, rec.Amount, rec.Date); err != nil {
		slog.ErrorContext(ctx, "Failed to update description history",
			"id", id, "error", err)
	}

	w.mirrorRecord(ctx, rec)
	return nil
}

func (w *MaintenanceWorker) handleDeleted(ctx context.Context, id int64) error {
	// The mirror is append-only and history keeps counting deleted
	// expenses, so a deletion only leaves an audit entry.
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// ProcessPending mirrors one batch of expenses still marked pending,
// catching rows whose recorded event never reached the worker.
func (w *MaintenanceWorker) ProcessPending(ctx context.Context) error {
	if w.mirror == nil {
		return nil
	}

	batch, err := w.storage.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("dequeue pending batch: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	slog.DebugContext(ctx, "Mirroring pending batch", "count", len(batch))

	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.mirrorRecord(ctx, rec)
	}
	return nil
}

func (w *MaintenanceWorker) mirrorRecord(ctx context.Context, rec ledger.Record) {
	if w.mirror == nil {
		return
	}

	if err := w.mirror.Append(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror expense",
			"id", rec.ID, "error", err)
		if err := w.storage.MarkMirrorError(ctx, rec.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "id", rec.ID, "error", err)
		}
		return
	}

	if err := w.storage.MarkMirrored(ctx, rec.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark expense mirrored", "id", rec.ID, "error", err)
	}
}

// RunSweep mirrors pending expenses on a fixed interval until ctx is
// cancelled. The first sweep runs immediately.
func (w *MaintenanceWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Sweep failed", "error", err)
			}
		}
	}
}
