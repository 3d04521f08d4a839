package services

import (
	"context"
	"fmt"
	"log/slog"

	"finpad/internal/amqp"
	"finpad/internal/core"
	"finpad/internal/history"
	"finpad/internal/storage"
)

// EventPublisher publishes ledger change notifications. Satisfied by
// *amqp.Client; nil means events are skipped and the description history
// is updated synchronously instead of by the worker.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error
}

// ExpenseService orchestrates expense operations across SQLite and AMQP
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	history   *history.Service
}

func NewExpenseService(storage *storage.SQLiteRepository, publisher EventPublisher, history *history.Service) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
		history:   history,
	}
}

// RecordExpense validates and saves an expense, then publishes a recorded
// event for the worker. Without a publisher the description history is
// updated in-line so suggestions stay current.
func (s *ExpenseService) RecordExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	// Save to SQLite first (fast, reliable)
	id, err := s.storage.Record(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, updating history synchronously")
		if err := s.history.Record(ctx, e.Description, e.Amount, e.Date); err != nil {
			slog.ErrorContext(ctx, "Failed to update description history",
				"id", id, "error", err)
			// Don't fail the request - expense is saved locally
		}
		return id, nil
	}

	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseRecordedMessage(id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recorded event",
			"id", id, "error", err)
		// Don't fail the request - expense is saved locally
	}

	return id, nil
}

// DeleteExpense soft deletes an expense locally and publishes a deleted event
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping deleted event")
		return nil
	}

	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseDeletedMessage(id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deleted event",
			"id", id, "error", err)
		// Don't fail the request - expense is deleted locally
	}

	return nil
}

// Close closes the storage connection and, when present, the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
