package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finpad/internal/amqp"
	"finpad/internal/core"
	"finpad/internal/history"
	"finpad/internal/log"
	"finpad/internal/storage"
)

type fakePublisher struct {
	published []*amqp.ExpenseEventMessage
	err       error
}

func (f *fakePublisher) PublishExpenseEvent(_ context.Context, msg *amqp.ExpenseEventMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func newTestService(t *testing.T, publisher EventPublisher) (*ExpenseService, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finpad.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	hist := history.NewService(repo, 50, 5, log.New(log.DefaultConfig()))
	return NewExpenseService(repo, publisher, hist), repo
}

func validExpense(t *testing.T) core.Expense {
	t.Helper()
	d, err := core.ParseDate("2025-10-03")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	return core.Expense{Date: d, Description: "Groceries", Amount: core.Money{Cents: 1250}}
}

func TestRecordExpense_PublishesEvent(t *testing.T) {
	publisher := &fakePublisher{}
	svc, _ := newTestService(t, publisher)

	id, err := svc.RecordExpense(context.Background(), validExpense(t))
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	if id == 0 {
		t.Error("RecordExpense() returned id 0")
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.published))
	}
	msg := publisher.published[0]
	if msg.Kind != amqp.EventExpenseRecorded || msg.ID != id {
		t.Errorf("published event = %+v, want kind=%s id=%d", msg, amqp.EventExpenseRecorded, id)
	}
}

func TestRecordExpense_ValidatesInput(t *testing.T) {
	svc, _ := newTestService(t, &fakePublisher{})

	e := validExpense(t)
	e.Description = "   "

	if _, err := svc.RecordExpense(context.Background(), e); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("RecordExpense() error = %v, want ErrEmptyDescription", err)
	}
}

func TestRecordExpense_PublishFailureDoesNotFail(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc, repo := newTestService(t, publisher)
	ctx := context.Background()

	id, err := svc.RecordExpense(ctx, validExpense(t))
	if err != nil {
		t.Fatalf("RecordExpense() error = %v, want nil despite publish failure", err)
	}

	// The expense reached storage regardless.
	if _, err := repo.Get(ctx, id); err != nil {
		t.Errorf("Get(%d) error = %v, expense should be stored", id, err)
	}
}

func TestRecordExpense_WithoutPublisherUpdatesHistory(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.RecordExpense(ctx, validExpense(t)); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}

	suggestions, err := repo.TopDescriptions(ctx, "gro", 5)
	if err != nil {
		t.Fatalf("TopDescriptions() error = %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Text != "Groceries" {
		t.Errorf("history after record = %v, want [Groceries]", suggestions)
	}
}

func TestDeleteExpense(t *testing.T) {
	publisher := &fakePublisher{}
	svc, _ := newTestService(t, publisher)
	ctx := context.Background()

	id, err := svc.RecordExpense(ctx, validExpense(t))
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}

	if err := svc.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("published %d events, want 2", len(publisher.published))
	}
	if publisher.published[1].Kind != amqp.EventExpenseDeleted {
		t.Errorf("second event kind = %s, want %s", publisher.published[1].Kind, amqp.EventExpenseDeleted)
	}

	if err := svc.DeleteExpense(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteExpense(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &ExpenseService{}

		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
