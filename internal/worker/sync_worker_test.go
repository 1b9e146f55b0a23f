package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"outlay/internal/amqp"
	"outlay/internal/core"
	"outlay/internal/export/memory"
	"outlay/internal/storage"
)

func setup(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *memory.Appender) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	appender := memory.New()
	return NewSyncWorker(repo, appender, 10), repo, appender
}

func insertExpense(t *testing.T, repo *storage.SQLiteRepository) core.Expense {
	t.Helper()
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, "w@example.com", "W", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	e, err := repo.InsertExpense(ctx, core.Expense{
		OwnerID:     u.ID,
		CategoryID:  "other",
		Amount:      core.Money{Cents: 750},
		Description: "groceries",
		Date:        core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}
	return e
}

func TestHandleEventCreated(t *testing.T) {
	w, repo, appender := setup(t)
	ctx := context.Background()
	e := insertExpense(t, repo)

	msg := amqp.NewExpenseEventMessage(e.ID, e.OwnerID, amqp.EventCreated)
	if err := w.HandleEvent(ctx, msg); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 1 || rows[0].ID != e.ID {
		t.Fatalf("appender rows = %+v", rows)
	}

	pending, err := repo.ListPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expense still pending after sync")
	}
}

func TestHandleEventDeletedIsNoop(t *testing.T) {
	w, _, appender := setup(t)

	msg := amqp.NewExpenseEventMessage("gone", "user-1", amqp.EventDeleted)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Error("delete event must not append")
	}
}

func TestHandleEventMissingExpense(t *testing.T) {
	w, _, appender := setup(t)

	msg := amqp.NewExpenseEventMessage("never-existed", "user-1", amqp.EventCreated)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("missing expense should not error (no requeue): %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Error("nothing should be appended for a missing expense")
	}
}

func TestHandleEventAppendFailureMarksError(t *testing.T) {
	w, repo, appender := setup(t)
	ctx := context.Background()
	e := insertExpense(t, repo)

	appender.FailWith(errors.New("quota exceeded"))
	msg := amqp.NewExpenseEventMessage(e.ID, e.OwnerID, amqp.EventCreated)
	if err := w.HandleEvent(ctx, msg); err == nil {
		t.Fatal("append failure should propagate for requeue")
	}

	// Marked as error, so it no longer shows up as pending.
	pending, err := repo.ListPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed expense should be in error state, not pending")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	w, repo, appender := setup(t)
	ctx := context.Background()

	e1 := insertExpense(t, repo)
	e2, err := repo.InsertExpense(ctx, core.Expense{
		OwnerID:     e1.OwnerID,
		CategoryID:  "travel",
		Amount:      core.Money{Cents: 3000},
		Description: "train",
		Date:        core.NewDate(2024, 6, 2),
	})
	if err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 2 {
		t.Fatalf("appended %d rows, want 2", len(rows))
	}
	_ = e2

	// A second sweep finds nothing pending.
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("second StartupSyncCheck: %v", err)
	}
	if len(appender.Rows()) != 2 {
		t.Errorf("second sweep re-exported rows")
	}
}
