// Package worker contains the background processes: recurring expense
// generation and spreadsheet synchronization.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"outlay/internal/amqp"
	"outlay/internal/export"
	"outlay/internal/storage"
)

// SyncWorker mirrors expenses from SQLite to the export target. It is
// driven by AMQP expense events, with a startup sweep over pending
// rows to recover from missed messages or downtime.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.ExpenseAppender
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender export.ExpenseAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleEvent processes one expense event from the queue.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	slog.InfoContext(ctx, "Processing expense event",
		"expense_id", msg.ExpenseID,
		"event", msg.Event)

	switch msg.Event {
	case amqp.EventCreated:
		return w.syncExpense(ctx, msg.ExpenseID)
	case amqp.EventDeleted:
		// Export is append-only; deleted expenses keep their row. The
		// id column written by the appender allows manual cleanup.
		slog.InfoContext(ctx, "Skipping deleted expense", "expense_id", msg.ExpenseID)
		return nil
	default:
		return fmt.Errorf("unknown expense event: %s", msg.Event)
	}
}

func (w *SyncWorker) syncExpense(ctx context.Context, id string) error {
	expense, err := w.storage.GetExpenseByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before we got to it. Nothing to export.
		slog.WarnContext(ctx, "Expense vanished before sync", "expense_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	ref, err := w.appender.Append(ctx, expense)
	if err != nil {
		if markErr := w.storage.MarkExpenseSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "expense_id", id, "error", markErr)
		}
		return fmt.Errorf("append to export target: %w", err)
	}

	if err := w.storage.MarkExpenseSynced(ctx, id); err != nil {
		// The export worked; only the bookkeeping failed. The startup
		// sweep will re-append this row, which is acceptable.
		slog.ErrorContext(ctx, "Failed to mark expense synced", "expense_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Synced expense",
		"expense_id", id,
		"export_ref", ref,
		"amount_cents", expense.Amount.Cents)
	return nil
}

// StartupSyncCheck exports any expenses still pending. Run once before
// consuming the queue to recover from missed events.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingSyncExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending expenses: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses from startup sweep",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, e := range pending {
		if err := w.syncExpense(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending expense",
				"expense_id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}
