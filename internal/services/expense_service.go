package services

import (
	"context"
	"fmt"
	"log/slog"

	"outlay/internal/amqp"
	"outlay/internal/core"
	"outlay/internal/storage"
)

// ExpenseService orchestrates expense operations across SQLite and AMQP.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

// NewExpenseService wires the service. amqpClient may be nil; expense
// events are then skipped and expenses stay in the pending sync state
// until the worker's startup sweep picks them up.
func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateExpense validates and saves an expense, then publishes a
// created event. Publish failures do not fail the request: the expense
// is already durable locally.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.storage.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if err := s.publishEvent(ctx, saved.ID, saved.OwnerID, amqp.EventCreated); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense created event",
			"expense_id", saved.ID, "error", err)
	}

	return saved, nil
}

// UpdateExpense validates and persists changes to an owned expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes an owned expense and publishes a deleted event.
func (s *ExpenseService) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteExpense(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if err := s.publishEvent(ctx, id, ownerID, amqp.EventDeleted); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense deleted event",
			"expense_id", id, "error", err)
	}

	return nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, expenseID, ownerID, event string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping expense event",
			"expense_id", expenseID, "event", event)
		return nil
	}

	switch event {
	case amqp.EventCreated:
		return s.amqpClient.PublishExpenseCreated(ctx, expenseID, ownerID)
	case amqp.EventDeleted:
		return s.amqpClient.PublishExpenseDeleted(ctx, expenseID, ownerID)
	default:
		return fmt.Errorf("unknown expense event: %s", event)
	}
}

// Close closes both storage and AMQP connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
