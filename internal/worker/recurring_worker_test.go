package worker

import (
	"context"
	"testing"

	"outlay/internal/core"
	"outlay/internal/services"
	"outlay/internal/storage"
)

func TestRecurringWorkerRunOnce(t *testing.T) {
	_, repo, _ := setup(t)
	ctx := context.Background()

	alice, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := repo.CreateUser(ctx, "bob@example.com", "Bob", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	for _, owner := range []string{alice.ID, bob.ID} {
		_, err := repo.InsertTemplate(ctx, core.RecurringTemplate{
			OwnerID:     owner,
			CategoryID:  "bills-utilities",
			Amount:      core.Money{Cents: 90000},
			Description: "Rent",
			Frequency:   core.Monthly,
			StartDate:   core.NewDate(2024, 1, 1),
			IsActive:    true,
		})
		if err != nil {
			t.Fatalf("InsertTemplate: %v", err)
		}
	}

	w := NewRecurringWorker(repo, services.NewGenerator(repo, repo), 0)

	n, err := w.RunOnce(ctx, core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 2 {
		t.Fatalf("generated %d expenses, want 2", n)
	}

	// Idempotent across runs.
	n, err = w.RunOnce(ctx, core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if n != 0 {
		t.Errorf("second run generated %d expenses, want 0", n)
	}

	for _, owner := range []string{alice.ID, bob.ID} {
		expenses, err := repo.ListExpenses(ctx, owner, storage.ExpenseFilter{})
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(expenses) != 1 {
			t.Errorf("owner %s has %d expenses, want 1", owner, len(expenses))
		}
	}
}

func TestRecurringWorkerNoOwners(t *testing.T) {
	_, repo, _ := setup(t)

	w := NewRecurringWorker(repo, services.NewGenerator(repo, repo), 0)
	n, err := w.RunOnce(context.Background(), core.Today())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 0 {
		t.Errorf("generated %d expenses with no owners", n)
	}
}
