package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outlay/internal/core"
	"outlay/internal/services"
)

// OwnerSource lists the users that have anything to generate.
type OwnerSource interface {
	ListOwnersWithActiveTemplates(ctx context.Context) ([]string, error)
}

// RecurringWorker periodically materializes recurring expenses for
// every user with active templates. Generation is idempotent, so the
// interval only bounds how late an expense can appear, never how many.
type RecurringWorker struct {
	owners    OwnerSource
	generator *services.Generator
	interval  time.Duration
}

func NewRecurringWorker(owners OwnerSource, generator *services.Generator, interval time.Duration) *RecurringWorker {
	return &RecurringWorker{
		owners:    owners,
		generator: generator,
		interval:  interval,
	}
}

// RunOnce generates due expenses for every owner as of the given date
// and returns the total created. Per-owner failures are logged and do
// not stop the batch.
func (w *RecurringWorker) RunOnce(ctx context.Context, asOf core.Date) (int, error) {
	owners, err := w.owners.ListOwnersWithActiveTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	total := 0
	for _, ownerID := range owners {
		n, err := w.generator.GenerateForUser(ctx, ownerID, asOf)
		if err != nil {
			slog.ErrorContext(ctx, "Generation failed for owner",
				"owner_id", ownerID, "error", err)
			continue
		}
		total += n
	}

	slog.InfoContext(ctx, "Recurring batch complete",
		"date", asOf.String(),
		"owners", len(owners),
		"generated", total)
	return total, nil
}

// Run generates immediately and then on every tick until ctx ends.
func (w *RecurringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.RunOnce(ctx, core.Today()); err != nil {
		slog.ErrorContext(ctx, "Initial recurring batch failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx, core.Today()); err != nil {
				slog.ErrorContext(ctx, "Recurring batch failed", "error", err)
			}
		}
	}
}
