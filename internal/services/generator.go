// Package services orchestrates domain operations across storage and
// messaging.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"outlay/internal/core"
	"outlay/internal/schedule"
	"outlay/internal/storage"
)

const generatedSuffix = " (auto-generated)"

// TemplateSource lists the recurring templates of a user.
type TemplateSource interface {
	ListActiveTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error)
}

// GeneratedExpenseStore persists generated expenses and answers whether
// a template already materialized on a date.
type GeneratedExpenseStore interface {
	FindGeneratedExpense(ctx context.Context, ownerID, templateID string, on core.Date) (*core.Expense, error)
	InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
}

// Generator materializes expenses from recurring templates. Running it
// twice for the same date is a no-op: the store's duplicate guard keeps
// each (template, date) pair to a single expense.
type Generator struct {
	templates TemplateSource
	expenses  GeneratedExpenseStore
}

func NewGenerator(templates TemplateSource, expenses GeneratedExpenseStore) *Generator {
	return &Generator{templates: templates, expenses: expenses}
}

// GenerateForUser evaluates every active template of a user against
// asOf and inserts an expense for each one that is due and not yet
// materialized. It returns the number of expenses created.
func (g *Generator) GenerateForUser(ctx context.Context, ownerID string, asOf core.Date) (int, error) {
	templates, err := g.templates.ListActiveTemplates(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}

	generated := 0
	for _, tpl := range templates {
		if !tpl.IsActive {
			continue
		}
		if !schedule.ShouldGenerate(tpl, asOf) {
			continue
		}

		existing, err := g.expenses.FindGeneratedExpense(ctx, ownerID, tpl.ID, asOf)
		if err != nil {
			return generated, fmt.Errorf("check existing expense for template %s: %w", tpl.ID, err)
		}
		if existing != nil {
			continue
		}

		_, err = g.expenses.InsertExpense(ctx, core.Expense{
			OwnerID:          ownerID,
			CategoryID:       tpl.CategoryID,
			Amount:           tpl.Amount,
			Description:      tpl.Description + generatedSuffix,
			Date:             asOf,
			SourceTemplateID: tpl.ID,
		})
		if errors.Is(err, storage.ErrDuplicateExpense) {
			// A concurrent run got there first. Fine either way.
			slog.DebugContext(ctx, "Expense already generated",
				"template_id", tpl.ID, "date", asOf.String())
			continue
		}
		if err != nil {
			return generated, fmt.Errorf("insert expense for template %s: %w", tpl.ID, err)
		}

		generated++
		slog.InfoContext(ctx, "Generated expense from recurring template",
			"template_id", tpl.ID,
			"owner_id", ownerID,
			"date", asOf.String(),
			"amount_cents", tpl.Amount.Cents)
	}

	slog.InfoContext(ctx, "Recurring generation complete",
		"owner_id", ownerID,
		"date", asOf.String(),
		"checked", len(templates),
		"generated", generated)
	return generated, nil
}

// PreviewForUser returns the active templates that would generate an
// expense on asOf, without inserting anything. Already-materialized
// templates are still listed: preview answers "what is due", not "what
// would a run insert".
func (g *Generator) PreviewForUser(ctx context.Context, ownerID string, asOf core.Date) ([]core.RecurringTemplate, error) {
	templates, err := g.templates.ListActiveTemplates(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}

	due := make([]core.RecurringTemplate, 0, len(templates))
	for _, tpl := range templates {
		if tpl.IsActive && schedule.ShouldGenerate(tpl, asOf) {
			due = append(due, tpl)
		}
	}
	return due, nil
}
