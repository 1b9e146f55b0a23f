package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"outlay/internal/core"
	"outlay/internal/storage"
)

// fakeStore implements TemplateSource and GeneratedExpenseStore in
// memory so generator behavior can be tested without SQLite.
type fakeStore struct {
	templates []core.RecurringTemplate
	expenses  []core.Expense

	listErr   error
	insertErr error
}

func (f *fakeStore) ListActiveTemplates(_ context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.RecurringTemplate
	for _, t := range f.templates {
		if t.OwnerID == ownerID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) FindGeneratedExpense(_ context.Context, ownerID, templateID string, on core.Date) (*core.Expense, error) {
	for i, e := range f.expenses {
		if e.OwnerID == ownerID && e.SourceTemplateID == templateID && e.Date.Equal(on.Time) {
			return &f.expenses[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if f.insertErr != nil {
		return core.Expense{}, f.insertErr
	}
	for _, existing := range f.expenses {
		if existing.OwnerID == e.OwnerID &&
			existing.SourceTemplateID == e.SourceTemplateID &&
			existing.Date.Equal(e.Date.Time) {
			return core.Expense{}, storage.ErrDuplicateExpense
		}
	}
	e.ID = "exp-" + e.SourceTemplateID + "-" + e.Date.String()
	f.expenses = append(f.expenses, e)
	return e, nil
}

func monthlyTemplate(id, owner string, start core.Date) core.RecurringTemplate {
	return core.RecurringTemplate{
		ID:          id,
		OwnerID:     owner,
		CategoryID:  "bills-utilities",
		Amount:      core.Money{Cents: 999},
		Description: "Streaming",
		Frequency:   core.Monthly,
		StartDate:   start,
		IsActive:    true,
	}
}

func TestGenerateForUserCreatesDueExpenses(t *testing.T) {
	store := &fakeStore{templates: []core.RecurringTemplate{
		monthlyTemplate("tpl-1", "user-1", core.NewDate(2024, 1, 15)),
		monthlyTemplate("tpl-2", "user-1", core.NewDate(2024, 1, 1)),
	}}
	gen := NewGenerator(store, store)

	n, err := gen.GenerateForUser(context.Background(), "user-1", core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("GenerateForUser: %v", err)
	}
	if n != 1 {
		t.Fatalf("generated = %d, want 1", n)
	}

	e := store.expenses[0]
	if e.SourceTemplateID != "tpl-1" {
		t.Errorf("generated from template %q, want tpl-1", e.SourceTemplateID)
	}
	if !strings.HasSuffix(e.Description, "(auto-generated)") {
		t.Errorf("description %q missing auto-generated marker", e.Description)
	}
	if e.Amount.Cents != 999 || e.CategoryID != "bills-utilities" {
		t.Errorf("generated expense did not copy template fields: %+v", e)
	}
	if e.Date.String() != "2024-02-15" {
		t.Errorf("generated expense dated %s, want 2024-02-15", e.Date)
	}
}

func TestGenerateForUserIsIdempotent(t *testing.T) {
	store := &fakeStore{templates: []core.RecurringTemplate{
		monthlyTemplate("tpl-1", "user-1", core.NewDate(2024, 1, 31)),
	}}
	gen := NewGenerator(store, store)
	on := core.NewDate(2024, 2, 29)

	first, err := gen.GenerateForUser(context.Background(), "user-1", on)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first != 1 {
		t.Fatalf("first run generated %d, want 1", first)
	}

	second, err := gen.GenerateForUser(context.Background(), "user-1", on)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second != 0 {
		t.Errorf("second run generated %d, want 0", second)
	}
	if len(store.expenses) != 1 {
		t.Errorf("store holds %d expenses, want 1", len(store.expenses))
	}
}

func TestGenerateForUserSkipsInactiveAndOtherOwners(t *testing.T) {
	inactive := monthlyTemplate("tpl-1", "user-1", core.NewDate(2024, 1, 15))
	inactive.IsActive = false
	other := monthlyTemplate("tpl-2", "user-2", core.NewDate(2024, 1, 15))

	store := &fakeStore{templates: []core.RecurringTemplate{inactive, other}}
	gen := NewGenerator(store, store)

	n, err := gen.GenerateForUser(context.Background(), "user-1", core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("GenerateForUser: %v", err)
	}
	if n != 0 || len(store.expenses) != 0 {
		t.Errorf("generated %d expenses, want 0", len(store.expenses))
	}
}

func TestGenerateForUserSurvivesDuplicateRace(t *testing.T) {
	tpl := monthlyTemplate("tpl-1", "user-1", core.NewDate(2024, 1, 15))
	store := &fakeStore{
		templates: []core.RecurringTemplate{tpl},
		// Simulate a concurrent run inserting between the existence
		// check and our insert: the guard row exists but is invisible
		// to FindGeneratedExpense via a different template id match.
		insertErr: storage.ErrDuplicateExpense,
	}
	gen := NewGenerator(store, store)

	n, err := gen.GenerateForUser(context.Background(), "user-1", core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("duplicate insert must not fail the run: %v", err)
	}
	if n != 0 {
		t.Errorf("generated = %d, want 0", n)
	}
}

func TestGenerateForUserPropagatesErrors(t *testing.T) {
	listErr := errors.New("db down")
	gen := NewGenerator(&fakeStore{listErr: listErr}, &fakeStore{})
	if _, err := gen.GenerateForUser(context.Background(), "user-1", core.Today()); !errors.Is(err, listErr) {
		t.Errorf("list error = %v, want wrapped db down", err)
	}

	insertErr := errors.New("disk full")
	store := &fakeStore{
		templates: []core.RecurringTemplate{
			monthlyTemplate("tpl-1", "user-1", core.NewDate(2024, 1, 15)),
		},
		insertErr: insertErr,
	}
	gen = NewGenerator(store, store)
	if _, err := gen.GenerateForUser(context.Background(), "user-1", core.NewDate(2024, 2, 15)); !errors.Is(err, insertErr) {
		t.Errorf("insert error = %v, want wrapped disk full", err)
	}
}

func TestPreviewForUserListsDueWithoutInserting(t *testing.T) {
	store := &fakeStore{templates: []core.RecurringTemplate{
		monthlyTemplate("tpl-1", "user-1", core.NewDate(2024, 1, 15)),
		monthlyTemplate("tpl-2", "user-1", core.NewDate(2024, 1, 1)),
	}}
	gen := NewGenerator(store, store)

	due, err := gen.PreviewForUser(context.Background(), "user-1", core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("PreviewForUser: %v", err)
	}
	if len(due) != 1 || due[0].ID != "tpl-1" {
		t.Fatalf("due = %+v, want only tpl-1", due)
	}
	if len(store.expenses) != 0 {
		t.Errorf("preview inserted %d expenses", len(store.expenses))
	}
}
