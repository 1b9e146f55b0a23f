// Package storage persists the domain model in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"outlay/internal/core"
)

// Sync states for the export pipeline.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

var (
	// ErrNotFound is returned when a record does not exist or is owned
	// by a different user.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateExpense is returned when the generation guard rejects
	// a second expense for the same (owner, template, date) tuple.
	ErrDuplicateExpense = errors.New("expense already generated for this template and date")

	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrBudgetExists is returned when a budget for the same category
	// and month already exists.
	ErrBudgetExists = errors.New("budget already exists for this category and month")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, name, passwordHash string) (core.User, error) {
	u := core.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}

// --- categories ---

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, icon FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// --- expenses ---

// ExpenseFilter narrows ListExpenses. Zero values mean "no filter";
// Limit <= 0 means no limit.
type ExpenseFilter struct {
	CategoryID string
	From       core.Date
	To         core.Date
	Limit      int
	Offset     int
}

const expenseColumns = `id, owner_id, category_id, amount_cents, description,
	expense_date, source_template_id, created_at`

// InsertExpense persists an expense, assigning its id and creation
// timestamp. Inserting a generated expense that already exists for the
// same (owner, template, date) returns ErrDuplicateExpense.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, owner_id, category_id, amount_cents, description,
			expense_date, source_template_id, sync_state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.CategoryID, e.Amount.Cents, e.Description,
		e.Date.String(), nullString(e.SourceTemplateID), SyncPending,
		e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err, "expenses.owner_id") {
			return core.Expense{}, ErrDuplicateExpense
		}
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanExpenseRow(row)
}

// GetExpenseByID looks an expense up without an ownership filter. It
// exists for the sync worker, which processes queue messages that are
// not tied to a request context.
func (r *SQLiteRepository) GetExpenseByID(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	return scanExpenseRow(row)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string, f ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = ?`
	args := []any{ownerID}

	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		query += ` AND expense_date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND expense_date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY expense_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET category_id = ?, amount_cents = ?, description = ?, expense_date = ?
		WHERE id = ? AND owner_id = ?`,
		e.CategoryID, e.Amount.Cents, e.Description, e.Date.String(), e.ID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// FindGeneratedExpense returns the expense a template already
// materialized on a date, or nil when none exists. This is the
// duplicate guard the generator consults before inserting.
func (r *SQLiteRepository) FindGeneratedExpense(ctx context.Context, ownerID, templateID string, on core.Date) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE owner_id = ? AND source_template_id = ? AND expense_date = ?`,
		ownerID, templateID, on.String())
	e, err := scanExpenseRow(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *SQLiteRepository) MarkExpenseSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_state = ? WHERE id = ?`, SyncDone, id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkExpenseSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_state = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	return nil
}

// ListPendingSyncExpenses returns expenses not yet exported, oldest
// first. The sync worker uses it to recover from missed queue messages.
func (r *SQLiteRepository) ListPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE sync_state = ? ORDER BY created_at LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- recurring templates ---

const templateColumns = `id, owner_id, category_id, amount_cents, description,
	frequency, start_date, end_date, is_active, created_at`

func (r *SQLiteRepository) InsertTemplate(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_templates (id, owner_id, category_id, amount_cents,
			description, frequency, start_date, end_date, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.CategoryID, t.Amount.Cents, t.Description,
		string(t.Frequency), t.StartDate.String(), nullDate(t.EndDate),
		t.IsActive, t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert template: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template created",
		"template_id", t.ID,
		"owner_id", t.OwnerID,
		"frequency", t.Frequency,
		"start_date", t.StartDate.String())
	return t, nil
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, ownerID, id string) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+` FROM recurring_templates
		WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanTemplateRow(row)
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	return r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM recurring_templates
		WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// ListActiveTemplates returns active templates in id order so a
// generation batch always processes them in the same sequence.
func (r *SQLiteRepository) ListActiveTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	return r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM recurring_templates
		WHERE owner_id = ? AND is_active = 1 ORDER BY id`, ownerID)
}

func (r *SQLiteRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTemplate(ctx context.Context, t core.RecurringTemplate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_templates
		SET category_id = ?, amount_cents = ?, description = ?, frequency = ?,
			start_date = ?, end_date = ?, is_active = ?
		WHERE id = ? AND owner_id = ?`,
		t.CategoryID, t.Amount.Cents, t.Description, string(t.Frequency),
		t.StartDate.String(), nullDate(t.EndDate), t.IsActive, t.ID, t.OwnerID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return requireRow(res)
}

// DeleteTemplate removes a template. Already-generated expenses keep
// their source_template_id and are not cascaded.
func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM recurring_templates WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireRow(res)
}

// ListOwnersWithActiveTemplates returns the distinct owners that have
// at least one active template. The recurring worker iterates these.
func (r *SQLiteRepository) ListOwnersWithActiveTemplates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT owner_id FROM recurring_templates
		WHERE is_active = 1 ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners with active templates: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

// --- budgets ---

const budgetColumns = `id, owner_id, category_id, amount_cents, month, year, created_at`

func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, category_id, amount_cents, month, year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.CategoryID, b.Amount.Cents, b.Month, b.Year,
		b.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err, "budgets.owner_id") {
			return core.Budget{}, ErrBudgetExists
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns a user's budgets, optionally narrowed to one
// month (month and year must both be set to filter).
func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string, month, year int) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_id = ?`
	args := []any{ownerID}
	if month > 0 && year > 0 {
		query += ` AND month = ? AND year = ?`
		args = append(args, month, year)
	}
	query += ` ORDER BY year DESC, month DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var createdAt string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Amount.Cents,
			&b.Month, &b.Year, &createdAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CreatedAt = parseTimestamp(createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount_cents = ?, month = ?, year = ?
		WHERE id = ? AND owner_id = ?`,
		b.CategoryID, b.Amount.Cents, b.Month, b.Year, b.ID, b.OwnerID)
	if err != nil {
		if isUniqueViolation(err, "budgets.owner_id") {
			return ErrBudgetExists
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var e core.Expense
	var dateStr, createdAt string
	var templateID sql.NullString
	err := s.Scan(&e.ID, &e.OwnerID, &e.CategoryID, &e.Amount.Cents,
		&e.Description, &dateStr, &templateID, &createdAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", dateStr, err)
	}
	e.Date = d
	e.SourceTemplateID = templateID.String
	e.CreatedAt = parseTimestamp(createdAt)
	return e, nil
}

func scanExpenseRow(row *sql.Row) (core.Expense, error) {
	e, err := scanExpense(row)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	return e, err
}

func scanTemplate(s rowScanner) (core.RecurringTemplate, error) {
	var t core.RecurringTemplate
	var freq, startStr, createdAt string
	var endStr sql.NullString
	err := s.Scan(&t.ID, &t.OwnerID, &t.CategoryID, &t.Amount.Cents,
		&t.Description, &freq, &startStr, &endStr, &t.IsActive, &createdAt)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("scan template: %w", err)
	}
	t.Frequency = core.Frequency(freq)
	start, err := core.ParseDate(startStr)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("parse start date %q: %w", startStr, err)
	}
	t.StartDate = start
	if endStr.Valid && endStr.String != "" {
		end, err := core.ParseDate(endStr.String)
		if err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("parse end date %q: %w", endStr.String, err)
		}
		t.EndDate = end
	}
	t.CreatedAt = parseTimestamp(createdAt)
	return t, nil
}

func scanTemplateRow(row *sql.Row) (core.RecurringTemplate, error) {
	t, err := scanTemplate(row)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, ErrNotFound
	}
	return t, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// involving the given column prefix. The sqlite driver exposes the
// violated columns only in the error text.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
