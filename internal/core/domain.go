package core

import (
	"errors"
	"strings"
	"time"
)

// Frequency describes how often a recurring template materializes.
const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	Frequency string

	// User is an account owner. PasswordHash is a bcrypt hash and is
	// never serialized.
	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Category is a spending category. Categories are seeded by
	// migration and read-only over the API.
	Category struct {
		ID    string
		Name  string
		Color string
		Icon  string
	}

	// Expense is a single spending record. SourceTemplateID is set only
	// when the expense was materialized from a recurring template;
	// manual entries leave it empty.
	Expense struct {
		ID               string
		OwnerID          string
		CategoryID       string
		Amount           Money
		Description      string
		Date             Date
		SourceTemplateID string
		CreatedAt        time.Time
	}

	// RecurringTemplate describes an expense that repeats. Template
	// fields are copied into each generated expense at generation time;
	// later edits never touch already-generated records.
	RecurringTemplate struct {
		ID          string
		OwnerID     string
		CategoryID  string
		Amount      Money
		Description string
		Frequency   Frequency
		StartDate   Date
		EndDate     Date // zero value means no end date
		IsActive    bool
		CreatedAt   time.Time
	}

	// Budget is a per-category spending limit for one calendar month.
	Budget struct {
		ID         string
		OwnerID    string
		CategoryID string
		Amount     Money
		Month      int
		Year       int
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
)

// Valid reports whether f is one of the four supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// GeneratedFrom reports whether the expense was materialized from a
// recurring template.
func (e Expense) GeneratedFrom(templateID string) bool {
	return e.SourceTemplateID == templateID
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(e.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

// Validate checks template fields at creation and update time. The
// start/end ordering is enforced here, upstream of generation; the
// scheduler assumes templates it sees have already passed this check.
func (t RecurringTemplate) Validate() error {
	if err := t.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate.Time) {
		return ErrInvalidDateRange
	}
	if !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2000 || b.Year > 2200 {
		return errors.New("year out of range")
	}
	return nil
}
