// Package memory is an in-process ExpenseAppender used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"outlay/internal/core"
	"outlay/internal/export"
)

type Appender struct {
	mu       sync.Mutex
	rows     []core.Expense
	failWith error
}

var _ export.ExpenseAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) Append(_ context.Context, e core.Expense) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failWith != nil {
		return "", a.failWith
	}
	a.rows = append(a.rows, e)
	return fmt.Sprintf("row-%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Expense {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Expense, len(a.rows))
	copy(out, a.rows)
	return out
}

// FailWith makes subsequent Append calls return err. Pass nil to heal.
func (a *Appender) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failWith = err
}
