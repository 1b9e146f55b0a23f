// Package export defines the outbound port for mirroring expenses to
// an external spreadsheet.
package export

import (
	"context"

	"outlay/internal/core"
)

// ExpenseAppender appends one expense row to the export target and
// returns a reference to the written row.
type ExpenseAppender interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
