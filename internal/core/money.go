// Package core holds the domain model of the expense tracker: users,
// categories, expenses, budgets and recurring templates, together with
// the date and money value types they share.
package core

import (
	"fmt"
	"math"
)

// Money is a monetary amount in integer cents. Arithmetic and
// comparisons always happen on cents to avoid floating-point drift;
// floats only appear at the JSON boundary.
type Money struct {
	Cents int64
}

// MoneyFromFloat converts a decimal amount (e.g. 9.99 from a JSON body)
// to cents with half-up rounding.
func MoneyFromFloat(amount float64) Money {
	return Money{Cents: int64(math.Round(amount * 100))}
}

// Float64 returns the decimal value for JSON responses and display.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain decimal, e.g. "12.34".
func (m Money) String() string {
	neg := ""
	cents := m.Cents
	if cents < 0 {
		neg = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", neg, cents/100, cents%100)
}

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
