// Package schedule decides whether a recurring template materializes an
// expense on a given calendar date.
//
// Each frequency has its own occurrence rule, looked up through a
// registry. All rules are pure functions of the template's start date
// and the evaluation date: nothing is anchored to a last-execution
// cursor, so re-evaluating the same date always yields the same answer
// and no mutable scheduling state has to be persisted.
package schedule

import (
	"outlay/internal/core"
)

// Rule is the occurrence strategy for a single frequency. Occurs is
// only consulted for dates already inside the template's active range.
type Rule interface {
	// Occurs reports whether a template started on start falls due on
	// the date on.
	Occurs(start, on core.Date) bool
}

// dailyRule fires every day once in range.
type dailyRule struct{}

func (dailyRule) Occurs(core.Date, core.Date) bool {
	return true
}

// weeklyRule fires every seventh day counted from the start date, which
// anchors the cycle to the start date's day of week.
type weeklyRule struct{}

func (weeklyRule) Occurs(start, on core.Date) bool {
	return on.DaysSince(start)%7 == 0
}

// monthlyRule fires on the start date's day of month, clamped to the
// last day of shorter months. A template started Jan 31 fires on
// Feb 28 (or 29), Mar 31, Apr 30, and so on.
type monthlyRule struct{}

func (monthlyRule) Occurs(start, on core.Date) bool {
	targetDay := start.Day()
	if last := core.LastDayOfMonth(on.Year(), on.Month()); targetDay > last {
		targetDay = last
	}
	return on.Day() == targetDay
}

// yearlyRule fires on the start date's month and day each year. A
// template started Feb 29 fires on Feb 28 in non-leap years rather
// than skipping the year entirely.
type yearlyRule struct{}

func (yearlyRule) Occurs(start, on core.Date) bool {
	targetMonth, targetDay := start.Month(), start.Day()
	if last := core.LastDayOfMonth(on.Year(), targetMonth); targetDay > last {
		targetDay = last
	}
	return on.Month() == targetMonth && on.Day() == targetDay
}

// rules maps each frequency to its occurrence rule. Unknown
// frequencies have no entry and therefore never generate.
var rules = map[core.Frequency]Rule{
	core.Daily:   dailyRule{},
	core.Weekly:  weeklyRule{},
	core.Monthly: monthlyRule{},
	core.Yearly:  yearlyRule{},
}

// RuleFor returns the occurrence rule for a frequency, if one is
// registered.
func RuleFor(frequency core.Frequency) (Rule, bool) {
	r, ok := rules[frequency]
	return r, ok
}

// Register installs a rule for a custom frequency, replacing any
// existing one.
func Register(frequency core.Frequency, r Rule) {
	rules[frequency] = r
}

// ShouldGenerate reports whether an expense instance is due for the
// template on the given date.
//
// The range check applies to every frequency: dates before the start
// date never generate, and dates after the end date (when set,
// inclusive) never generate. Templates with an unrecognized frequency
// never generate; a corrupted frequency value silently produces
// nothing rather than failing the batch.
//
// The caller is expected to filter out inactive templates; the result
// is correct regardless of the IsActive flag.
func ShouldGenerate(t core.RecurringTemplate, on core.Date) bool {
	if on.Before(t.StartDate.Time) {
		return false
	}
	if !t.EndDate.IsZero() && on.After(t.EndDate.Time) {
		return false
	}
	rule, ok := RuleFor(t.Frequency)
	if !ok {
		return false
	}
	return rule.Occurs(t.StartDate, on)
}
