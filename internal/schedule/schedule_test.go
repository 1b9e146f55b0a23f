package schedule

import (
	"testing"

	"outlay/internal/core"
)

func template(freq core.Frequency, start core.Date) core.RecurringTemplate {
	return core.RecurringTemplate{
		ID:          "tpl-1",
		OwnerID:     "user-1",
		CategoryID:  "cat-1",
		Amount:      core.Money{Cents: 999},
		Description: "Streaming subscription",
		Frequency:   freq,
		StartDate:   start,
		IsActive:    true,
	}
}

func TestShouldGenerateRangeCheck(t *testing.T) {
	tpl := template(core.Daily, core.NewDate(2024, 3, 10))
	tpl.EndDate = core.NewDate(2024, 3, 20)

	tests := []struct {
		name string
		on   core.Date
		want bool
	}{
		{"day before start", core.NewDate(2024, 3, 9), false},
		{"start date itself", core.NewDate(2024, 3, 10), true},
		{"inside range", core.NewDate(2024, 3, 15), true},
		{"end date inclusive", core.NewDate(2024, 3, 20), true},
		{"day after end", core.NewDate(2024, 3, 21), false},
		{"far before start", core.NewDate(2020, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGenerate(tpl, tt.on); got != tt.want {
				t.Errorf("ShouldGenerate(%s) = %v, want %v", tt.on, got, tt.want)
			}
		})
	}
}

func TestShouldGenerateDaily(t *testing.T) {
	tpl := template(core.Daily, core.NewDate(2024, 1, 1))
	for _, on := range []core.Date{
		core.NewDate(2024, 1, 1),
		core.NewDate(2024, 1, 2),
		core.NewDate(2024, 7, 19),
		core.NewDate(2030, 12, 31),
	} {
		if !ShouldGenerate(tpl, on) {
			t.Errorf("daily template should generate on %s", on)
		}
	}
}

func TestShouldGenerateWeeklyAnchorsToStartWeekday(t *testing.T) {
	// 2024-01-01 is a Monday.
	tpl := template(core.Weekly, core.NewDate(2024, 1, 1))

	for _, on := range []core.Date{
		core.NewDate(2024, 1, 1),
		core.NewDate(2024, 1, 8),
		core.NewDate(2024, 1, 15),
	} {
		if !ShouldGenerate(tpl, on) {
			t.Errorf("weekly template should generate on %s", on)
		}
	}
	for day := 2; day <= 7; day++ {
		on := core.NewDate(2024, 1, day)
		if ShouldGenerate(tpl, on) {
			t.Errorf("weekly template should not generate on %s", on)
		}
	}
}

func TestShouldGenerateMonthlyClampsShortMonths(t *testing.T) {
	tpl := template(core.Monthly, core.NewDate(2024, 1, 31))

	tests := []struct {
		name string
		on   core.Date
		want bool
	}{
		{"leap february last day", core.NewDate(2024, 2, 29), true},
		{"leap february day 28", core.NewDate(2024, 2, 28), false},
		{"march 31", core.NewDate(2024, 3, 31), true},
		{"march 30", core.NewDate(2024, 3, 30), false},
		{"april 30", core.NewDate(2024, 4, 30), true},
		{"may 31", core.NewDate(2024, 5, 31), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGenerate(tpl, tt.on); got != tt.want {
				t.Errorf("ShouldGenerate(%s) = %v, want %v", tt.on, got, tt.want)
			}
		})
	}

	// Same template evaluated in a non-leap year clamps to Feb 28.
	nonLeap := template(core.Monthly, core.NewDate(2023, 1, 31))
	if !ShouldGenerate(nonLeap, core.NewDate(2023, 2, 28)) {
		t.Error("monthly template started Jan 31 should generate on 2023-02-28")
	}
}

func TestShouldGenerateMonthlyOrdinaryDay(t *testing.T) {
	tpl := template(core.Monthly, core.NewDate(2024, 1, 15))
	if !ShouldGenerate(tpl, core.NewDate(2024, 2, 15)) {
		t.Error("should generate on the 15th of the following month")
	}
	if ShouldGenerate(tpl, core.NewDate(2024, 2, 14)) || ShouldGenerate(tpl, core.NewDate(2024, 2, 16)) {
		t.Error("should only generate on the anchor day")
	}
}

func TestShouldGenerateYearlyExactMatch(t *testing.T) {
	tpl := template(core.Yearly, core.NewDate(2024, 3, 15))

	if !ShouldGenerate(tpl, core.NewDate(2025, 3, 15)) {
		t.Error("should generate on the anniversary")
	}
	if ShouldGenerate(tpl, core.NewDate(2025, 3, 14)) {
		t.Error("should not generate the day before the anniversary")
	}
	if ShouldGenerate(tpl, core.NewDate(2025, 3, 16)) {
		t.Error("should not generate the day after the anniversary")
	}
}

func TestShouldGenerateYearlyLeapDayClamps(t *testing.T) {
	tpl := template(core.Yearly, core.NewDate(2024, 2, 29))

	tests := []struct {
		name string
		on   core.Date
		want bool
	}{
		{"next leap year anniversary", core.NewDate(2028, 2, 29), true},
		{"non-leap year clamps to feb 28", core.NewDate(2025, 2, 28), true},
		{"non-leap year march 1", core.NewDate(2025, 3, 1), false},
		{"leap year feb 28 not due", core.NewDate(2028, 2, 28), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGenerate(tpl, tt.on); got != tt.want {
				t.Errorf("ShouldGenerate(%s) = %v, want %v", tt.on, got, tt.want)
			}
		})
	}
}

func TestShouldGenerateUnknownFrequency(t *testing.T) {
	tpl := template(core.Frequency("biweekly"), core.NewDate(2024, 1, 1))
	if ShouldGenerate(tpl, core.NewDate(2024, 1, 1)) {
		t.Error("unknown frequency must never generate")
	}
}

func TestRuleForRegistry(t *testing.T) {
	for _, freq := range []core.Frequency{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, ok := RuleFor(freq); !ok {
			t.Errorf("RuleFor(%s) missing", freq)
		}
	}
	if _, ok := RuleFor("quarterly"); ok {
		t.Error("RuleFor(quarterly) should not resolve")
	}
}

func TestRegisterCustomRule(t *testing.T) {
	custom := core.Frequency("always")
	Register(custom, dailyRule{})
	defer delete(rules, custom)

	tpl := template(custom, core.NewDate(2024, 1, 1))
	if !ShouldGenerate(tpl, core.NewDate(2024, 5, 5)) {
		t.Error("registered custom rule should be consulted")
	}
}
