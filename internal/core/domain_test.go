package core

import (
	"testing"
	"time"
)

func TestDateDaysSince(t *testing.T) {
	tests := []struct {
		name  string
		start Date
		on    Date
		want  int
	}{
		{"same day", NewDate(2024, 1, 1), NewDate(2024, 1, 1), 0},
		{"one week", NewDate(2024, 1, 1), NewDate(2024, 1, 8), 7},
		{"across leap day", NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2},
		{"across year boundary", NewDate(2023, 12, 31), NewDate(2024, 1, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.on.DaysSince(tt.start); got != tt.want {
				t.Errorf("DaysSince() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateOfTruncatesTimeOfDay(t *testing.T) {
	instant := time.Date(2024, 6, 15, 23, 59, 58, 0, time.UTC)
	d := DateOf(instant)
	if d.String() != "2024-06-15" {
		t.Errorf("DateOf() = %s, want 2024-06-15", d)
	}
	if got := d.DaysSince(NewDate(2024, 6, 14)); got != 1 {
		t.Errorf("DaysSince after truncation = %d, want 1", got)
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 1, 31},
		{2024, 12, 31},
	}
	for _, tt := range tests {
		if got := LastDayOfMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("LastDayOfMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 31)
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"2024-01-31"` {
		t.Fatalf("MarshalJSON() = %s", data)
	}

	var back Date
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip mismatch: %s != %s", back, d)
	}

	var zero Date
	if err := zero.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("UnmarshalJSON(null) error = %v", err)
	}
	if !zero.IsZero() {
		t.Error("null should unmarshal to zero date")
	}
}

func TestMoneyFromFloat(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{9.99, 999},
		{0.1, 10},
		{12.345, 1235}, // half-up
		{100, 10000},
	}
	for _, tt := range tests {
		if got := MoneyFromFloat(tt.amount).Cents; got != tt.want {
			t.Errorf("MoneyFromFloat(%v) = %d cents, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	valid := RecurringTemplate{
		CategoryID:  "cat-1",
		Amount:      Money{Cents: 999},
		Description: "Gym membership",
		Frequency:   Monthly,
		StartDate:   NewDate(2024, 1, 31),
	}

	tests := []struct {
		name    string
		mutate  func(*RecurringTemplate)
		wantErr error
	}{
		{"valid", func(*RecurringTemplate) {}, nil},
		{"valid with end date", func(rt *RecurringTemplate) { rt.EndDate = NewDate(2024, 12, 31) }, nil},
		{"end before start", func(rt *RecurringTemplate) { rt.EndDate = NewDate(2024, 1, 1) }, ErrInvalidDateRange},
		{"zero amount", func(rt *RecurringTemplate) { rt.Amount = Money{} }, ErrInvalidAmount},
		{"bad frequency", func(rt *RecurringTemplate) { rt.Frequency = "fortnightly" }, ErrInvalidFrequency},
		{"empty description", func(rt *RecurringTemplate) { rt.Description = "  " }, ErrEmptyDescription},
		{"empty category", func(rt *RecurringTemplate) { rt.CategoryID = "" }, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := valid
			tt.mutate(&rt)
			err := rt.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{CategoryID: "cat-1", Amount: Money{Cents: 50000}, Month: 6, Year: 2024}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	bad := valid
	bad.Month = 13
	if err := bad.Validate(); err != ErrInvalidMonth {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidMonth)
	}
}
