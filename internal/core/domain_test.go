package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    Section
		wantErr bool
	}{
		{in: "INFLOW", want: Inflow},
		{in: "outflow", want: Outflow},
		{in: " Inflow ", want: Inflow},
		{in: "sideways", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSection) {
					t.Errorf("ParseSection(%q) error = %v, want ErrInvalidSection", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseSection(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseRecurrenceKind(t *testing.T) {
	for _, in := range []string{"WEEKLY", "biweekly", "Monthly", " custom "} {
		if _, err := ParseRecurrenceKind(in); err != nil {
			t.Errorf("ParseRecurrenceKind(%q) error = %v", in, err)
		}
	}
	if _, err := ParseRecurrenceKind("DAILY"); !errors.Is(err, ErrInvalidRecurrence) {
		t.Errorf("ParseRecurrenceKind(DAILY) error = %v, want ErrInvalidRecurrence", err)
	}
}

func TestParseGranularity(t *testing.T) {
	for _, in := range []string{"WEEK", "month", "Quarter", "YEAR"} {
		if _, err := ParseGranularity(in); err != nil {
			t.Errorf("ParseGranularity(%q) error = %v", in, err)
		}
	}
	if _, err := ParseGranularity("DECADE"); err == nil {
		t.Error("ParseGranularity(DECADE) accepted")
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    RecurrenceRule
		wantErr bool
	}{
		{name: "weekly", rule: RecurrenceRule{Kind: Weekly}},
		{name: "biweekly", rule: RecurrenceRule{Kind: Biweekly}},
		{name: "monthly", rule: RecurrenceRule{Kind: Monthly}},
		{name: "custom with stride", rule: RecurrenceRule{Kind: Custom, Every: 13}},
		{name: "custom stride zero", rule: RecurrenceRule{Kind: Custom, Every: 0}, wantErr: true},
		{name: "custom stride negative", rule: RecurrenceRule{Kind: Custom, Every: -1}, wantErr: true},
		{name: "unknown kind", rule: RecurrenceRule{Kind: "DAILY"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidRecurrence) {
				t.Errorf("Validate() error = %v, want ErrInvalidRecurrence", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr error
	}{
		{
			name: "valid",
			item: Item{ID: "a", Section: Inflow, Name: "Salary"},
		},
		{
			name:    "blank name",
			item:    Item{ID: "a", Section: Inflow, Name: "   "},
			wantErr: ErrEmptyName,
		},
		{
			name:    "bad section",
			item:    Item{ID: "a", Section: "SIDEWAYS", Name: "x"},
			wantErr: ErrInvalidSection,
		},
		{
			name: "bad recurrence",
			item: Item{ID: "a", Section: Inflow, Name: "x",
				Recurrence: &RecurrenceRule{Kind: Custom}},
			wantErr: ErrInvalidRecurrence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateRangeWeeks(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want int
	}{
		{
			name: "four whole weeks",
			r: DateRange{
				Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC),
			},
			want: 4,
		},
		{
			name: "partial week rounds up",
			r: DateRange{
				Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
			},
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Weeks(); got != tt.want {
				t.Errorf("Weeks() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverrides(t *testing.T) {
	o := Overrides{}
	o.Set(Inflow, "a", "2024-01", Money{Cents: 1})
	o.Set(Inflow, "a", "2024-02", Money{Cents: 2})
	o.Set(Outflow, "a", "2024-01", Money{Cents: 3})
	o.Set(Inflow, "b", "2024-01", Money{Cents: 4})

	if v, ok := o.Get(Inflow, "a", "2024-01"); !ok || v.Cents != 1 {
		t.Errorf("Get = %v, %v, want 1, true", v, ok)
	}
	if _, ok := o.Get(Outflow, "b", "2024-01"); ok {
		t.Error("Get found an override keyed to a different section")
	}

	clone := o.Clone()
	o.RemoveItem(Inflow, "a")
	if _, ok := o.Get(Inflow, "a", "2024-01"); ok {
		t.Error("RemoveItem left an inflow override behind")
	}
	if _, ok := o.Get(Inflow, "a", "2024-02"); ok {
		t.Error("RemoveItem is not cascading across buckets")
	}
	if _, ok := o.Get(Outflow, "a", "2024-01"); !ok {
		t.Error("RemoveItem crossed section boundary")
	}
	if _, ok := clone.Get(Inflow, "a", "2024-01"); !ok {
		t.Error("Clone shares state with the original")
	}
}
