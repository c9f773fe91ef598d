package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Inflow  Section = "INFLOW"
	Outflow Section = "OUTFLOW"
)

const (
	Weekly   RecurrenceKind = "WEEKLY"
	Biweekly RecurrenceKind = "BIWEEKLY"
	Monthly  RecurrenceKind = "MONTHLY"
	Custom   RecurrenceKind = "CUSTOM"
)

const (
	Week    Granularity = "WEEK"
	Month   Granularity = "MONTH"
	Quarter Granularity = "QUARTER"
	Year    Granularity = "YEAR"
)

type (
	Section        string
	RecurrenceKind string
	Granularity    string

	// RecurrenceRule describes how an item repeats within a projection range.
	// Every is the stride in weeks and is meaningful only for Custom; Weekly
	// implies 1, Biweekly implies 2, Monthly steps by calendar month.
	RecurrenceRule struct {
		Kind   RecurrenceKind
		Every  int
		Amount Money
	}

	// Item is a single cash-flow row. Outflow amounts are stored as
	// magnitudes; the grid builder subtracts them. Adjustment rows have no
	// recurrence and accept values of either sign.
	Item struct {
		ID         string
		Section    Section
		Name       string
		Amount     Money
		Recurrence *RecurrenceRule
		Adjustment bool
	}

	// DateRange is a closed calendar-date interval. Both endpoints are
	// snapped (start forward to Monday, end forward to Sunday) before any
	// bucketing, so the realized range always covers whole weeks.
	DateRange struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// Bucket is one contiguous aggregation span. ID is derived from the
	// bucket's nominal calendar start and doubles as the override key, so it
	// stays stable even when the span itself is clipped to the range.
	Bucket struct {
		ID    string    `json:"id"`
		Label string    `json:"label"`
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// Occurrence is one dated realization of an item. Recomputed on every
	// projection, never persisted.
	Occurrence struct {
		ItemID string
		Date   time.Time
		Amount Money
	}

	// Settings is the per-user projection configuration.
	Settings struct {
		Granularity    Granularity `json:"granularity"`
		Collapse       bool        `json:"collapse"`
		AlertThreshold Money       `json:"alert_threshold"`
		Range          DateRange   `json:"range"`
	}
)

var (
	ErrInvalidRange      = errors.New("invalid date range")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrUnknownBucket     = errors.New("unknown bucket")
	ErrInvalidSection    = errors.New("invalid section")
	ErrItemNotFound      = errors.New("item not found")
	ErrEmptyName         = errors.New("empty item name")
)

// ParseSection normalizes a section string from the boundary.
func ParseSection(s string) (Section, error) {
	switch Section(strings.ToUpper(strings.TrimSpace(s))) {
	case Inflow:
		return Inflow, nil
	case Outflow:
		return Outflow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSection, s)
	}
}

// ParseRecurrenceKind normalizes a recurrence kind string from the boundary.
// The engine itself rejects anything that did not pass through here.
func ParseRecurrenceKind(s string) (RecurrenceKind, error) {
	switch RecurrenceKind(strings.ToUpper(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly, nil
	case Biweekly:
		return Biweekly, nil
	case Monthly:
		return Monthly, nil
	case Custom:
		return Custom, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidRecurrence, s)
	}
}

// ParseGranularity normalizes a granularity string from the boundary.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToUpper(strings.TrimSpace(s))) {
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	case Quarter:
		return Quarter, nil
	case Year:
		return Year, nil
	default:
		return "", fmt.Errorf("invalid granularity %q", s)
	}
}

func (r RecurrenceRule) Validate() error {
	switch r.Kind {
	case Weekly, Biweekly, Monthly:
		// Stride is implied by the kind.
	case Custom:
		if r.Every < 1 {
			return fmt.Errorf("%w: custom stride must be >= 1, got %d", ErrInvalidRecurrence, r.Every)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecurrence, r.Kind)
	}
	return nil
}

// Stride returns the step width in weeks. Monthly has no fixed week stride
// and returns 0; callers step it by calendar month instead.
func (r RecurrenceRule) Stride() int {
	switch r.Kind {
	case Weekly:
		return 1
	case Biweekly:
		return 2
	case Custom:
		return r.Every
	default:
		return 0
	}
}

func (i Item) Validate() error {
	if i.Section != Inflow && i.Section != Outflow {
		return fmt.Errorf("%w: %q", ErrInvalidSection, i.Section)
	}
	if len(strings.TrimSpace(i.Name)) == 0 {
		return ErrEmptyName
	}
	if len(i.Name) > 200 {
		return errors.New("item name too long (max 200 characters)")
	}
	if i.Recurrence != nil {
		return i.Recurrence.Validate()
	}
	return nil
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: missing endpoint", ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	return nil
}

// Weeks reports how many whole weeks the range spans, rounded up.
func (r DateRange) Weeks() int {
	days := int(r.End.Sub(r.Start).Hours()/24) + 1
	return (days + 6) / 7
}

// Contains reports whether d falls inside the bucket's span.
func (b Bucket) Contains(d time.Time) bool {
	return !d.Before(b.Start) && !d.After(b.End)
}

func (s Settings) Validate() error {
	if _, err := ParseGranularity(string(s.Granularity)); err != nil {
		return err
	}
	return s.Range.Validate()
}
