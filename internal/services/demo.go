package services

import (
	"time"

	"github.com/google/uuid"

	"forecast/internal/calendar"
	"forecast/internal/core"
)

// DefaultRangeWeeks is the span of a freshly seeded projection.
const DefaultRangeWeeks = 26

// DefaultSettings returns the settings a new user starts with: half a year
// from the upcoming Monday, monthly buckets, alert at zero.
func DefaultSettings(now time.Time) core.Settings {
	start := calendar.SnapToWeekStart(calendar.DateOnly(now))
	return core.Settings{
		Granularity:    core.Month,
		Collapse:       false,
		AlertThreshold: core.Money{},
		Range: core.DateRange{
			Start: start,
			End:   start.AddDate(0, 0, DefaultRangeWeeks*7-1),
		},
	}
}

// DemoItems returns the starter model seeded for new users.
func DemoItems() []core.Item {
	weekly := func(cents int64) *core.RecurrenceRule {
		return &core.RecurrenceRule{Kind: core.Weekly, Amount: core.Money{Cents: cents}}
	}
	monthly := func(cents int64) *core.RecurrenceRule {
		return &core.RecurrenceRule{Kind: core.Monthly, Amount: core.Money{Cents: cents}}
	}
	return []core.Item{
		{
			ID:         uuid.New().String(),
			Section:    core.Inflow,
			Name:       "Salary",
			Amount:     core.Money{Cents: 200000},
			Recurrence: weekly(200000),
		},
		{
			ID:      uuid.New().String(),
			Section: core.Inflow,
			Name:    "Bonus",
			Amount:  core.Money{Cents: 100000},
			Recurrence: &core.RecurrenceRule{
				Kind:   core.Custom,
				Every:  13,
				Amount: core.Money{Cents: 100000},
			},
		},
		{
			ID:         uuid.New().String(),
			Section:    core.Outflow,
			Name:       "Mortgage",
			Amount:     core.Money{Cents: 120000},
			Recurrence: monthly(120000),
		},
		{
			ID:         uuid.New().String(),
			Section:    core.Outflow,
			Name:       "Kindergarten",
			Amount:     core.Money{Cents: 20000},
			Recurrence: weekly(20000),
		},
		{
			ID:         uuid.New().String(),
			Section:    core.Outflow,
			Name:       "Groceries",
			Amount:     core.Money{Cents: 15000},
			Recurrence: weekly(15000),
		},
		{
			ID:         uuid.New().String(),
			Section:    core.Outflow,
			Name:       "Netflix",
			Amount:     core.Money{Cents: 1500},
			Recurrence: monthly(1500),
		},
		{
			ID:         uuid.New().String(),
			Section:    core.Outflow,
			Name:       "Savings",
			Amount:     core.Money{Cents: 10000},
			Recurrence: weekly(10000),
		},
		{
			ID:         uuid.New().String(),
			Section:    core.Outflow,
			Name:       "Adjustment",
			Adjustment: true,
		},
	}
}
