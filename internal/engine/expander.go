// Package engine implements the projection engine: recurrence expansion,
// bucketing, grid building and alert evaluation. Every entry point is a
// pure function of its inputs; the engine holds no state and is safe to
// call concurrently for different users.
package engine

import (
	"fmt"
	"iter"
	"time"

	"forecast/internal/calendar"
	"forecast/internal/core"
)

// expander is the strategy interface for one recurrence kind. Each
// implementation yields the dated occurrences of an item inside a snapped
// range. Sequences are finite and restartable: ranging twice replays them.
type expander interface {
	occurrences(item core.Item, r core.DateRange) iter.Seq[core.Occurrence]
}

// weekStepper covers WEEKLY, BIWEEKLY and CUSTOM: fixed strides of whole
// weeks from the snapped range start.
type weekStepper struct{}

func (weekStepper) occurrences(item core.Item, r core.DateRange) iter.Seq[core.Occurrence] {
	stride := item.Recurrence.Stride()
	amount := item.Recurrence.Amount
	return func(yield func(core.Occurrence) bool) {
		for cur := r.Start; !cur.After(r.End); cur = cur.AddDate(0, 0, stride*7) {
			if !yield(core.Occurrence{ItemID: item.ID, Date: cur, Amount: amount}) {
				return
			}
		}
	}
}

// monthStepper anchors to the range start's day-of-month, clamped to the
// last valid day of shorter months (Jan 31 -> Feb 29 in a leap year).
type monthStepper struct{}

func (monthStepper) occurrences(item core.Item, r core.DateRange) iter.Seq[core.Occurrence] {
	anchorDay := r.Start.Day()
	amount := item.Recurrence.Amount
	return func(yield func(core.Occurrence) bool) {
		year, month := r.Start.Year(), r.Start.Month()
		for i := 0; ; i++ {
			date := monthAnchor(year, month+time.Month(i), anchorDay)
			if date.After(r.End) {
				return
			}
			if !yield(core.Occurrence{ItemID: item.ID, Date: date, Amount: amount}) {
				return
			}
		}
	}
}

// monthAnchor returns day-of-month day in the given month, clamped to the
// month's last day. time.Date normalizes month overflow.
func monthAnchor(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// singleShot realizes items without a recurrence rule exactly once, at the
// snapped range start (the grid's first bucket).
type singleShot struct{}

func (singleShot) occurrences(item core.Item, r core.DateRange) iter.Seq[core.Occurrence] {
	return func(yield func(core.Occurrence) bool) {
		yield(core.Occurrence{ItemID: item.ID, Date: r.Start, Amount: item.Amount})
	}
}

// expanders maps recurrence kinds to their expansion strategies.
var expanders = map[core.RecurrenceKind]expander{
	core.Weekly:   weekStepper{},
	core.Biweekly: weekStepper{},
	core.Custom:   weekStepper{},
	core.Monthly:  monthStepper{},
}

// Expand turns an item into its dated occurrences inside the range. The
// range is snapped before stepping, so calling with an already snapped
// range is a no-op. The returned sequence is lazily evaluated and can be
// ranged any number of times.
func Expand(item core.Item, r core.DateRange) (iter.Seq[core.Occurrence], error) {
	snapped, err := calendar.Snap(r)
	if err != nil {
		return nil, err
	}

	if item.Recurrence == nil {
		return singleShot{}.occurrences(item, snapped), nil
	}

	if err := item.Recurrence.Validate(); err != nil {
		return nil, err
	}
	exp, ok := expanders[item.Recurrence.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", core.ErrInvalidRecurrence, item.Recurrence.Kind)
	}
	return exp.occurrences(item, snapped), nil
}
