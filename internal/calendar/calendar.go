// Package calendar provides the date utilities shared by the recurrence
// expander and the bucketer: week snapping and bucket sequence construction.
//
// Snapping policy: both endpoints snap FORWARD, the start to the next
// Monday (unchanged if already Monday), the end to the next Sunday. The
// snapped range therefore always covers whole weeks, and a sub-week input
// range can invert after snapping, which is rejected.
package calendar

import (
	"fmt"
	"time"

	"forecast/internal/core"
)

// DateOnly truncates a time to midnight UTC. All bucket math operates on
// calendar dates.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SnapToWeekStart moves d forward to the next Monday; a Monday stays put.
func SnapToWeekStart(d time.Time) time.Time {
	d = DateOnly(d)
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// SnapToWeekEnd moves d forward to the next Sunday; a Sunday stays put.
func SnapToWeekEnd(d time.Time) time.Time {
	d = DateOnly(d)
	offset := (int(time.Sunday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// Snap applies the forward-snapping policy to both endpoints and validates
// that the realized range is still ordered.
func Snap(r core.DateRange) (core.DateRange, error) {
	if err := r.Validate(); err != nil {
		return core.DateRange{}, err
	}
	snapped := core.DateRange{
		Start: SnapToWeekStart(r.Start),
		End:   SnapToWeekEnd(r.End),
	}
	if snapped.Start.After(snapped.End) {
		return core.DateRange{}, fmt.Errorf("%w: range %s..%s inverts after week snapping",
			core.ErrInvalidRange, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	return snapped, nil
}

// BucketsFor partitions the snapped range into ordered, contiguous,
// non-overlapping buckets for the granularity. MONTH, QUARTER and YEAR
// buckets follow calendar boundaries but are clipped to the snapped range;
// their ids keep the nominal calendar start regardless of clipping.
func BucketsFor(r core.DateRange, g core.Granularity) ([]core.Bucket, error) {
	snapped, err := Snap(r)
	if err != nil {
		return nil, err
	}

	switch g {
	case core.Week:
		return weekBuckets(snapped), nil
	case core.Month:
		return spanBuckets(snapped, nextMonth, monthID, monthLabel), nil
	case core.Quarter:
		return spanBuckets(snapped, nextQuarter, quarterID, quarterID), nil
	case core.Year:
		return spanBuckets(snapped, nextYear, yearID, yearID), nil
	default:
		return nil, fmt.Errorf("invalid granularity %q", g)
	}
}

func weekBuckets(r core.DateRange) []core.Bucket {
	var out []core.Bucket
	for cur := r.Start; !cur.After(r.End); cur = cur.AddDate(0, 0, 7) {
		out = append(out, core.Bucket{
			ID:    cur.Format("2006-01-02"),
			Label: cur.Format("Jan 02"),
			Start: cur,
			End:   cur.AddDate(0, 0, 6),
		})
	}
	return out
}

// spanBuckets walks calendar-aligned spans across the range. next returns
// the nominal start of the span following d's span; id and label are
// derived from the nominal (unclipped) span start.
func spanBuckets(r core.DateRange, next func(time.Time) time.Time, id, label func(time.Time) string) []core.Bucket {
	var out []core.Bucket
	cur := r.Start
	for !cur.After(r.End) {
		nominalNext := next(cur)
		end := nominalNext.AddDate(0, 0, -1)
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, core.Bucket{
			ID:    id(cur),
			Label: label(cur),
			Start: cur,
			End:   end,
		})
		cur = nominalNext
	}
	return out
}

func nextMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

func nextQuarter(d time.Time) time.Time {
	q := (int(d.Month()) - 1) / 3
	return time.Date(d.Year(), time.Month(q*3+4), 1, 0, 0, 0, 0, time.UTC)
}

func nextYear(d time.Time) time.Time {
	return time.Date(d.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func monthID(d time.Time) string { return d.Format("2006-01") }

func monthLabel(d time.Time) string { return d.Format("Jan 06") }

func quarterID(d time.Time) string {
	return fmt.Sprintf("%d-Q%d", d.Year(), (int(d.Month())-1)/3+1)
}

func yearID(d time.Time) string { return d.Format("2006") }
