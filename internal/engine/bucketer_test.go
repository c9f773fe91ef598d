package engine

import (
	"testing"
	"time"

	"forecast/internal/calendar"
	"forecast/internal/core"
)

func TestAssignBuckets_WeeklyIntoMonth(t *testing.T) {
	// Four weekly occurrences of 50 inside a single month bucket sum to 200.
	r := core.DateRange{Start: date(2024, time.April, 1), End: date(2024, time.April, 28)}
	buckets, err := calendar.BucketsFor(r, core.Month)
	if err != nil {
		t.Fatalf("BucketsFor() error = %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}

	item := core.Item{
		ID:         "groceries",
		Section:    core.Outflow,
		Name:       "Groceries",
		Recurrence: &core.RecurrenceRule{Kind: core.Weekly, Amount: core.Money{Cents: 5000}},
	}
	seq, err := Expand(item, r)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	sums := AssignBuckets(seq, buckets)
	if got := sums["2024-04"]; got.Cents != 20000 {
		t.Errorf("bucket sum = %d cents, want 20000", got.Cents)
	}
}

func TestAssignBuckets_SeedsEmptyBuckets(t *testing.T) {
	r := core.DateRange{Start: date(2024, time.January, 1), End: date(2024, time.March, 31)}
	buckets, err := calendar.BucketsFor(r, core.Month)
	if err != nil {
		t.Fatalf("BucketsFor() error = %v", err)
	}

	item := core.Item{ID: "oneoff", Section: core.Inflow, Name: "Refund", Amount: core.Money{Cents: 100}}
	seq, err := Expand(item, r)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	sums := AssignBuckets(seq, buckets)
	if len(sums) != 3 {
		t.Fatalf("got %d bucket entries, want 3", len(sums))
	}
	if sums["2024-01"].Cents != 100 {
		t.Errorf("first bucket = %d, want 100", sums["2024-01"].Cents)
	}
	for _, id := range []string{"2024-02", "2024-03"} {
		if !sums[id].IsZero() {
			t.Errorf("bucket %s = %d, want 0", id, sums[id].Cents)
		}
	}
}

func TestAssignBuckets_OccurrenceOnBucketBoundary(t *testing.T) {
	r := core.DateRange{Start: date(2024, time.January, 1), End: date(2024, time.January, 28)}
	buckets, err := calendar.BucketsFor(r, core.Week)
	if err != nil {
		t.Fatalf("BucketsFor() error = %v", err)
	}

	item := core.Item{
		ID:         "rent",
		Section:    core.Outflow,
		Name:       "Rent",
		Recurrence: &core.RecurrenceRule{Kind: core.Biweekly, Amount: core.Money{Cents: 700}},
	}
	seq, err := Expand(item, r)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	sums := AssignBuckets(seq, buckets)
	want := map[string]int64{
		"2024-01-01": 700,
		"2024-01-08": 0,
		"2024-01-15": 700,
		"2024-01-22": 0,
	}
	for id, cents := range want {
		if sums[id].Cents != cents {
			t.Errorf("bucket %s = %d, want %d", id, sums[id].Cents, cents)
		}
	}
}
