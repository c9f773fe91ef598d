package engine

import (
	"iter"
	"sort"

	"forecast/internal/core"
)

// AssignBuckets sums a single item's occurrences into the bucket sequence.
// Buckets are non-overlapping and exhaustive over the snapped range by
// construction, so each occurrence maps to exactly one bucket. Every bucket
// id is present in the result; an empty bucket reports 0, not absence.
func AssignBuckets(occurrences iter.Seq[core.Occurrence], buckets []core.Bucket) map[string]core.Money {
	sums := make(map[string]core.Money, len(buckets))
	for _, b := range buckets {
		sums[b.ID] = core.Money{}
	}

	for occ := range occurrences {
		// Buckets are sorted by start date, so the containing bucket is the
		// last one starting at or before the occurrence.
		i := sort.Search(len(buckets), func(i int) bool {
			return buckets[i].Start.After(occ.Date)
		}) - 1
		if i < 0 || !buckets[i].Contains(occ.Date) {
			continue
		}
		sums[buckets[i].ID] = sums[buckets[i].ID].Add(occ.Amount)
	}
	return sums
}
