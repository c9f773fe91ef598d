package core

// Row is one item's projection across the bucket sequence. Values and
// Overridden are aligned with Grid.Buckets.
type Row struct {
	ItemID     string  `json:"item_id"`
	Name       string  `json:"name"`
	Adjustment bool    `json:"adjustment,omitempty"`
	Values     []Money `json:"values"`
	Overridden []bool  `json:"overridden"`
}

// Grid is the engine's output: a plain data structure with no presentation
// markup. Rebuilt fully on every query, never mutated in place.
//
// StartOfPeriod[i] is the running balance entering bucket i (0 for the
// first bucket), EndOfPeriod[i] the balance after bucket i's contributions.
type Grid struct {
	Buckets       []Bucket `json:"buckets"`
	Inflows       []Row    `json:"inflows,omitempty"`
	Outflows      []Row    `json:"outflows,omitempty"`
	InflowTotals  []Money  `json:"inflow_totals"`
	OutflowTotals []Money  `json:"outflow_totals"`
	NetFlow       []Money  `json:"net_flow"`
	StartOfPeriod []Money  `json:"start_of_period"`
	EndOfPeriod   []Money  `json:"end_of_period"`
	Collapsed     bool     `json:"collapsed"`
}

// BucketIndex returns the position of a bucket id, or -1.
func (g *Grid) BucketIndex(bucketID string) int {
	for i, b := range g.Buckets {
		if b.ID == bucketID {
			return i
		}
	}
	return -1
}
