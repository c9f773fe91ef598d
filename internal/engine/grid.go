package engine

import (
	"forecast/internal/calendar"
	"forecast/internal/core"
)

// BuildGrid is the engine's entry point. It expands every item, buckets the
// occurrences at the requested granularity, overlays manual overrides and
// folds the running balance left to right across the bucket sequence.
//
// The fold is strictly chronological: bucket order comes from the calendar,
// never from item or override insertion order. The balance enters the first
// bucket at 0; inflow rows add, outflow rows subtract. Overrides whose
// bucket id is not in the current sequence are inert and simply ignored.
func BuildGrid(items []core.Item, overrides core.Overrides, settings core.Settings) (*core.Grid, error) {
	buckets, err := calendar.BucketsFor(settings.Range, settings.Granularity)
	if err != nil {
		return nil, err
	}
	snapped, err := calendar.Snap(settings.Range)
	if err != nil {
		return nil, err
	}

	n := len(buckets)
	grid := &core.Grid{
		Buckets:       buckets,
		InflowTotals:  make([]core.Money, n),
		OutflowTotals: make([]core.Money, n),
		NetFlow:       make([]core.Money, n),
		StartOfPeriod: make([]core.Money, n),
		EndOfPeriod:   make([]core.Money, n),
		Collapsed:     settings.Collapse,
	}

	var inflows, outflows []core.Row
	for _, item := range items {
		row, err := buildRow(item, snapped, buckets, overrides)
		if err != nil {
			return nil, err
		}
		for i, v := range row.Values {
			switch item.Section {
			case core.Inflow:
				grid.InflowTotals[i] = grid.InflowTotals[i].Add(v)
			case core.Outflow:
				grid.OutflowTotals[i] = grid.OutflowTotals[i].Add(v)
			}
		}
		if item.Section == core.Inflow {
			inflows = append(inflows, row)
		} else {
			outflows = append(outflows, row)
		}
	}

	var balance core.Money
	for i := range buckets {
		grid.StartOfPeriod[i] = balance
		grid.NetFlow[i] = grid.InflowTotals[i].Sub(grid.OutflowTotals[i])
		balance = balance.Add(grid.NetFlow[i])
		grid.EndOfPeriod[i] = balance
	}

	// Collapse hides per-item rows; subtotal and balance math is unaffected.
	if !settings.Collapse {
		grid.Inflows = inflows
		grid.Outflows = outflows
	}
	return grid, nil
}

func buildRow(item core.Item, snapped core.DateRange, buckets []core.Bucket, overrides core.Overrides) (core.Row, error) {
	seq, err := Expand(item, snapped)
	if err != nil {
		return core.Row{}, err
	}
	sums := AssignBuckets(seq, buckets)

	row := core.Row{
		ItemID:     item.ID,
		Name:       item.Name,
		Adjustment: item.Adjustment,
		Values:     make([]core.Money, len(buckets)),
		Overridden: make([]bool, len(buckets)),
	}
	for i, b := range buckets {
		v := sums[b.ID]
		if ov, ok := overrides.Get(item.Section, item.ID, b.ID); ok {
			v = ov
			row.Overridden[i] = true
		}
		row.Values[i] = v
	}
	return row, nil
}
