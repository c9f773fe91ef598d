package engine

import "forecast/internal/core"

// EvaluateAlerts returns the ids of buckets whose end-of-period balance is
// strictly below the threshold. A balance exactly at the threshold is not
// flagged: with threshold 0, a bucket ending at 0 passes and one ending at
// -0.01 is flagged.
func EvaluateAlerts(g *core.Grid, threshold core.Money) []string {
	var flagged []string
	for i, b := range g.Buckets {
		if g.EndOfPeriod[i].LessThan(threshold) {
			flagged = append(flagged, b.ID)
		}
	}
	return flagged
}
