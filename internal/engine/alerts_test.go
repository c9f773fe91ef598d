package engine

import (
	"testing"

	"forecast/internal/core"
)

func TestEvaluateAlerts_StrictBoundary(t *testing.T) {
	grid := &core.Grid{
		Buckets: []core.Bucket{
			{ID: "2024-01"},
			{ID: "2024-02"},
			{ID: "2024-03"},
		},
		EndOfPeriod: []core.Money{
			{Cents: 0},
			{Cents: -1},
			{Cents: 1},
		},
	}

	alerts := EvaluateAlerts(grid, core.Money{})
	if len(alerts) != 1 || alerts[0] != "2024-02" {
		t.Errorf("alerts = %v, want exactly the bucket closing at -1 cent", alerts)
	}
}

func TestEvaluateAlerts_NoAlerts(t *testing.T) {
	grid := &core.Grid{
		Buckets:     []core.Bucket{{ID: "2024-01"}},
		EndOfPeriod: []core.Money{{Cents: 500}},
	}
	if alerts := EvaluateAlerts(grid, core.Money{}); len(alerts) != 0 {
		t.Errorf("alerts = %v, want none", alerts)
	}
}
