package worker

import (
	"context"
	"testing"
	"time"

	"forecast/internal/amqp"
	"forecast/internal/core"
	"forecast/internal/services"
	"forecast/internal/storage"
)

func TestHandleChangeMessage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	service := services.NewForecastService(store, nil, 520)
	w := NewAlertWorker(service, time.Hour)

	// A model that goes negative in its first month.
	if err := store.SaveSettings(ctx, "alice", core.Settings{
		Granularity: core.Month,
		Range: core.DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceItems(ctx, "alice", []core.Item{
		{
			ID: "rent", Section: core.Outflow, Name: "Rent",
			Recurrence: &core.RecurrenceRule{Kind: core.Monthly, Amount: core.Money{Cents: 150000}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	msg := amqp.NewForecastChangedMessage("alice", "cell")
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Errorf("HandleChangeMessage() error = %v", err)
	}
}

func TestSweepCoversAllUsers(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	service := services.NewForecastService(store, nil, 520)
	w := NewAlertWorker(service, time.Hour)

	for _, user := range []string{"alice", "bob"} {
		if _, err := service.GetSettings(ctx, user); err != nil {
			t.Fatal(err)
		}
	}

	if err := w.sweep(ctx); err != nil {
		t.Errorf("sweep() error = %v", err)
	}
}
