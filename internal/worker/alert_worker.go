package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"forecast/internal/amqp"
	"forecast/internal/services"
)

// AlertWorker watches forecast models for buckets whose projected closing
// balance falls under the alert threshold. It reacts to change events from
// AMQP and additionally sweeps every known user on a timer, so alerts fire
// even for models nobody touched since the range rolled forward.
type AlertWorker struct {
	service  *services.ForecastService
	interval time.Duration
}

func NewAlertWorker(service *services.ForecastService, interval time.Duration) *AlertWorker {
	return &AlertWorker{
		service:  service,
		interval: interval,
	}
}

// HandleChangeMessage rebuilds one user's projection after a change event.
func (w *AlertWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ForecastChangedMessage) error {
	slog.InfoContext(ctx, "Processing forecast change",
		"user_id", msg.UserID,
		"reason", msg.Reason)
	return w.checkUser(ctx, msg.UserID)
}

// RunSweep periodically re-evaluates every user until ctx is cancelled.
func (w *AlertWorker) RunSweep(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "Alert sweep failed", "error", err)
			}
		}
	}
}

func (w *AlertWorker) sweep(ctx context.Context) error {
	users, err := w.service.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, userID := range users {
		if err := w.checkUser(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Alert check failed",
				"user_id", userID, "error", err)
		}
	}
	return nil
}

func (w *AlertWorker) checkUser(ctx context.Context, userID string) error {
	result, err := w.service.Grid(ctx, userID)
	if err != nil {
		return fmt.Errorf("build grid for %s: %w", userID, err)
	}
	if len(result.Alerts) == 0 {
		slog.DebugContext(ctx, "No alerts", "user_id", userID)
		return nil
	}

	for _, bucketID := range result.Alerts {
		i := result.Grid.BucketIndex(bucketID)
		slog.WarnContext(ctx, "Projected balance below threshold",
			"user_id", userID,
			"bucket_id", bucketID,
			"balance_cents", result.Grid.EndOfPeriod[i].Cents,
			"threshold_cents", result.Settings.AlertThreshold.Cents)
	}
	return nil
}
