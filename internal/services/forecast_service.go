package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"forecast/internal/calendar"
	"forecast/internal/core"
	"forecast/internal/engine"
	"forecast/internal/storage"
)

// ErrProtectedItem is returned when a mutation targets the adjustment row.
var ErrProtectedItem = errors.New("adjustment row cannot be modified")

// EventPublisher publishes forecast change notifications. The service
// tolerates a nil publisher; mutations then stay local.
type EventPublisher interface {
	PublishForecastChanged(ctx context.Context, userID, reason string) error
}

// GridResult bundles a built grid with the alerts evaluated against it and
// the settings it was built from.
type GridResult struct {
	Grid     *core.Grid    `json:"grid"`
	Alerts   []string      `json:"alerts"`
	Settings core.Settings `json:"settings"`
}

// ForecastService orchestrates forecast operations across storage and AMQP.
// Reads rebuild the grid from the persisted model; mutations are serialized
// per user so concurrent edits to the same model never interleave.
type ForecastService struct {
	store         storage.Store
	events        EventPublisher
	maxRangeWeeks int
	now           func() time.Time

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewForecastService(store storage.Store, events EventPublisher, maxRangeWeeks int) *ForecastService {
	return &ForecastService{
		store:         store,
		events:        events,
		maxRangeWeeks: maxRangeWeeks,
		now:           time.Now,
		userLocks:     make(map[string]*sync.Mutex),
	}
}

func (s *ForecastService) lockUser(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// GetSettings returns the user's settings, seeding a demo model for users
// who have none yet.
func (s *ForecastService) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()
	return s.ensureUser(ctx, userID)
}

// UpdateSettings replaces the user's granularity, collapse and alert
// threshold. The range is updated separately via ApplyDateRange.
func (s *ForecastService) UpdateSettings(ctx context.Context, userID string, granularity core.Granularity, collapse bool, threshold core.Money) (core.Settings, error) {
	if _, err := core.ParseGranularity(string(granularity)); err != nil {
		return core.Settings{}, err
	}

	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	settings, err := s.ensureUser(ctx, userID)
	if err != nil {
		return core.Settings{}, err
	}
	settings.Granularity = granularity
	settings.Collapse = collapse
	settings.AlertThreshold = threshold

	if err := s.store.SaveSettings(ctx, userID, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.publishChanged(ctx, userID, "settings")
	return settings, nil
}

// ApplyDateRange replaces the projection range. The raw endpoints are
// persisted; snapping happens on every build so week alignment survives
// later granularity changes.
func (s *ForecastService) ApplyDateRange(ctx context.Context, userID string, r core.DateRange) (core.Settings, error) {
	snapped, err := calendar.Snap(r)
	if err != nil {
		return core.Settings{}, err
	}
	if weeks := snapped.Weeks(); weeks > s.maxRangeWeeks {
		return core.Settings{}, fmt.Errorf("%w: %d weeks exceeds limit of %d", core.ErrInvalidRange, weeks, s.maxRangeWeeks)
	}

	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	settings, err := s.ensureUser(ctx, userID)
	if err != nil {
		return core.Settings{}, err
	}
	settings.Range = r

	if err := s.store.SaveSettings(ctx, userID, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.publishChanged(ctx, userID, "range")
	return settings, nil
}

// Grid builds the user's projection grid and evaluates alerts against it.
func (s *ForecastService) Grid(ctx context.Context, userID string) (*GridResult, error) {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()
	return s.buildGrid(ctx, userID)
}

func (s *ForecastService) buildGrid(ctx context.Context, userID string) (*GridResult, error) {
	settings, err := s.ensureUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.LoadItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	overrides, err := s.store.LoadOverrides(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}

	grid, err := engine.BuildGrid(items, overrides, settings)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	return &GridResult{
		Grid:     grid,
		Alerts:   engine.EvaluateAlerts(grid, settings.AlertThreshold),
		Settings: settings,
	}, nil
}

// EditCell records a per-cell override. The bucket must exist in the
// current projection; outflow values on regular items are normalized to
// magnitudes, adjustment rows keep their sign.
func (s *ForecastService) EditCell(ctx context.Context, userID string, section core.Section, itemID, bucketID string, value core.Money) error {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	settings, err := s.ensureUser(ctx, userID)
	if err != nil {
		return err
	}

	item, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item.Section != section {
		return fmt.Errorf("%w: item %s is not in section %s", core.ErrItemNotFound, itemID, section)
	}

	snapped, err := calendar.Snap(settings.Range)
	if err != nil {
		return err
	}
	buckets, err := calendar.BucketsFor(snapped, settings.Granularity)
	if err != nil {
		return err
	}
	if !bucketExists(buckets, bucketID) {
		return fmt.Errorf("%w: %s", core.ErrUnknownBucket, bucketID)
	}

	if section == core.Outflow && !item.Adjustment {
		value = value.Abs()
	}

	key := core.OverrideKey{Section: section, ItemID: itemID, BucketID: bucketID}
	if err := s.store.SetOverride(ctx, userID, key, value); err != nil {
		return fmt.Errorf("set override: %w", err)
	}
	s.publishChanged(ctx, userID, "cell")
	return nil
}

// AddItem appends a new one-off item to a section. Outflow items keep
// their amount as a magnitude. The adjustment row stays last.
func (s *ForecastService) AddItem(ctx context.Context, userID string, section core.Section, name string, amount core.Money) (core.Item, error) {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.ensureUser(ctx, userID); err != nil {
		return core.Item{}, err
	}

	item := core.Item{
		ID:      uuid.New().String(),
		Section: section,
		Name:    name,
		Amount:  amount,
	}
	if section == core.Outflow {
		item.Amount = amount.Abs()
	}
	if err := item.Validate(); err != nil {
		return core.Item{}, err
	}

	items, err := s.store.LoadItems(ctx, userID)
	if err != nil {
		return core.Item{}, fmt.Errorf("load items: %w", err)
	}
	items = insertBeforeAdjustment(items, item)

	if err := s.store.ReplaceItems(ctx, userID, items); err != nil {
		return core.Item{}, fmt.Errorf("replace items: %w", err)
	}
	s.publishChanged(ctx, userID, "item_added")
	return item, nil
}

// DeleteItem removes an item and cascades its overrides. The adjustment
// row cannot be removed.
func (s *ForecastService) DeleteItem(ctx context.Context, userID, itemID string) error {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	item, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item.Adjustment {
		return ErrProtectedItem
	}

	items, err := s.store.LoadItems(ctx, userID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	if err := s.store.ReplaceItems(ctx, userID, kept); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}
	if err := s.store.DeleteItemOverrides(ctx, userID, item.Section, itemID); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	s.publishChanged(ctx, userID, "item_deleted")
	return nil
}

// SetRecurrence attaches or clears an item's recurrence rule. Overrides for
// the item are dropped: they were edits against amounts the new rule no
// longer produces.
func (s *ForecastService) SetRecurrence(ctx context.Context, userID, itemID string, rule *core.RecurrenceRule) error {
	if rule != nil {
		if err := rule.Validate(); err != nil {
			return err
		}
	}

	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	items, err := s.store.LoadItems(ctx, userID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	var target *core.Item
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", core.ErrItemNotFound, itemID)
	}
	if target.Adjustment {
		return ErrProtectedItem
	}
	target.Recurrence = rule

	if err := s.store.ReplaceItems(ctx, userID, items); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}
	if err := s.store.DeleteItemOverrides(ctx, userID, target.Section, itemID); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	s.publishChanged(ctx, userID, "recurrence")
	return nil
}

// ListUsers exposes the store's user list for background sweeps.
func (s *ForecastService) ListUsers(ctx context.Context) ([]string, error) {
	return s.store.ListUsers(ctx)
}

func (s *ForecastService) findItem(ctx context.Context, userID, itemID string) (core.Item, error) {
	items, err := s.store.LoadItems(ctx, userID)
	if err != nil {
		return core.Item{}, fmt.Errorf("load items: %w", err)
	}
	for _, it := range items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return core.Item{}, fmt.Errorf("%w: %s", core.ErrItemNotFound, itemID)
}

// ensureUser loads the user's settings, seeding the demo model on first
// contact. Callers must hold the user lock.
func (s *ForecastService) ensureUser(ctx context.Context, userID string) (core.Settings, error) {
	settings, ok, err := s.store.LoadSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if ok {
		return settings, nil
	}

	settings = DefaultSettings(s.now())
	if err := s.store.ReplaceItems(ctx, userID, DemoItems()); err != nil {
		return core.Settings{}, fmt.Errorf("seed items: %w", err)
	}
	if err := s.store.SaveSettings(ctx, userID, settings); err != nil {
		return core.Settings{}, fmt.Errorf("seed settings: %w", err)
	}
	slog.InfoContext(ctx, "Seeded demo forecast model", "user_id", userID)
	return settings, nil
}

func (s *ForecastService) publishChanged(ctx context.Context, userID, reason string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishForecastChanged(ctx, userID, reason); err != nil {
		// Mutation already persisted; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish forecast change",
			"user_id", userID, "reason", reason, "error", err)
	}
}

func bucketExists(buckets []core.Bucket, id string) bool {
	for _, b := range buckets {
		if b.ID == id {
			return true
		}
	}
	return false
}

func insertBeforeAdjustment(items []core.Item, item core.Item) []core.Item {
	for i, it := range items {
		if it.Adjustment && it.Section == item.Section {
			out := make([]core.Item, 0, len(items)+1)
			out = append(out, items[:i]...)
			out = append(out, item)
			out = append(out, items[i:]...)
			return out
		}
	}
	return append(items, item)
}
