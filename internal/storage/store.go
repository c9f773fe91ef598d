// Package storage persists forecast models. The engine never touches it:
// the service loads immutable snapshots here, feeds them to the engine and
// writes back whatever the mutation changed.
package storage

import (
	"context"
	"fmt"

	"forecast/internal/core"
)

// Store is the persistence collaborator. Implementations must be safe for
// concurrent use; the service additionally serializes mutations per user.
type Store interface {
	// LoadItems returns a user's items in stable position order.
	LoadItems(ctx context.Context, userID string) ([]core.Item, error)

	// ReplaceItems atomically replaces a user's item list.
	ReplaceItems(ctx context.Context, userID string, items []core.Item) error

	// LoadOverrides returns all of a user's cell overrides, including inert
	// ones whose bucket is outside the current range.
	LoadOverrides(ctx context.Context, userID string) (core.Overrides, error)

	// SetOverride upserts one cell override.
	SetOverride(ctx context.Context, userID string, key core.OverrideKey, value core.Money) error

	// DeleteItemOverrides removes every override belonging to an item.
	DeleteItemOverrides(ctx context.Context, userID string, section core.Section, itemID string) error

	// LoadSettings returns a user's settings; ok is false when the user has
	// no persisted model yet.
	LoadSettings(ctx context.Context, userID string) (s core.Settings, ok bool, err error)

	// SaveSettings upserts a user's settings.
	SaveSettings(ctx context.Context, userID string, s core.Settings) error

	// ListUsers returns every user id with a persisted model.
	ListUsers(ctx context.Context) ([]string, error)

	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend      string // "memory" or "sqlite"
	SQLiteDBPath string
}

// New creates a store from config.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLiteDBPath)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
