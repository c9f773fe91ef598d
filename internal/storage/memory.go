package storage

import (
	"context"
	"sort"
	"sync"

	"forecast/internal/core"
)

// MemoryStore is the default backend: everything lives in process memory.
// Used for local runs and as the test double for the sqlite backend.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string][]core.Item
	overrides map[string]core.Overrides
	settings  map[string]core.Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:     make(map[string][]core.Item),
		overrides: make(map[string]core.Overrides),
		settings:  make(map[string]core.Settings),
	}
}

func (m *MemoryStore) LoadItems(ctx context.Context, userID string) ([]core.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]core.Item, len(m.items[userID]))
	copy(items, m.items[userID])
	return items, nil
}

func (m *MemoryStore) ReplaceItems(ctx context.Context, userID string, items []core.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]core.Item, len(items))
	copy(stored, items)
	m.items[userID] = stored
	return nil
}

func (m *MemoryStore) LoadOverrides(ctx context.Context, userID string) (core.Overrides, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ov, ok := m.overrides[userID]
	if !ok {
		return core.Overrides{}, nil
	}
	return ov.Clone(), nil
}

func (m *MemoryStore) SetOverride(ctx context.Context, userID string, key core.OverrideKey, value core.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ov, ok := m.overrides[userID]
	if !ok {
		ov = core.Overrides{}
		m.overrides[userID] = ov
	}
	ov[key] = value
	return nil
}

func (m *MemoryStore) DeleteItemOverrides(ctx context.Context, userID string, section core.Section, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ov, ok := m.overrides[userID]; ok {
		ov.RemoveItem(section, itemID)
	}
	return nil
}

func (m *MemoryStore) LoadSettings(ctx context.Context, userID string) (core.Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	return s, ok, nil
}

func (m *MemoryStore) SaveSettings(ctx context.Context, userID string, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[userID] = s
	return nil
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for u := range m.settings {
		seen[u] = struct{}{}
	}
	for u := range m.items {
		seen[u] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (m *MemoryStore) Close() error { return nil }
