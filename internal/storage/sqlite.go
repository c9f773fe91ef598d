package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"forecast/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists forecast models in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) LoadItems(ctx context.Context, userID string) ([]core.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section, name, amount_cents, adjustment,
		       recur_kind, recur_every, recur_amount_cents
		FROM items WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var (
			item       core.Item
			adjustment int64
			kind       sql.NullString
			every      sql.NullInt64
			ruleCents  sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.Section, &item.Name, &item.Amount.Cents,
			&adjustment, &kind, &every, &ruleCents); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Adjustment = adjustment != 0
		if kind.Valid {
			item.Recurrence = &core.RecurrenceRule{
				Kind:   core.RecurrenceKind(kind.String),
				Every:  int(every.Int64),
				Amount: core.Money{Cents: ruleCents.Int64},
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) ReplaceItems(ctx context.Context, userID string, items []core.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace items: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for pos, item := range items {
		var kind, every, ruleCents any
		if item.Recurrence != nil {
			kind = string(item.Recurrence.Kind)
			every = item.Recurrence.Every
			ruleCents = item.Recurrence.Amount.Cents
		}
		adjustment := 0
		if item.Adjustment {
			adjustment = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (user_id, id, section, name, amount_cents, adjustment,
			                   recur_kind, recur_every, recur_amount_cents, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, item.ID, string(item.Section), item.Name, item.Amount.Cents,
			adjustment, kind, every, ruleCents, pos); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace items: %w", err)
	}
	slog.DebugContext(ctx, "Items replaced", "user_id", userID, "count", len(items))
	return nil
}

func (s *SQLiteStore) LoadOverrides(ctx context.Context, userID string) (core.Overrides, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section, item_id, bucket_id, value_cents
		FROM overrides WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	overrides := core.Overrides{}
	for rows.Next() {
		var key core.OverrideKey
		var cents int64
		if err := rows.Scan(&key.Section, &key.ItemID, &key.BucketID, &cents); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides[key] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return overrides, nil
}

func (s *SQLiteStore) SetOverride(ctx context.Context, userID string, key core.OverrideKey, value core.Money) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overrides (user_id, section, item_id, bucket_id, value_cents, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, section, item_id, bucket_id)
		DO UPDATE SET value_cents = excluded.value_cents, updated_at = excluded.updated_at`,
		userID, string(key.Section), key.ItemID, key.BucketID, value.Cents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteItemOverrides(ctx context.Context, userID string, section core.Section, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM overrides WHERE user_id = ? AND section = ? AND item_id = ?`,
		userID, string(section), itemID)
	if err != nil {
		return fmt.Errorf("delete item overrides: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context, userID string) (core.Settings, bool, error) {
	var (
		settings  core.Settings
		collapse  int64
		start, end string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT granularity, collapse, alert_threshold_cents, range_start, range_end
		FROM settings WHERE user_id = ?`, userID).
		Scan(&settings.Granularity, &collapse, &settings.AlertThreshold.Cents, &start, &end)
	if err == sql.ErrNoRows {
		return core.Settings{}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("query settings: %w", err)
	}
	settings.Collapse = collapse != 0
	if settings.Range.Start, err = time.ParseInLocation("2006-01-02", start, time.UTC); err != nil {
		return core.Settings{}, false, fmt.Errorf("parse range start %q: %w", start, err)
	}
	if settings.Range.End, err = time.ParseInLocation("2006-01-02", end, time.UTC); err != nil {
		return core.Settings{}, false, fmt.Errorf("parse range end %q: %w", end, err)
	}
	return settings, true, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, userID string, settings core.Settings) error {
	collapse := 0
	if settings.Collapse {
		collapse = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, granularity, collapse, alert_threshold_cents,
		                      range_start, range_end, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			granularity = excluded.granularity,
			collapse = excluded.collapse,
			alert_threshold_cents = excluded.alert_threshold_cents,
			range_start = excluded.range_start,
			range_end = excluded.range_end,
			updated_at = excluded.updated_at`,
		userID, string(settings.Granularity), collapse, settings.AlertThreshold.Cents,
		settings.Range.Start.Format("2006-01-02"), settings.Range.End.Format("2006-01-02"),
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM settings
		UNION SELECT user_id FROM items
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
