package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteSettingsStore persists runtime settings in the settings table.
// It satisfies config.SettingsStore.
type SQLiteSettingsStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSettingsStore returns a settings store over db.
func NewSQLiteSettingsStore(db *sql.DB) *SQLiteSettingsStore {
	return &SQLiteSettingsStore{db: db, now: time.Now}
}

// Load returns every saved setting. Keys that were never saved are absent.
func (s *SQLiteSettingsStore) Load() (map[string]string, error) {
	ctx := context.Background()
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	settings := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// Save upserts one setting and stamps its update time.
func (s *SQLiteSettingsStore) Save(key, value string) error {
	const q = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(context.Background(), q, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("saving setting %q: %w", key, err)
	}
	return nil
}
