package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

// migration represents a single schema migration step.
type migration struct {
	version int
	sql     string
}

// migrations are applied in order, once each, and recorded in schema_migrations.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE users (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    email          TEXT NOT NULL DEFAULT '',
    division       TEXT NOT NULL DEFAULT '',
    subdivision    TEXT,
    rating         INTEGER NOT NULL DEFAULT 1,
    atc_active     INTEGER NOT NULL DEFAULT 0,
    personal_email TEXT,
    work_email     TEXT,
    notify_newreq  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE areas (
    id                   INTEGER PRIMARY KEY,
    name                 TEXT NOT NULL,
    contact              TEXT,
    waiting_time         TEXT,
    template_newreq      TEXT,
    template_pretraining TEXT,
    template_waitingexam TEXT
);

CREATE TABLE ratings (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE permissions (
    user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    area_id  INTEGER NOT NULL REFERENCES areas(id) ON DELETE CASCADE,
    group_id INTEGER NOT NULL,
    PRIMARY KEY (user_id, area_id, group_id)
);
CREATE INDEX idx_permissions_group ON permissions(group_id);

CREATE TABLE trainings (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id                INTEGER NOT NULL REFERENCES users(id),
    area_id                INTEGER NOT NULL REFERENCES areas(id),
    status                 INTEGER NOT NULL DEFAULT 0,
    pre_training_completed INTEGER NOT NULL DEFAULT 0,
    created_at             DATETIME NOT NULL,
    closed_at              DATETIME
);
CREATE INDEX idx_trainings_user_status ON trainings(user_id, status);
CREATE UNIQUE INDEX idx_trainings_one_active ON trainings(user_id) WHERE status = 2;

CREATE TABLE training_ratings (
    training_id INTEGER NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
    rating_id   INTEGER NOT NULL REFERENCES ratings(id),
    PRIMARY KEY (training_id, rating_id)
);

CREATE TABLE training_mentors (
    training_id INTEGER NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    PRIMARY KEY (training_id, user_id)
);

CREATE TABLE settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE notification_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    training_id INTEGER NOT NULL,
    event_type  TEXT NOT NULL,
    provider    TEXT NOT NULL,
    subject     TEXT NOT NULL DEFAULT '',
    payload     TEXT NOT NULL DEFAULT '{}',
    status      TEXT NOT NULL,
    attempts    INTEGER NOT NULL DEFAULT 0,
    error_msg   TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);
CREATE INDEX idx_notification_log_status ON notification_log(status, attempts);

CREATE TABLE notifications (
    id         TEXT PRIMARY KEY,
    user_id    INTEGER NOT NULL,
    type       TEXT NOT NULL,
    data       TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL,
    read_at    DATETIME
);
CREATE INDEX idx_notifications_user ON notifications(user_id, created_at);
`,
	},
}

// pragmas apply to the single pooled connection.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

// NewSQLiteDB opens or creates the database at dbPath and brings its schema
// up to date. The bool result is true when the schema was created by this
// call. ":memory:" opens a private in-memory database.
func NewSQLiteDB(dbPath string) (*sql.DB, bool, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, false, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, false, fmt.Errorf("opening database: %w", err)
	}
	// One connection: sqlite has a single writer, and an in-memory database
	// exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	created, err := prepare(context.Background(), db)
	if err != nil {
		return nil, false, errors.Join(err, db.Close())
	}
	return db, created, nil
}

func prepare(ctx context.Context, db *sql.DB) (bool, error) {
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return false, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	from, err := migrate(ctx, db)
	if err != nil {
		return false, fmt.Errorf("running migrations: %w", err)
	}
	return from == 0, nil
}

// migrate applies pending migrations and returns the version it started from.
func migrate(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	from, err := SchemaVersion(ctx, db)
	if err != nil {
		return 0, err
	}
	for _, m := range migrations {
		if m.version <= from {
			continue
		}
		err := withTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				m.version, time.Now().UTC())
			return err
		})
		if err != nil {
			return from, fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	return from, nil
}

// SchemaVersion returns the highest applied migration, or 0 for an empty database.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("querying schema version: %w", err)
	}
	return v, nil
}

// withTx runs fn in a transaction, rolling back when fn fails.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}
