package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, created, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.True(t, created)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewSQLiteDB_Schema(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, table := range []string{
		"users", "areas", "ratings", "permissions", "trainings", "training_ratings",
		"training_mentors", "settings", "notification_log", "notifications", "schema_migrations",
	} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].version, v)

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_NothingPendingOnSecondRun(t *testing.T) {
	db := newTestDB(t)

	from, err := migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), from)
}

func TestNewSQLiteDB_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trainingdesk.db")

	db, created, err := NewSQLiteDB(path)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, db.Close())

	db, created, err = NewSQLiteDB(path)
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, db.Close())
}

func TestWithTx_RollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ratings (id, name) VALUES (3, 'S2')`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO ratings (id, name) VALUES (3, 'duplicate')`)
		return err
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n))
	assert.Zero(t, n)
}

func TestSQLiteSettingsStore(t *testing.T) {
	store := NewSQLiteSettingsStore(newTestDB(t))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save("trainingEnabled", "false"))
	require.NoError(t, store.Save("trainingEnabled", "true"))
	require.NoError(t, store.Save("trainingSubDivisions", "POR, ESP"))

	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"trainingEnabled": "true", "trainingSubDivisions": "POR, ESP"}, got)
}
