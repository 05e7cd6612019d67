package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/trainingdesk/internal/storage"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

const seedYAML = `
ratings:
  - {id: 2, name: S1}
  - {id: 3, name: S2}
areas:
  - id: 1
    name: Lisbon FIR
    contact: training@example.org
    template_newreq: Read the local procedures before your first session.
users:
  - id: 1001
    name: Ana Silva
    email: ana@example.org
    division: EUD
    subdivision: POR
    rating: 3
    atc_active: true
  - id: 2001
    name: Mod One
    email: mod@example.org
    notify_newreq: true
    permissions:
      - {group: 2, area: 1}
`

func TestLoadSeed(t *testing.T) {
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0600))

	store := storage.NewSQLiteTrainingStore(db)
	ctx := context.Background()

	n, err := storage.LoadSeed(ctx, store, path)
	require.NoError(t, err)
	assert.Equal(t, storage.SeedCounts{Ratings: 2, Areas: 1, Users: 2}, n)

	area, err := store.FindArea(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, area.TemplateNewRequest)
	assert.Equal(t, "Read the local procedures before your first session.", *area.TemplateNewRequest)
	assert.Nil(t, area.TemplateWaitingExam)

	mod, err := store.FindUser(ctx, 2001)
	require.NoError(t, err)
	assert.Equal(t, 1, mod.Rating, "rating defaults to the lowest tier")
	assert.True(t, training.IsModeratorOrAbove(mod, area))

	// Loading twice is an upsert.
	_, err = storage.LoadSeed(ctx, store, path)
	require.NoError(t, err)
}

func TestLoadSeed_Errors(t *testing.T) {
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	store := storage.NewSQLiteTrainingStore(db)

	_, err = storage.LoadSeed(context.Background(), store, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = storage.ParseSeed([]byte("users: [oops"))
	assert.Error(t, err)
}
