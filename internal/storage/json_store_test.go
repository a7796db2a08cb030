package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/storage/storagetest"
)

func setupJSONStore(t *testing.T) (*storage.JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackly.json")
	store := storage.NewJSONStore(path)
	require.NoError(t, store.Init())
	return store, path
}

func TestJSONStoreContract(t *testing.T) {
	storagetest.RunProviderSuite(t, func(t *testing.T) storage.Provider {
		store, _ := setupJSONStore(t)
		return store
	})
}

func TestJSONStorePersists(t *testing.T) {
	store, path := setupJSONStore(t)

	run, err := store.UpsertTracker(models.Tracker{
		ID:       "t-run",
		Name:     "Run",
		Schedule: models.NewSchedule(models.Wednesday, models.Saturday),
	}, "Health")
	require.NoError(t, err)
	require.NoError(t, store.AddRecord(run.ID, "2024-05-15"))
	require.NoError(t, store.SavePreferences(models.Preferences{LastCategoryID: run.CategoryID, Locale: "en"}))

	reopened := storage.NewJSONStore(path)
	require.NoError(t, reopened.Load())

	got, err := reopened.GetTracker(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	done, err := reopened.IsComplete(run.ID, "2024-05-15")
	require.NoError(t, err)
	assert.True(t, done)

	prefs, err := reopened.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, run.CategoryID, prefs.LastCategoryID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date": "2024-05-15"`)
	assert.Contains(t, string(data), `"categoryRef": "`+run.CategoryID+`"`)
}

func TestJSONStoreMalformedDayKeepsFileLoadable(t *testing.T) {
	store, path := setupJSONStore(t)
	run, err := store.UpsertTracker(models.Tracker{
		ID:       "t-run",
		Name:     "Run",
		Schedule: models.NewSchedule(models.Wednesday),
	}, "Health")
	require.NoError(t, err)

	require.NoError(t, store.AddRecord(run.ID, "2024-05-15T10:30:00Z"))
	require.NoError(t, store.AddRecord(run.ID, "2024-05-15"))

	reopened := storage.NewJSONStore(path)
	require.NoError(t, reopened.Load())
	n, err := reopened.CompletionCount(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestJSONStoreInitTwice(t *testing.T) {
	_, path := setupJSONStore(t)
	assert.Error(t, storage.NewJSONStore(path).Init())
}

func TestJSONStoreLoadErrors(t *testing.T) {
	dir := t.TempDir()

	missing := storage.NewJSONStore(filepath.Join(dir, "missing.json"))
	err := missing.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trackly init")

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0600))
	err = storage.NewJSONStore(corrupt).Load()
	assert.ErrorIs(t, err, storage.ErrStorageFailure)
}

func TestJSONStoreNotLoaded(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "x.json"))

	_, err := store.ListTrackers()
	assert.ErrorIs(t, err, storage.ErrStorageFailure)
	_, err = store.CreateCategory("Health")
	assert.ErrorIs(t, err, storage.ErrStorageFailure)
}

func TestJSONStoreFailedWriteKeepsState(t *testing.T) {
	store, path := setupJSONStore(t)

	c, err := store.CreateCategory("Health")
	require.NoError(t, err)

	var notified int
	store.Subscribe(func(storage.Change) { notified++ })

	// a directory in place of the document makes the final rename fail
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0700))

	err = store.RenameCategory(c.ID, "Fitness")
	assert.ErrorIs(t, err, storage.ErrStorageFailure)
	assert.Zero(t, notified)

	got, err := store.GetCategory(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Health", got.Title)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}
