package categories

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/config"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/storage/sqlite"
)

func setupTestContext(t *testing.T, input string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackly.db")
	store := sqlite.NewStore(path)
	require.NoError(t, store.Init())

	ctx := cli.NewContext(store, config.Target{Location: path, Backend: config.BackendSQLite})
	out := &bytes.Buffer{}
	ctx.Out = out
	ctx.In = strings.NewReader(input)
	t.Cleanup(func() { ctx.Close() })
	return ctx, out
}

func addTracker(t *testing.T, store storage.Provider, id, name, category string) {
	t.Helper()
	_, err := store.UpsertTracker(models.Tracker{
		ID:       id,
		Name:     name,
		ColorHex: "#00AA00",
		Emoji:    "✅",
		Schedule: models.NewSchedule(models.Monday),
	}, category)
	require.NoError(t, err)
}

func TestCategoryAddCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "")

	require.NoError(t, (&CategoryAddCmd{Title: "  Health "}).Run(ctx))
	assert.Contains(t, out.String(), `Added category "Health"`)

	// same title again reports the existing category
	out.Reset()
	require.NoError(t, (&CategoryAddCmd{Title: "Health"}).Run(ctx))
	assert.Contains(t, out.String(), "already exists")

	categories, err := ctx.Store.ListCategories()
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Health", categories[0].Title)
}

func TestCategoryAddCmdRejectsInvalidTitle(t *testing.T) {
	ctx, _ := setupTestContext(t, "")

	assert.Error(t, (&CategoryAddCmd{Title: "   "}).Run(ctx))
	assert.Error(t, (&CategoryAddCmd{Title: strings.Repeat("x", 39)}).Run(ctx))

	categories, err := ctx.Store.ListCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestCategoryListCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "")

	require.NoError(t, (&CategoryListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No categories yet")

	addTracker(t, ctx.Store, "t1", "Run", "Health")
	addTracker(t, ctx.Store, "t2", "Swim", "Health")
	addTracker(t, ctx.Store, "t3", "Read", "Mind")

	out.Reset()
	require.NoError(t, (&CategoryListCmd{}).Run(ctx))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Health  (2 trackers)")
	assert.Contains(t, lines[1], "Mind  (1 tracker)")
}

func TestCategoryRenameCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "")
	addTracker(t, ctx.Store, "t1", "Run", "Health")
	_, err := ctx.Store.CreateCategory("Mind")
	require.NoError(t, err)

	require.NoError(t, (&CategoryRenameCmd{Category: "Health", Title: "Fitness"}).Run(ctx))
	assert.Contains(t, out.String(), `Renamed "Health" to "Fitness"`)

	fitness, err := ctx.Store.GetCategoryByTitle("Fitness")
	require.NoError(t, err)
	run, err := ctx.Store.GetTracker("t1")
	require.NoError(t, err)
	assert.Equal(t, fitness.ID, run.CategoryID)

	err = (&CategoryRenameCmd{Category: "Fitness", Title: "Mind"}).Run(ctx)
	assert.ErrorContains(t, err, "already exists")

	err = (&CategoryRenameCmd{Category: "missing", Title: "Other"}).Run(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCategoryDeleteCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "y\n")
	addTracker(t, ctx.Store, "t1", "Run", "Health")
	addTracker(t, ctx.Store, "t2", "Read", "Mind")
	require.NoError(t, ctx.Store.AddRecord("t1", "2024-05-13"))

	require.NoError(t, (&CategoryDeleteCmd{Category: "Health"}).Run(ctx))
	assert.Contains(t, out.String(), "also deletes its 1 tracker(s)")
	assert.Contains(t, out.String(), `Deleted category "Health"`)

	_, err := ctx.Store.GetTracker("t1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = ctx.Store.GetTracker("t2")
	assert.NoError(t, err)

	records, err := ctx.Store.ListRecords()
	require.NoError(t, err)
	assert.Empty(t, records)

	// deleting again reports the missing category
	err = (&CategoryDeleteCmd{Category: "Health", Yes: true}).Run(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCategoryDeleteCmdCancelled(t *testing.T) {
	ctx, out := setupTestContext(t, "n\n")
	addTracker(t, ctx.Store, "t1", "Run", "Health")

	require.NoError(t, (&CategoryDeleteCmd{Category: "Health"}).Run(ctx))
	assert.Contains(t, out.String(), "Delete cancelled.")

	_, err := ctx.Store.GetCategoryByTitle("Health")
	assert.NoError(t, err)
}

func TestCategoryDeleteClearsLastCategory(t *testing.T) {
	ctx, _ := setupTestContext(t, "")
	addTracker(t, ctx.Store, "t1", "Run", "Health")
	health, err := ctx.Store.GetCategoryByTitle("Health")
	require.NoError(t, err)
	require.NoError(t, ctx.Store.SavePreferences(models.Preferences{LastCategoryID: health.ID}))

	require.NoError(t, (&CategoryDeleteCmd{Category: health.ID, Yes: true}).Run(ctx))

	prefs, err := ctx.Store.GetPreferences()
	require.NoError(t, err)
	assert.Empty(t, prefs.LastCategoryID)
}
