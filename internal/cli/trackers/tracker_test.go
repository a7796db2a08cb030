package trackers

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
)

func setupTestContext(t *testing.T, input string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackly.json")
	store := storage.NewJSONStore(path)
	require.NoError(t, store.Init())

	ctx := cli.NewContext(store, config.Target{Location: path, Backend: config.BackendJSON})
	out := &bytes.Buffer{}
	ctx.Out = out
	ctx.In = strings.NewReader(input)
	t.Cleanup(func() { ctx.Close() })
	return ctx, out
}

func TestTrackerAddCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "")

	cmd := &TrackerAddCmd{Name: "Run", Emoji: "🏃", Color: "#ff0000", Days: "mon,wed,fri", Category: "Health"}
	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), `Added 🏃 Run to "Health" (Mon, Wed, Fri)`)

	trackers, err := ctx.Store.ListTrackers()
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "#FF0000", trackers[0].ColorHex)
	assert.Equal(t, models.NewSchedule(models.Monday, models.Wednesday, models.Friday), trackers[0].Schedule)
}

func TestTrackerAddCmdReusesLastCategory(t *testing.T) {
	ctx, _ := setupTestContext(t, "")

	err := (&TrackerAddCmd{Name: "Run", Days: "daily"}).Run(ctx)
	assert.ErrorContains(t, err, "--category")

	require.NoError(t, (&TrackerAddCmd{Name: "Run", Days: "daily", Category: "Health"}).Run(ctx))
	require.NoError(t, (&TrackerAddCmd{Name: "Swim", Days: "weekends"}).Run(ctx))

	swim, err := ctx.Service.FindTracker("swim")
	require.NoError(t, err)
	health, err := ctx.Store.GetCategoryByTitle("Health")
	require.NoError(t, err)
	assert.Equal(t, health.ID, swim.CategoryID)
	assert.Equal(t, defaultEmoji, swim.Emoji)
	assert.Equal(t, defaultColor, swim.ColorHex)
}

func TestTrackerAddCmdInvalid(t *testing.T) {
	ctx, _ := setupTestContext(t, "")

	assert.Error(t, (&TrackerAddCmd{Name: "Run", Days: "someday", Category: "Health"}).Run(ctx))
	assert.Error(t, (&TrackerAddCmd{Name: "Run", Color: "red", Days: "daily", Category: "Health"}).Run(ctx))
	assert.Error(t, (&TrackerAddCmd{Name: strings.Repeat("n", 39), Days: "daily", Category: "Health"}).Run(ctx))

	trackers, err := ctx.Store.ListTrackers()
	require.NoError(t, err)
	assert.Empty(t, trackers)
}

func TestTrackerEditCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "")
	require.NoError(t, (&TrackerAddCmd{Name: "Run", Emoji: "🏃", Color: "#FF0000", Days: "mon", Category: "Health"}).Run(ctx))

	require.NoError(t, (&TrackerEditCmd{Tracker: "run", Name: "Jog", Days: "tue,thu"}).Run(ctx))
	assert.Contains(t, out.String(), "Updated 🏃 Jog  [Tue, Thu]  #FF0000")

	jog, err := ctx.Service.FindTracker("Jog")
	require.NoError(t, err)
	assert.Equal(t, "🏃", jog.Emoji)

	require.NoError(t, (&TrackerEditCmd{Tracker: jog.ID, Days: "none", Category: "Cardio"}).Run(ctx))
	moved, err := ctx.Store.GetTracker(jog.ID)
	require.NoError(t, err)
	assert.True(t, moved.Schedule.IsEmpty())
	cardio, err := ctx.Store.GetCategoryByTitle("Cardio")
	require.NoError(t, err)
	assert.Equal(t, cardio.ID, moved.CategoryID)

	err = (&TrackerEditCmd{Tracker: "missing", Name: "x"}).Run(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTrackerDeleteCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "yes\n")
	require.NoError(t, (&TrackerAddCmd{Name: "Run", Days: "daily", Category: "Health"}).Run(ctx))
	run, err := ctx.Service.FindTracker("Run")
	require.NoError(t, err)
	require.NoError(t, ctx.Store.AddRecord(run.ID, "2024-05-14"))

	require.NoError(t, (&TrackerDeleteCmd{Tracker: "Run"}).Run(ctx))
	assert.Contains(t, out.String(), "also deletes its 1 completion(s)")

	_, err = ctx.Store.GetTracker(run.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	records, err := ctx.Store.ListRecords()
	require.NoError(t, err)
	assert.Empty(t, records)

	// the category stays
	_, err = ctx.Store.GetCategoryByTitle("Health")
	assert.NoError(t, err)
}

func TestTrackerDeleteCmdCancelled(t *testing.T) {
	ctx, out := setupTestContext(t, "\n")
	require.NoError(t, (&TrackerAddCmd{Name: "Run", Days: "daily", Category: "Health"}).Run(ctx))

	require.NoError(t, (&TrackerDeleteCmd{Tracker: "Run"}).Run(ctx))
	assert.Contains(t, out.String(), "Delete cancelled.")
	_, err := ctx.Service.FindTracker("Run")
	assert.NoError(t, err)
}

func TestTrackerListCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "")

	require.NoError(t, (&TrackerListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No trackers found.")

	require.NoError(t, (&TrackerAddCmd{Name: "Swim", Days: "sat", Category: "Health"}).Run(ctx))
	require.NoError(t, (&TrackerAddCmd{Name: "Run", Days: "mon", Category: "Health"}).Run(ctx))
	require.NoError(t, (&TrackerAddCmd{Name: "Read", Days: "daily", Category: "Mind"}).Run(ctx))

	out.Reset()
	require.NoError(t, (&TrackerListCmd{}).Run(ctx))
	assert.Equal(t, strings.Join([]string{
		"Health",
		"  ✅ Run  [Mon]  #4CAF50",
		"  ✅ Swim  [Sat]  #4CAF50",
		"",
		"Mind",
		"  ✅ Read  [every day]  #4CAF50",
		"",
	}, "\n"), out.String())

	out.Reset()
	require.NoError(t, (&TrackerListCmd{Category: "Mind", IDs: true}).Run(ctx))
	assert.NotContains(t, out.String(), "Run")
	assert.Contains(t, out.String(), "Read")
}
