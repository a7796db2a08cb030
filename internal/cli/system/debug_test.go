package system

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/storage"
)

func TestDebugPathsCmd(t *testing.T) {
	dir := t.TempDir()
	ctx, out := newContext(t, filepath.Join(dir, "trackly.db"))

	require.NoError(t, (&DebugPathsCmd{}).Run(ctx))

	var paths map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &paths))
	assert.Equal(t, "sqlite", paths["backend"])
	assert.Equal(t, filepath.Join(dir, "trackly.db"), paths["store"])
	assert.Equal(t, dir, paths["config"])
	assert.NotEmpty(t, paths["log"])
}

func TestDebugDumpTrackerCmd(t *testing.T) {
	ctx, out := newContext(t, filepath.Join(t.TempDir(), "trackly.db"))
	require.NoError(t, ctx.Store.Init())
	seed(t, ctx.Store)

	require.NoError(t, (&DebugDumpTrackerCmd{Tracker: "run"}).Run(ctx))

	var dump struct {
		Tracker struct {
			Name string `json:"name"`
		} `json:"tracker"`
		Category struct {
			Title string `json:"title"`
		} `json:"category"`
		Records []string `json:"records"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &dump))
	assert.Equal(t, "Health", dump.Category.Title)
	assert.ElementsMatch(t, []string{"2024-05-13", "2024-05-15"}, dump.Records)

	err := (&DebugDumpTrackerCmd{Tracker: "missing"}).Run(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
