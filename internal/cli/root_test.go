package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/config"
	"github.com/julianstephens/trackly/internal/lock"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
)

func TestResolveDay(t *testing.T) {
	today := models.Day("2024-05-15")

	tests := []struct {
		in      string
		want    models.Day
		wantErr bool
	}{
		{"", today, false},
		{"today", today, false},
		{"Yesterday", "2024-05-14", false},
		{"tomorrow", "2024-05-16", false},
		{"2024-02-29", "2024-02-29", false},
		{" 2024-01-01 ", "2024-01-01", false},
		{"2024-13-01", "", true},
		{"last week", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveDay(tt.in, today)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "yes": true} {
		var out bytes.Buffer
		ctx := &Context{Out: &out, In: strings.NewReader(input)}

		got, err := ctx.Confirm("Delete?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}
}

func TestLockAndClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trackly.json")
	store := storage.NewJSONStore(path)
	require.NoError(t, store.Init())

	ctx := NewContext(store, config.Target{Location: path, Backend: config.BackendJSON})
	require.NoError(t, ctx.Lock())
	assert.FileExists(t, lock.Path(dir))

	// taking it twice is a no-op
	require.NoError(t, ctx.Lock())

	require.NoError(t, ctx.Close())
	assert.NoFileExists(t, lock.Path(dir))
}

func TestResolveCategory(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "trackly.json"))
	require.NoError(t, store.Init())

	health, err := store.CreateCategory("Health")
	require.NoError(t, err)

	byID, err := ResolveCategory(store, health.ID)
	require.NoError(t, err)
	assert.Equal(t, health, byID)

	byTitle, err := ResolveCategory(store, " Health ")
	require.NoError(t, err)
	assert.Equal(t, health.ID, byTitle.ID)

	_, err = ResolveCategory(store, "health")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFormatTracker(t *testing.T) {
	tr := models.Tracker{
		Name:     "Run",
		Emoji:    "🏃",
		ColorHex: "#FF0000",
		Schedule: models.NewSchedule(models.Monday, models.Wednesday),
	}

	assert.Equal(t, "🏃 Run", FormatTracker(tr, false))
	assert.Equal(t, "🏃 Run  [Mon, Wed]  #FF0000", FormatTracker(tr, true))

	tr.Emoji = ""
	tr.Schedule = nil
	assert.Equal(t, "Run  [not set]  #FF0000", FormatTracker(tr, true))
}

func TestPerformAutomaticBackupSkipsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trackly.json")
	store := storage.NewJSONStore(path)
	require.NoError(t, store.Init())

	ctx := NewContext(store, config.Target{Location: path, Backend: config.BackendJSON})
	ctx.PerformAutomaticBackup()
	assert.NoDirExists(t, filepath.Join(dir, "backups"))
}
