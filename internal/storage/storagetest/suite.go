// Package storagetest holds the behavior every storage.Provider must share.
// Backend packages run it from their own tests.
package storagetest

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
)

// Factory returns a freshly initialized, empty provider. Cleanup is the
// factory's job.
type Factory func(t *testing.T) storage.Provider

const (
	wed models.Day = "2024-05-15"
	thu models.Day = "2024-05-16"
	fri models.Day = "2024-05-17"
)

// RunProviderSuite runs the contract tests against providers from newStore.
func RunProviderSuite(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Provider)
	}{
		{"EmptyStore", testEmptyStore},
		{"CreateCategory", testCreateCategory},
		{"CreateCategoryRejectsInvalidTitles", testCreateCategoryInvalid},
		{"ImportCategory", testImportCategory},
		{"RenameCategory", testRenameCategory},
		{"DeleteCategoryCascades", testDeleteCategoryCascades},
		{"UpsertTracker", testUpsertTracker},
		{"UpsertTrackerIgnoresInvalidInput", testUpsertTrackerInvalid},
		{"DeleteTracker", testDeleteTracker},
		{"Records", testRecords},
		{"RecordsIgnoreMalformedDays", testRecordsMalformedDays},
		{"Preferences", testPreferences},
		{"Ordering", testOrdering},
		{"Notifications", testNotifications},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func tracker(id, name string, days ...models.Weekday) models.Tracker {
	return models.Tracker{
		ID:       id,
		Name:     name,
		ColorHex: "#33AA55",
		Emoji:    "🏃",
		Schedule: models.NewSchedule(days...),
	}
}

func mustUpsert(t *testing.T, s storage.Provider, tr models.Tracker, category string) models.Tracker {
	t.Helper()
	stored, err := s.UpsertTracker(tr, category)
	require.NoError(t, err)
	require.NotEmpty(t, stored.CategoryID)
	return stored
}

func testEmptyStore(t *testing.T, s storage.Provider) {
	categories, err := s.ListCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)

	trackers, err := s.ListTrackers()
	require.NoError(t, err)
	assert.Empty(t, trackers)

	records, err := s.ListRecords()
	require.NoError(t, err)
	assert.Empty(t, records)

	prefs, err := s.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)

	_, err = s.GetCategory("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTracker("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testCreateCategory(t *testing.T, s storage.Provider) {
	before := time.Now().Add(-time.Second)
	c, err := s.CreateCategory("  Health  ")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Health", c.Title)
	assert.False(t, c.CreatedAt.Before(before.Truncate(time.Second)))

	got, err := s.GetCategory(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Health", got.Title)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	byTitle, err := s.GetCategoryByTitle("Health")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byTitle.ID)

	// same title: existing category, nothing new
	again, err := s.CreateCategory("Health")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)

	// titles are unique by exact match only
	lower, err := s.CreateCategory("health")
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, lower.ID)

	categories, err := s.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	_, err = s.GetCategoryByTitle("Nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testCreateCategoryInvalid(t *testing.T, s storage.Provider) {
	for _, title := range []string{"", "   ", strings.Repeat("a", 39)} {
		c, err := s.CreateCategory(title)
		require.NoError(t, err)
		assert.Empty(t, c.ID)
	}

	c, err := s.CreateCategory(strings.Repeat("я", 38))
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID, "38 runes is within the limit")

	categories, err := s.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func testImportCategory(t *testing.T, s storage.Provider) {
	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.ImportCategory(models.Category{ID: "cat-1", Title: "Work", CreatedAt: created}))

	got, err := s.GetCategory("cat-1")
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Title)
	assert.True(t, created.Equal(got.CreatedAt))

	// clashing title or id: ignored
	require.NoError(t, s.ImportCategory(models.Category{ID: "cat-2", Title: "Work", CreatedAt: created}))
	require.NoError(t, s.ImportCategory(models.Category{ID: "cat-1", Title: "Other", CreatedAt: created}))

	categories, err := s.ListCategories()
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Work", categories[0].Title)
}

func testRenameCategory(t *testing.T, s storage.Provider) {
	health, err := s.CreateCategory("Health")
	require.NoError(t, err)
	work, err := s.CreateCategory("Work")
	require.NoError(t, err)

	assert.ErrorIs(t, s.RenameCategory("missing", "X"), storage.ErrNotFound)

	require.NoError(t, s.RenameCategory(health.ID, "Fitness"))
	got, err := s.GetCategory(health.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fitness", got.Title)

	// taken title and invalid titles leave the category alone
	require.NoError(t, s.RenameCategory(health.ID, "Work"))
	require.NoError(t, s.RenameCategory(health.ID, ""))
	require.NoError(t, s.RenameCategory(health.ID, strings.Repeat("x", 39)))
	got, err = s.GetCategory(health.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fitness", got.Title)

	got, err = s.GetCategory(work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Title)
}

func testDeleteCategoryCascades(t *testing.T, s storage.Provider) {
	run := mustUpsert(t, s, tracker("t-run", "Run", models.Wednesday), "Health")
	swim := mustUpsert(t, s, tracker("t-swim", "Swim", models.Thursday), "Health")
	read := mustUpsert(t, s, tracker("t-read", "Read", models.Wednesday), "Study")

	for _, tr := range []models.Tracker{run, swim, read} {
		require.NoError(t, s.AddRecord(tr.ID, wed))
	}
	require.NoError(t, s.AddRecord(run.ID, thu))

	require.NoError(t, s.DeleteCategory(run.CategoryID))

	_, err := s.GetCategory(run.CategoryID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTracker(run.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTracker(swim.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	n, err := s.CompletionCount(run.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// other categories are untouched
	trackers, err := s.ListTrackers()
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, read.ID, trackers[0].ID)

	records, err := s.ListRecords()
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{TrackerID: read.ID, Day: wed}}, records)

	assert.ErrorIs(t, s.DeleteCategory(run.CategoryID), storage.ErrNotFound)
}

func testUpsertTracker(t *testing.T, s storage.Provider) {
	created := mustUpsert(t, s, tracker("t-1", "Run", models.Sunday, models.Wednesday), "Health")

	health, err := s.GetCategoryByTitle("Health")
	require.NoError(t, err, "category is created on demand")
	assert.Equal(t, health.ID, created.CategoryID)

	got, err := s.GetTracker("t-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, models.Schedule{models.Sunday, models.Wednesday}, got.Schedule)

	// edits replace every field and may move the tracker
	edited := models.Tracker{ID: "t-1", Name: "Walk", ColorHex: "#000000", Emoji: "🚶"}
	updated := mustUpsert(t, s, edited, "Outdoors")
	assert.NotEqual(t, health.ID, updated.CategoryID)

	got, err = s.GetTracker("t-1")
	require.NoError(t, err)
	assert.Equal(t, "Walk", got.Name)
	assert.Equal(t, "#000000", got.ColorHex)
	assert.Equal(t, "🚶", got.Emoji)
	assert.Empty(t, got.Schedule)
	assert.Equal(t, updated.CategoryID, got.CategoryID)

	trackers, err := s.ListTrackers()
	require.NoError(t, err)
	assert.Len(t, trackers, 1)

	// the emptied category stays
	_, err = s.GetCategory(health.ID)
	assert.NoError(t, err)
}

func testUpsertTrackerInvalid(t *testing.T, s storage.Provider) {
	cases := []struct {
		tracker  models.Tracker
		category string
	}{
		{tracker("t-1", ""), "Health"},
		{tracker("", "Run"), "Health"},
		{tracker("t-1", "Run"), ""},
		{tracker("t-1", "Run"), strings.Repeat("c", 39)},
	}
	for _, c := range cases {
		stored, err := s.UpsertTracker(c.tracker, c.category)
		require.NoError(t, err)
		assert.Empty(t, stored.ID)
	}

	trackers, err := s.ListTrackers()
	require.NoError(t, err)
	assert.Empty(t, trackers)
	categories, err := s.ListCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func testDeleteTracker(t *testing.T, s storage.Provider) {
	run := mustUpsert(t, s, tracker("t-run", "Run", models.Wednesday), "Health")
	swim := mustUpsert(t, s, tracker("t-swim", "Swim", models.Wednesday), "Health")
	require.NoError(t, s.AddRecord(run.ID, wed))
	require.NoError(t, s.AddRecord(swim.ID, wed))

	require.NoError(t, s.DeleteTracker(run.ID))
	_, err := s.GetTracker(run.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	records, err := s.ListRecords()
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{TrackerID: swim.ID, Day: wed}}, records)

	// missing tracker: no-op
	assert.NoError(t, s.DeleteTracker(run.ID))

	_, err = s.GetCategory(run.CategoryID)
	assert.NoError(t, err, "category outlives its trackers")
}

func testRecords(t *testing.T, s storage.Provider) {
	run := mustUpsert(t, s, tracker("t-run", "Run", models.Wednesday), "Health")

	done, err := s.IsComplete(run.ID, wed)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.AddRecord(run.ID, wed))
	require.NoError(t, s.AddRecord(run.ID, wed))
	require.NoError(t, s.AddRecord(run.ID, fri))

	done, err = s.IsComplete(run.ID, wed)
	require.NoError(t, err)
	assert.True(t, done)

	n, err := s.CompletionCount(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "records are unique per tracker and day")

	records, err := s.ListRecords()
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{TrackerID: run.ID, Day: wed}, {TrackerID: run.ID, Day: fri}}, records)

	// unknown tracker: ignored
	require.NoError(t, s.AddRecord("ghost", wed))
	n, err = s.CompletionCount("ghost")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.RemoveRecord(run.ID, wed))
	require.NoError(t, s.RemoveRecord(run.ID, wed))
	require.NoError(t, s.RemoveRecord(run.ID, thu))

	done, err = s.IsComplete(run.ID, wed)
	require.NoError(t, err)
	assert.False(t, done)

	n, err = s.CompletionCount(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testRecordsMalformedDays(t *testing.T, s storage.Provider) {
	run := mustUpsert(t, s, tracker("t-run", "Run", models.Wednesday), "Health")
	require.NoError(t, s.AddRecord(run.ID, wed))

	for _, day := range []models.Day{"2024-05-15T10:30:00Z", "2024-5-15", "2024-02-30", "someday"} {
		require.NoError(t, s.AddRecord(run.ID, day))
		require.NoError(t, s.RemoveRecord(run.ID, day))

		done, err := s.IsComplete(run.ID, day)
		require.NoError(t, err)
		assert.False(t, done, "%q", day)
	}

	records, err := s.ListRecords()
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{TrackerID: run.ID, Day: wed}}, records)
}

func testPreferences(t *testing.T, s storage.Provider) {
	c, err := s.CreateCategory("Health")
	require.NoError(t, err)

	want := models.Preferences{LastCategoryID: c.ID, Locale: "de"}
	require.NoError(t, s.SavePreferences(want))

	got, err := s.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.SavePreferences(models.Preferences{}))
	got, err = s.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), got)
}

func testOrdering(t *testing.T, s storage.Provider) {
	for _, title := range []string{"gamma", "Beta", "alpha", "Item 10", "Item 9"} {
		_, err := s.CreateCategory(title)
		require.NoError(t, err)
	}

	categories, err := s.ListCategories()
	require.NoError(t, err)
	var titles []string
	for _, c := range categories {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"alpha", "Beta", "gamma", "Item 9", "Item 10"}, titles)

	mustUpsert(t, s, tracker("1", "swim"), "beta")
	mustUpsert(t, s, tracker("2", "Run"), "Beta")
	mustUpsert(t, s, tracker("3", "read"), "alpha")
	mustUpsert(t, s, tracker("4", "Bike"), "Beta")

	trackers, err := s.ListTrackers()
	require.NoError(t, err)
	var names []string
	for _, tr := range trackers {
		names = append(names, tr.Name)
	}
	assert.Equal(t, "read", names[0])

	// "beta" and "Beta" collate equal but stay separate groups
	assert.Contains(t, [][]string{
		{"Bike", "Run", "swim"},
		{"swim", "Bike", "Run"},
	}, names[1:])

	seen := map[string]bool{}
	last := ""
	for _, tr := range trackers {
		if tr.CategoryID != last {
			assert.False(t, seen[tr.CategoryID], "category %s split apart", tr.CategoryID)
			seen[tr.CategoryID] = true
			last = tr.CategoryID
		}
	}
}

type recorder struct {
	mu      sync.Mutex
	changes []storage.Change
}

func (r *recorder) add(c storage.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) take() []storage.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.changes
	r.changes = nil
	return out
}

func testNotifications(t *testing.T, s storage.Provider) {
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.add)

	c, err := s.CreateCategory("Health")
	require.NoError(t, err)
	assert.Equal(t, []storage.Change{{Entity: storage.EntityCategory, Op: storage.OpCreate, ID: c.ID}}, rec.take())

	// no-ops stay silent
	_, err = s.CreateCategory("Health")
	require.NoError(t, err)
	_, err = s.CreateCategory("")
	require.NoError(t, err)
	require.NoError(t, s.RemoveRecord("ghost", wed))
	assert.Empty(t, rec.take())

	run := mustUpsert(t, s, tracker("t-run", "Run", models.Wednesday), "Health")
	assert.Equal(t, []storage.Change{{Entity: storage.EntityTracker, Op: storage.OpCreate, ID: run.ID}}, rec.take())

	require.NoError(t, s.AddRecord(run.ID, wed))
	require.NoError(t, s.AddRecord(run.ID, wed))
	assert.Equal(t, []storage.Change{{Entity: storage.EntityRecord, Op: storage.OpCreate, ID: run.ID, Day: wed}}, rec.take())

	// subscribers may read the store while being notified
	var seen bool
	unsubscribeReader := s.Subscribe(func(ch storage.Change) {
		if ch.Entity == storage.EntityRecord && ch.Op == storage.OpDelete {
			done, err := s.IsComplete(ch.ID, ch.Day)
			seen = err == nil && !done
		}
	})
	require.NoError(t, s.RemoveRecord(run.ID, wed))
	assert.True(t, seen)
	unsubscribeReader()
	rec.take()

	require.NoError(t, s.DeleteCategory(c.ID))
	changes := rec.take()
	require.Len(t, changes, 2)
	assert.Equal(t, storage.Change{Entity: storage.EntityTracker, Op: storage.OpDelete, ID: run.ID}, changes[0])
	assert.Equal(t, storage.Change{Entity: storage.EntityCategory, Op: storage.OpDelete, ID: c.ID}, changes[1])

	unsubscribe()
	unsubscribe()
	_, err = s.CreateCategory("Work")
	require.NoError(t, err)
	assert.Empty(t, rec.take())
}
