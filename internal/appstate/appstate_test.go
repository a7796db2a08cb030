package appstate

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/models"
)

func sampleModels() ([]models.Category, []models.Tracker, []models.Record) {
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	categories := []models.Category{
		{ID: "c-health", Title: "Health", CreatedAt: created},
		{ID: "c-study", Title: "Study", CreatedAt: created.Add(time.Hour)},
	}
	trackers := []models.Tracker{
		{ID: "t-run", Name: "Run", ColorHex: "#33CC66", Emoji: "🏃", Schedule: models.NewSchedule(models.Monday, models.Wednesday, models.Friday), CategoryID: "c-health"},
		{ID: "t-read", Name: "Read", ColorHex: "#3366FF", Emoji: "📚", CategoryID: "c-study"},
	}
	records := []models.Record{
		{TrackerID: "t-run", Day: "2024-05-15"},
		{TrackerID: "t-run", Day: "2024-05-13"},
		{TrackerID: "t-read", Day: "2024-05-14"},
	}
	return categories, trackers, records
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	categories, trackers, records := sampleModels()
	prefs := models.Preferences{LastCategoryID: "c-health", Locale: "en"}
	state := FromModels(categories, trackers, records, &prefs)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, state))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)

	gotCats, gotTrackers, gotRecords, gotPrefs, err := decoded.Models()
	require.NoError(t, err)
	assert.ElementsMatch(t, categories, gotCats)
	assert.ElementsMatch(t, trackers, gotTrackers)
	assert.ElementsMatch(t, records, gotRecords)
	assert.Equal(t, prefs, gotPrefs)
}

func TestEncodeIsDeterministic(t *testing.T) {
	categories, trackers, records := sampleModels()

	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, FromModels(categories, trackers, records, nil)))

	// same data, different input order
	categories[0], categories[1] = categories[1], categories[0]
	records[0], records[2] = records[2], records[0]
	require.NoError(t, Encode(&b, FromModels(categories, trackers, records, nil)))

	assert.Equal(t, a.String(), b.String())
}

func TestEncodedLayout(t *testing.T) {
	categories, trackers, records := sampleModels()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FromModels(categories, trackers, records, nil)))

	out := buf.String()
	assert.Contains(t, out, `"categoryRef": "c-health"`)
	assert.Contains(t, out, `"colorHex": "#33CC66"`)
	assert.Contains(t, out, `"date": "2024-05-15"`)
	assert.Contains(t, out, `"schedule": [`)
	assert.NotContains(t, out, "T00:00:00", "record dates must not carry a time of day")
	assert.NotContains(t, out, "preferences")
}

func TestDecodeRejectsTimestampsInRecordDates(t *testing.T) {
	doc := `{"version":1,"categories":[],"trackers":[],"records":[{"trackerId":"x","date":"2024-05-15T10:00:00Z"}]}`
	_, err := Decode(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":99}`))
	assert.ErrorContains(t, err, "newer")
}

func TestModelsResolvesTitleKeyedCategoryRef(t *testing.T) {
	doc := `{
		"version": 1,
		"categories": [{"id": "c1", "title": "Health", "createdAt": "2024-05-01T00:00:00Z"}],
		"trackers": [{"id": "t1", "name": "Run", "colorHex": "#000000", "emoji": "🏃", "categoryRef": "Health"}],
		"records": [{"trackerId": "t1", "date": "2024-05-01"}, {"trackerId": "t1", "date": "2024-05-01"}]
	}`
	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	_, trackers, records, prefs, err := s.Models()
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "c1", trackers[0].CategoryID)
	assert.Nil(t, trackers[0].Schedule, "absent schedule stays unscheduled")
	assert.Len(t, records, 1, "duplicate records collapse")
	assert.Equal(t, models.DefaultPreferences(), prefs)
}

func TestModelsRejectsDanglingReferences(t *testing.T) {
	s := Empty()
	s.Trackers = []Tracker{{ID: "t1", Name: "Run", CategoryRef: "missing"}}
	_, _, _, _, err := s.Models()
	assert.ErrorContains(t, err, "unknown category")

	s = Empty()
	s.Records = []Record{{TrackerID: "ghost", Date: "2024-05-01"}}
	_, _, _, _, err = s.Models()
	assert.ErrorContains(t, err, "unknown tracker")

	s = Empty()
	s.Categories = []Category{{ID: "a", Title: "Same"}, {ID: "b", Title: "Same"}}
	_, _, _, _, err = s.Models()
	assert.ErrorContains(t, err, "duplicate category title")
}
