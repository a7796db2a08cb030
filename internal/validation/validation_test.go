package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/trackly/internal/models"
)

func validInput() TrackerInput {
	return TrackerInput{
		Name:     "Run",
		ColorHex: "#33AA55",
		Emoji:    "🏃",
		Schedule: []models.Weekday{models.Monday, models.Wednesday},
		Category: "Health",
	}
}

func TestValidateTracker(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *TrackerInput)
		wantErr string
	}{
		{name: "valid", mutate: func(*TrackerInput) {}},
		{name: "no schedule is allowed", mutate: func(in *TrackerInput) { in.Schedule = nil }},
		{name: "38 runes", mutate: func(in *TrackerInput) { in.Name = strings.Repeat("ж", 38) }},
		{name: "empty name", mutate: func(in *TrackerInput) { in.Name = "  " }, wantErr: "name must be 1-38 characters"},
		{name: "long name", mutate: func(in *TrackerInput) { in.Name = strings.Repeat("a", 39) }, wantErr: "name must be 1-38 characters"},
		{name: "short color", mutate: func(in *TrackerInput) { in.ColorHex = "#abc" }, wantErr: "colorhex must look like #RRGGBB"},
		{name: "missing color", mutate: func(in *TrackerInput) { in.ColorHex = "" }, wantErr: "colorhex is required"},
		{name: "missing emoji", mutate: func(in *TrackerInput) { in.Emoji = "" }, wantErr: "emoji is required"},
		{name: "bad weekday", mutate: func(in *TrackerInput) { in.Schedule = []models.Weekday{8} }, wantErr: "schedule has an invalid weekday code 8"},
		{name: "missing category", mutate: func(in *TrackerInput) { in.Category = "" }, wantErr: "category must be 1-38 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := ValidateTracker(in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTrackerReportsAllFields(t *testing.T) {
	err := ValidateTracker(TrackerInput{})
	require.Error(t, err)
	for _, field := range []string{"name", "colorhex", "emoji", "category"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("  Health  "))
	assert.Error(t, ValidateCategory(""))
	assert.Error(t, ValidateCategory(strings.Repeat("x", 39)))
}

type fakeSource struct {
	categories []models.Category
	trackers   []models.Tracker
	records    []models.Record
	err        error
}

func (f fakeSource) ListCategories() ([]models.Category, error) { return f.categories, f.err }
func (f fakeSource) ListTrackers() ([]models.Tracker, error)    { return f.trackers, nil }
func (f fakeSource) ListRecords() ([]models.Record, error)      { return f.records, nil }

func TestValidateFormFields(t *testing.T) {
	assert.NoError(t, ValidateName("Run"))
	assert.EqualError(t, ValidateName("  "), "name must be 1-38 characters")
	assert.Error(t, ValidateName(strings.Repeat("a", 39)))

	assert.NoError(t, ValidateHexColor("#a1B2c3"))
	assert.EqualError(t, ValidateHexColor(""), "color must look like #RRGGBB")
	assert.Error(t, ValidateHexColor("#abc"))
}

func TestCheckIntegrityClean(t *testing.T) {
	src := fakeSource{
		categories: []models.Category{{ID: "c1", Title: "Health"}},
		trackers:   []models.Tracker{{ID: "t1", Name: "Run", CategoryID: "c1", Schedule: models.NewSchedule(models.Monday)}},
		records:    []models.Record{{TrackerID: "t1", Day: "2024-05-13"}},
	}

	report, err := CheckIntegrity(src)
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
	assert.False(t, report.HasErrors())
	assert.Equal(t, "No integrity issues detected.", report.FormatReport())
}

func TestCheckIntegrityFindsIssues(t *testing.T) {
	src := fakeSource{
		categories: []models.Category{{ID: "c1", Title: "Health"}, {ID: "c2", Title: "Health"}},
		trackers: []models.Tracker{
			{ID: "t1", Name: "Run", CategoryID: "gone", Schedule: models.NewSchedule(models.Monday)},
			{ID: "t2", Name: "Idle", CategoryID: "c1"},
		},
		records: []models.Record{
			{TrackerID: "ghost", Day: "2024-05-13"},
			{TrackerID: "ghost", Day: "2024-05-14"},
			{TrackerID: "t1", Day: "yesterday"},
		},
	}

	report, err := CheckIntegrity(src)
	require.NoError(t, err)
	assert.True(t, report.HasErrors())

	types := map[IssueType]int{}
	for _, issue := range report.Issues {
		types[issue.Type]++
	}
	assert.Equal(t, 1, types[IssueDuplicateTitle])
	assert.Equal(t, 1, types[IssueOrphanTracker])
	assert.Equal(t, 1, types[IssueOrphanRecord])
	assert.Equal(t, 1, types[IssueInvalidRecordDay])
	assert.Equal(t, 1, types[IssueUnscheduledTracker])

	out := report.FormatReport()
	assert.Contains(t, out, "2 record(s) reference missing tracker ghost")
	assert.Contains(t, out, "(warning)")
}

func TestCheckIntegrityPropagatesErrors(t *testing.T) {
	_, err := CheckIntegrity(fakeSource{err: errors.New("boom")})
	assert.EqualError(t, err, "boom")
}
