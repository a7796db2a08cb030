package validation

import (
	"fmt"
	"sort"

	"github.com/julianstephens/trackly/internal/models"
)

// IssueType represents the kind of integrity problem found in a store
type IssueType string

const (
	IssueOrphanTracker      IssueType = "orphan_tracker"
	IssueOrphanRecord       IssueType = "orphan_record"
	IssueDuplicateTitle     IssueType = "duplicate_category_title"
	IssueInvalidSchedule    IssueType = "invalid_schedule"
	IssueInvalidRecordDay   IssueType = "invalid_record_day"
	IssueUnscheduledTracker IssueType = "unscheduled_tracker"
)

// Issue is one integrity problem.
type Issue struct {
	Type        IssueType
	Description string
	// Warning issues are reported but do not make the store inconsistent.
	Warning bool
}

// IntegrityReport lists every issue found by CheckIntegrity.
type IntegrityReport struct {
	Issues []Issue
}

// HasErrors reports whether any non-warning issue was found
func (r *IntegrityReport) HasErrors() bool {
	for _, issue := range r.Issues {
		if !issue.Warning {
			return true
		}
	}
	return false
}

// FormatReport returns a human-readable report of all issues
func (r *IntegrityReport) FormatReport() string {
	if len(r.Issues) == 0 {
		return "No integrity issues detected."
	}

	report := "Integrity issues detected:\n"
	for _, issue := range r.Issues {
		prefix := "-"
		if issue.Warning {
			prefix = "- (warning)"
		}
		report += fmt.Sprintf("%s %s\n", prefix, issue.Description)
	}
	return report
}

// Source is the read side of a store.
type Source interface {
	ListCategories() ([]models.Category, error)
	ListTrackers() ([]models.Tracker, error)
	ListRecords() ([]models.Record, error)
}

// CheckIntegrity looks for references the storage layer should never
// allow: trackers of missing categories, records of missing trackers and
// repeated category titles. Trackers without a schedule are reported as
// warnings since they never appear on the board.
func CheckIntegrity(src Source) (IntegrityReport, error) {
	var report IntegrityReport

	categories, err := src.ListCategories()
	if err != nil {
		return report, err
	}
	trackers, err := src.ListTrackers()
	if err != nil {
		return report, err
	}
	records, err := src.ListRecords()
	if err != nil {
		return report, err
	}

	categoryIDs := make(map[string]bool, len(categories))
	titles := make(map[string]int)
	for _, c := range categories {
		categoryIDs[c.ID] = true
		titles[c.Title]++
	}

	dupes := make([]string, 0)
	for title, n := range titles {
		if n > 1 {
			dupes = append(dupes, title)
		}
	}
	sort.Strings(dupes)
	for _, title := range dupes {
		report.Issues = append(report.Issues, Issue{
			Type:        IssueDuplicateTitle,
			Description: fmt.Sprintf("category title %q is used %d times", title, titles[title]),
		})
	}

	trackerIDs := make(map[string]bool, len(trackers))
	for _, t := range trackers {
		trackerIDs[t.ID] = true
		if !categoryIDs[t.CategoryID] {
			report.Issues = append(report.Issues, Issue{
				Type:        IssueOrphanTracker,
				Description: fmt.Sprintf("tracker %q (%s) references missing category %s", t.Name, t.ID, t.CategoryID),
			})
		}
		for _, d := range t.Schedule {
			if !d.Valid() {
				report.Issues = append(report.Issues, Issue{
					Type:        IssueInvalidSchedule,
					Description: fmt.Sprintf("tracker %q has invalid weekday code %d", t.Name, int(d)),
				})
			}
		}
		if t.Schedule.IsEmpty() {
			report.Issues = append(report.Issues, Issue{
				Type:        IssueUnscheduledTracker,
				Description: fmt.Sprintf("tracker %q has no schedule and is never due", t.Name),
				Warning:     true,
			})
		}
	}

	orphans := make(map[string]int)
	for _, r := range records {
		if !trackerIDs[r.TrackerID] {
			orphans[r.TrackerID]++
		}
		if _, err := models.ParseDay(r.Day.String()); err != nil {
			report.Issues = append(report.Issues, Issue{
				Type:        IssueInvalidRecordDay,
				Description: fmt.Sprintf("record of tracker %s has invalid day %q", r.TrackerID, r.Day),
			})
		}
	}
	orphanIDs := make([]string, 0, len(orphans))
	for id := range orphans {
		orphanIDs = append(orphanIDs, id)
	}
	sort.Strings(orphanIDs)
	for _, id := range orphanIDs {
		report.Issues = append(report.Issues, Issue{
			Type:        IssueOrphanRecord,
			Description: fmt.Sprintf("%d record(s) reference missing tracker %s", orphans[id], id),
		})
	}

	return report, nil
}
