package appstate

import (
	"fmt"

	"github.com/julianstephens/trackly/internal/models"
)

// Source is the read side of a store needed to take a snapshot.
type Source interface {
	ListCategories() ([]models.Category, error)
	ListTrackers() ([]models.Tracker, error)
	ListRecords() ([]models.Record, error)
	GetPreferences() (models.Preferences, error)
}

// Sink is the write side of a store needed to restore a snapshot.
type Sink interface {
	ImportCategory(models.Category) error
	GetCategoryByTitle(title string) (models.Category, error)
	UpsertTracker(tracker models.Tracker, categoryTitle string) (models.Tracker, error)
	AddRecord(trackerID string, day models.Day) error
	SavePreferences(models.Preferences) error
}

// Snapshot captures everything in src.
func Snapshot(src Source) (State, error) {
	categories, err := src.ListCategories()
	if err != nil {
		return State{}, fmt.Errorf("failed to list categories: %w", err)
	}
	trackers, err := src.ListTrackers()
	if err != nil {
		return State{}, fmt.Errorf("failed to list trackers: %w", err)
	}
	records, err := src.ListRecords()
	if err != nil {
		return State{}, fmt.Errorf("failed to list records: %w", err)
	}
	prefs, err := src.GetPreferences()
	if err != nil {
		return State{}, fmt.Errorf("failed to get preferences: %w", err)
	}
	return FromModels(categories, trackers, records, &prefs), nil
}

// Summary counts what Restore wrote.
type Summary struct {
	Categories int
	Trackers   int
	Records    int
}

// Restore merges s into dst. Categories are matched by title, so a title
// already present in dst absorbs the imported trackers; trackers are
// upserted by ID and records are added idempotently.
func Restore(dst Sink, s State) (Summary, error) {
	var sum Summary

	categories, trackers, records, prefs, err := s.Models()
	if err != nil {
		return sum, err
	}

	titles := make(map[string]string, len(categories))
	for _, c := range categories {
		if err := dst.ImportCategory(c); err != nil {
			return sum, fmt.Errorf("failed to import category %q: %w", c.Title, err)
		}
		titles[c.ID] = c.Title
		sum.Categories++
	}

	for _, t := range trackers {
		if _, err := dst.UpsertTracker(t, titles[t.CategoryID]); err != nil {
			return sum, fmt.Errorf("failed to import tracker %s: %w", t.Name, err)
		}
		sum.Trackers++
	}

	for _, r := range records {
		if err := dst.AddRecord(r.TrackerID, r.Day); err != nil {
			return sum, fmt.Errorf("failed to import record %s/%s: %w", r.TrackerID, r.Day, err)
		}
		sum.Records++
	}

	if s.Preferences != nil {
		// The last selected category may have been absorbed by an existing one.
		if title, ok := titles[prefs.LastCategoryID]; ok {
			if c, err := dst.GetCategoryByTitle(title); err == nil {
				prefs.LastCategoryID = c.ID
			}
		}
		if err := dst.SavePreferences(prefs); err != nil {
			return sum, fmt.Errorf("failed to import preferences: %w", err)
		}
	}

	return sum, nil
}
