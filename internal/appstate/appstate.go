// Package appstate defines the portable document that captures a whole
// tracker store: categories, trackers, completion records and preferences.
// It is the on-disk format of the JSON backend and of export files.
package appstate

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/julianstephens/trackly/internal/models"
)

// CurrentVersion is written into every encoded document.
const CurrentVersion = 1

type State struct {
	Version     int          `json:"version"`
	Categories  []Category   `json:"categories"`
	Trackers    []Tracker    `json:"trackers"`
	Records     []Record     `json:"records"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

type Category struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type Tracker struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
	Emoji    string `json:"emoji"`
	Schedule []int  `json:"schedule,omitempty"`
	// CategoryRef holds the category ID. Documents keyed by title are
	// accepted on decode.
	CategoryRef string `json:"categoryRef"`
}

type Record struct {
	TrackerID string     `json:"trackerId"`
	Date      models.Day `json:"date"`
}

type Preferences struct {
	LastCategoryID string `json:"lastCategoryId,omitempty"`
	Locale         string `json:"locale,omitempty"`
}

// Empty returns a document with no data.
func Empty() State {
	return State{
		Version:    CurrentVersion,
		Categories: []Category{},
		Trackers:   []Tracker{},
		Records:    []Record{},
	}
}

// FromModels builds a normalized document from domain values.
func FromModels(categories []models.Category, trackers []models.Tracker, records []models.Record, prefs *models.Preferences) State {
	s := Empty()
	for _, c := range categories {
		s.Categories = append(s.Categories, Category{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	for _, t := range trackers {
		s.Trackers = append(s.Trackers, Tracker{
			ID:          t.ID,
			Name:        t.Name,
			ColorHex:    t.ColorHex,
			Emoji:       t.Emoji,
			Schedule:    t.Schedule.Codes(),
			CategoryRef: t.CategoryID,
		})
	}
	for _, r := range records {
		s.Records = append(s.Records, Record{TrackerID: r.TrackerID, Date: r.Day})
	}
	if prefs != nil {
		s.Preferences = &Preferences{LastCategoryID: prefs.LastCategoryID, Locale: prefs.Locale}
	}
	s.Normalize()
	return s
}

// Models converts the document back into domain values, resolving each
// tracker's categoryRef by ID first and by title second. Trackers whose
// category cannot be resolved and records of unknown trackers are reported
// as errors.
func (s State) Models() ([]models.Category, []models.Tracker, []models.Record, models.Preferences, error) {
	prefs := models.DefaultPreferences()
	if s.Preferences != nil {
		prefs.LastCategoryID = s.Preferences.LastCategoryID
		if s.Preferences.Locale != "" {
			prefs.Locale = s.Preferences.Locale
		}
	}

	byID := make(map[string]bool, len(s.Categories))
	byTitle := make(map[string]string, len(s.Categories))
	categories := make([]models.Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		if c.ID == "" || c.Title == "" {
			return nil, nil, nil, prefs, fmt.Errorf("category with empty id or title")
		}
		if _, dup := byTitle[c.Title]; dup {
			return nil, nil, nil, prefs, fmt.Errorf("duplicate category title %q", c.Title)
		}
		byID[c.ID] = true
		byTitle[c.Title] = c.ID
		categories = append(categories, models.Category{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
	}

	trackerIDs := make(map[string]bool, len(s.Trackers))
	trackers := make([]models.Tracker, 0, len(s.Trackers))
	for _, t := range s.Trackers {
		categoryID := t.CategoryRef
		if !byID[categoryID] {
			id, ok := byTitle[t.CategoryRef]
			if !ok {
				return nil, nil, nil, prefs, fmt.Errorf("tracker %s references unknown category %q", t.ID, t.CategoryRef)
			}
			categoryID = id
		}
		for _, code := range t.Schedule {
			if !models.Weekday(code).Valid() {
				return nil, nil, nil, prefs, fmt.Errorf("tracker %s has invalid weekday code %d", t.ID, code)
			}
		}
		trackerIDs[t.ID] = true
		trackers = append(trackers, models.Tracker{
			ID:         t.ID,
			Name:       t.Name,
			ColorHex:   t.ColorHex,
			Emoji:      t.Emoji,
			Schedule:   models.ScheduleFromCodes(t.Schedule),
			CategoryID: categoryID,
		})
	}

	seen := make(map[models.Record]bool, len(s.Records))
	records := make([]models.Record, 0, len(s.Records))
	for _, r := range s.Records {
		if !trackerIDs[r.TrackerID] {
			return nil, nil, nil, prefs, fmt.Errorf("record references unknown tracker %s", r.TrackerID)
		}
		rec := models.Record{TrackerID: r.TrackerID, Day: r.Date}
		if seen[rec] {
			continue
		}
		seen[rec] = true
		records = append(records, rec)
	}

	return categories, trackers, records, prefs, nil
}

// Normalize sorts every list so that encoding is deterministic.
func (s *State) Normalize() {
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	sort.Slice(s.Trackers, func(i, j int) bool {
		return s.Trackers[i].ID < s.Trackers[j].ID
	})
	sort.Slice(s.Records, func(i, j int) bool {
		a, b := s.Records[i], s.Records[j]
		if a.TrackerID != b.TrackerID {
			return a.TrackerID < b.TrackerID
		}
		return a.Date < b.Date
	})
}

// Encode writes the document as indented JSON.
func Encode(w io.Writer, s State) error {
	s.Version = CurrentVersion
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Trackers == nil {
		s.Trackers = []Tracker{}
	}
	if s.Records == nil {
		s.Records = []Record{}
	}
	s.Normalize()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode app state: %w", err)
	}
	return nil
}

// Decode reads a document. Record dates must be plain calendar days; a
// timestamp with a time of day is rejected.
func Decode(r io.Reader) (State, error) {
	var s State
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return State{}, fmt.Errorf("failed to parse app state: %w", err)
	}
	if s.Version > CurrentVersion {
		return State{}, fmt.Errorf("app state version %d is newer than supported version %d", s.Version, CurrentVersion)
	}
	for _, rec := range s.Records {
		if _, err := models.ParseDay(string(rec.Date)); err != nil {
			return State{}, fmt.Errorf("record for tracker %s: %w", rec.TrackerID, err)
		}
	}
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Trackers == nil {
		s.Trackers = []Tracker{}
	}
	if s.Records == nil {
		s.Records = []Record{}
	}
	s.Normalize()
	return s, nil
}
