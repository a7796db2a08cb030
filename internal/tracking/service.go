// Package tracking turns stored trackers and records into what the user
// sees for a day, and applies completion toggles.
package tracking

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/validation"
)

// Service is the query and command layer above a storage.Provider.
type Service struct {
	store storage.Provider
	now   func() time.Time

	mu   sync.Mutex
	last Query
}

// NewService builds a Service over store. clock defaults to time.Now.
func NewService(store storage.Provider, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, now: clock}
}

// Today is the clock's current calendar day.
func (s *Service) Today() models.Day {
	return models.DayOf(s.now())
}

func (s *Service) Store() storage.Provider {
	return s.store
}

// CreateTracker validates in, stores a new tracker under in.Category and
// remembers that category for the next creation.
func (s *Service) CreateTracker(in validation.TrackerInput) (models.Tracker, error) {
	return s.saveTracker(uuid.New().String(), in)
}

// EditTracker replaces every field of an existing tracker.
func (s *Service) EditTracker(id string, in validation.TrackerInput) (models.Tracker, error) {
	if _, err := s.store.GetTracker(id); err != nil {
		return models.Tracker{}, err
	}
	return s.saveTracker(id, in)
}

func (s *Service) saveTracker(id string, in validation.TrackerInput) (models.Tracker, error) {
	if err := validation.ValidateTracker(in); err != nil {
		return models.Tracker{}, err
	}

	stored, err := s.store.UpsertTracker(models.Tracker{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		ColorHex: strings.ToUpper(in.ColorHex),
		Emoji:    in.Emoji,
		Schedule: models.NewSchedule(in.Schedule...),
	}, in.Category)
	if err != nil {
		return models.Tracker{}, err
	}
	if stored.ID == "" {
		return models.Tracker{}, fmt.Errorf("tracker %q was not stored", in.Name)
	}

	prefs, err := s.store.GetPreferences()
	if err != nil {
		return stored, err
	}
	prefs.LastCategoryID = stored.CategoryID
	if err := s.store.SavePreferences(prefs); err != nil {
		return stored, err
	}

	logger.Debug("Saved tracker", "id", stored.ID, "category", stored.CategoryID)
	return stored, nil
}

// LastCategory returns the category picked in the previous creation, if
// it still exists.
func (s *Service) LastCategory() (models.Category, bool, error) {
	prefs, err := s.store.GetPreferences()
	if err != nil {
		return models.Category{}, false, err
	}
	if prefs.LastCategoryID == "" {
		return models.Category{}, false, nil
	}
	c, err := s.store.GetCategory(prefs.LastCategoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Category{}, false, nil
	}
	if err != nil {
		return models.Category{}, false, err
	}
	return c, true, nil
}

// DeleteCategory removes a category with its trackers and records, and
// forgets it as the last used category.
func (s *Service) DeleteCategory(id string) error {
	if err := s.store.DeleteCategory(id); err != nil {
		return err
	}

	prefs, err := s.store.GetPreferences()
	if err != nil {
		return err
	}
	if prefs.LastCategoryID != id {
		return nil
	}
	prefs.LastCategoryID = ""
	return s.store.SavePreferences(prefs)
}

// FindTracker resolves a tracker by ID, or by name when the name is
// unambiguous (case-insensitive).
func (s *Service) FindTracker(ref string) (models.Tracker, error) {
	if t, err := s.store.GetTracker(ref); err == nil {
		return t, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Tracker{}, err
	}

	trackers, err := s.store.ListTrackers()
	if err != nil {
		return models.Tracker{}, err
	}
	var matches []models.Tracker
	for _, t := range trackers {
		if strings.EqualFold(t.Name, strings.TrimSpace(ref)) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Tracker{}, storage.NotFound("tracker", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Tracker{}, fmt.Errorf("%d trackers are named %q, use the tracker id", len(matches), ref)
	}
}
