package tracking

import (
	"errors"

	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
)

// Outcome reports what a toggle did.
type Outcome int

const (
	// Ignored: future or malformed day, or unknown tracker. Nothing changed.
	Ignored Outcome = iota
	Completed
	Uncompleted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Uncompleted:
		return "uncompleted"
	default:
		return "ignored"
	}
}

// Toggle flips the completion of a tracker on day. Days after today are
// ignored.
func (s *Service) Toggle(trackerID string, day models.Day) (Outcome, error) {
	if day.IsZero() {
		day = s.Today()
	}
	if !day.Valid() {
		logger.Debug("Ignoring toggle for a malformed day", "tracker", trackerID, "day", day)
		return Ignored, nil
	}
	if today := s.Today(); day.After(today) {
		logger.Debug("Ignoring toggle for a future day", "tracker", trackerID, "day", day, "today", today)
		return Ignored, nil
	}

	if _, err := s.store.GetTracker(trackerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Ignored, nil
		}
		return Ignored, err
	}

	done, err := s.store.IsComplete(trackerID, day)
	if err != nil {
		return Ignored, err
	}
	if done {
		if err := s.store.RemoveRecord(trackerID, day); err != nil {
			return Ignored, err
		}
		return Uncompleted, nil
	}
	if err := s.store.AddRecord(trackerID, day); err != nil {
		return Ignored, err
	}
	return Completed, nil
}
