package tracking

import (
	"sort"

	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
)

// TrackerStat is the lifetime completion count of one tracker.
type TrackerStat struct {
	Tracker models.Tracker
	Count   int
}

// Stats summarizes the whole store.
type Stats struct {
	TotalCompleted int
	Trackers       int
	Categories     int
	PerTracker     []TrackerStat
}

// Stats counts every record ever added, per tracker and in total. Trackers
// are ordered by count, most completed first, then by name.
func (s *Service) Stats() (Stats, error) {
	var st Stats

	categories, err := s.store.ListCategories()
	if err != nil {
		return st, err
	}
	trackers, err := s.store.ListTrackers()
	if err != nil {
		return st, err
	}
	prefs, err := s.store.GetPreferences()
	if err != nil {
		return st, err
	}

	st.Categories = len(categories)
	st.Trackers = len(trackers)
	for _, t := range trackers {
		n, err := s.store.CompletionCount(t.ID)
		if err != nil {
			return st, err
		}
		st.TotalCompleted += n
		st.PerTracker = append(st.PerTracker, TrackerStat{Tracker: t, Count: n})
	}

	col := storage.NewCollator(prefs.LocaleOrDefault())
	sort.SliceStable(st.PerTracker, func(i, j int) bool {
		a, b := st.PerTracker[i], st.PerTracker[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if cmp := col.Compare(a.Tracker.Name, b.Tracker.Name); cmp != 0 {
			return cmp < 0
		}
		return a.Tracker.ID < b.Tracker.ID
	})
	return st, nil
}
