package tracking

import (
	"sort"
	"strings"

	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
)

// Query selects what the board shows.
type Query struct {
	// Date is the reference day; zero means today.
	Date   models.Day
	Search string
	Filter models.Filter
}

// EmptyReason tells an empty board apart from one with content.
type EmptyReason int

const (
	EmptyNone EmptyReason = iota
	// EmptyNothingDue: no tracker is scheduled for the day.
	EmptyNothingDue
	// EmptyNoResults: trackers are due, but search or filter hid them all.
	EmptyNoResults
)

func (e EmptyReason) String() string {
	switch e {
	case EmptyNothingDue:
		return "nothing due"
	case EmptyNoResults:
		return "no results"
	default:
		return "none"
	}
}

// Item is one tracker on the board.
type Item struct {
	Tracker         models.Tracker
	Completed       bool
	CompletionCount int
}

// Section groups the items of one category.
type Section struct {
	Category models.Category
	Items    []Item
}

// Board is the grouped, ordered view of a day.
type Board struct {
	Day      models.Day
	Query    Query
	Sections []Section
	Empty    EmptyReason
}

// Len counts items across sections.
func (b Board) Len() int {
	n := 0
	for _, sec := range b.Sections {
		n += len(sec.Items)
	}
	return n
}

// Board computes the view for q and remembers q for Watch.
func (s *Service) Board(q Query) (Board, error) {
	s.mu.Lock()
	s.last = q
	s.mu.Unlock()
	return s.compute(q)
}

func (s *Service) compute(q Query) (Board, error) {
	day := q.Date
	filter := q.Filter
	if filter == models.FilterToday || day.IsZero() {
		day = s.Today()
	}
	if filter == models.FilterToday || filter == "" {
		filter = models.FilterAll
	}
	board := Board{Day: day, Query: q}

	trackers, err := s.store.ListTrackers()
	if err != nil {
		return board, err
	}

	var due []models.Tracker
	for _, t := range trackers {
		if t.DueOn(day) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		board.Empty = EmptyNothingDue
		return board, nil
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	groups := make(map[string][]Item)
	for _, t := range due {
		if term != "" && !strings.Contains(strings.ToLower(t.Name), term) {
			continue
		}
		done, err := s.store.IsComplete(t.ID, day)
		if err != nil {
			return board, err
		}
		if (filter == models.FilterCompleted && !done) || (filter == models.FilterIncomplete && done) {
			continue
		}
		count, err := s.store.CompletionCount(t.ID)
		if err != nil {
			return board, err
		}
		groups[t.CategoryID] = append(groups[t.CategoryID], Item{Tracker: t, Completed: done, CompletionCount: count})
	}
	if len(groups) == 0 {
		board.Empty = EmptyNoResults
		return board, nil
	}

	prefs, err := s.store.GetPreferences()
	if err != nil {
		return board, err
	}
	col := storage.NewCollator(prefs.LocaleOrDefault())

	for categoryID, items := range groups {
		category, err := s.store.GetCategory(categoryID)
		if err != nil {
			return board, err
		}
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].Tracker, items[j].Tracker
			if cmp := col.Compare(a.Name, b.Name); cmp != 0 {
				return cmp < 0
			}
			return a.ID < b.ID
		})
		board.Sections = append(board.Sections, Section{Category: category, Items: items})
	}
	sort.SliceStable(board.Sections, func(i, j int) bool {
		a, b := board.Sections[i].Category, board.Sections[j].Category
		if cmp := col.Compare(a.Title, b.Title); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})

	return board, nil
}

// Watch recomputes the board for the most recent query after every store
// change and hands it to fn. Errors from recomputation are passed along
// with the partial board.
func (s *Service) Watch(fn func(Board, error)) (unsubscribe func()) {
	return s.store.Subscribe(func(storage.Change) {
		s.mu.Lock()
		q := s.last
		s.mu.Unlock()
		fn(s.compute(q))
	})
}
