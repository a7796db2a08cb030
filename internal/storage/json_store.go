package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/trackly/internal/appstate"
	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/models"
)

// jsonState is the in-memory form of the document. Reads are served from
// it; every mutation works on a clone that replaces it only after the file
// has been written.
type jsonState struct {
	categories map[string]models.Category
	trackers   map[string]models.Tracker
	records    map[string]map[models.Day]struct{} // tracker id -> days
	prefs      models.Preferences
}

func newJSONState() *jsonState {
	return &jsonState{
		categories: make(map[string]models.Category),
		trackers:   make(map[string]models.Tracker),
		records:    make(map[string]map[models.Day]struct{}),
		prefs:      models.DefaultPreferences(),
	}
}

func (st *jsonState) clone() *jsonState {
	c := &jsonState{
		categories: make(map[string]models.Category, len(st.categories)),
		trackers:   make(map[string]models.Tracker, len(st.trackers)),
		records:    make(map[string]map[models.Day]struct{}, len(st.records)),
		prefs:      st.prefs,
	}
	for id, cat := range st.categories {
		c.categories[id] = cat
	}
	for id, t := range st.trackers {
		t.Schedule = append(models.Schedule(nil), t.Schedule...)
		c.trackers[id] = t
	}
	for id, days := range st.records {
		cp := make(map[models.Day]struct{}, len(days))
		for d := range days {
			cp[d] = struct{}{}
		}
		c.records[id] = cp
	}
	return c
}

func (st *jsonState) categoryByTitle(title string) (models.Category, bool) {
	for _, c := range st.categories {
		if c.Title == title {
			return c, true
		}
	}
	return models.Category{}, false
}

func (st *jsonState) titles() map[string]string {
	titles := make(map[string]string, len(st.categories))
	for id, c := range st.categories {
		titles[id] = c.Title
	}
	return titles
}

func (st *jsonState) document() appstate.State {
	categories := make([]models.Category, 0, len(st.categories))
	for _, c := range st.categories {
		categories = append(categories, c)
	}
	trackers := make([]models.Tracker, 0, len(st.trackers))
	for _, t := range st.trackers {
		trackers = append(trackers, t)
	}
	var records []models.Record
	for id, days := range st.records {
		for d := range days {
			records = append(records, models.Record{TrackerID: id, Day: d})
		}
	}
	prefs := st.prefs
	return appstate.FromModels(categories, trackers, records, &prefs)
}

// JSONStore keeps the whole store in one JSON document laid out as
// appstate.State.
//
// JSONStore is safe for use by multiple goroutines. Running multiple
// trackly processes against the same file at the same time is not
// supported; the CLI guards against it with a lockfile.
type JSONStore struct {
	Hub

	path  string
	mu    sync.RWMutex
	state *jsonState
	now   func() time.Time
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
		now:  time.Now,
	}
}

func (s *JSONStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Failure("init", fmt.Errorf("failed to create config directory: %w", err))
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	st := newJSONState()
	if err := s.write(st); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'trackly init' first")
		}
		return Failure("load", fmt.Errorf("failed to read storage: %w", err))
	}

	doc, err := appstate.Decode(bytes.NewReader(data))
	if err != nil {
		return Failure("load", err)
	}
	categories, trackers, records, prefs, err := doc.Models()
	if err != nil {
		return Failure("load", fmt.Errorf("failed to parse storage: %w", err))
	}

	st := newJSONState()
	st.prefs = prefs
	for _, c := range categories {
		st.categories[c.ID] = c
	}
	for _, t := range trackers {
		st.trackers[t.ID] = t
	}
	for _, r := range records {
		if st.records[r.TrackerID] == nil {
			st.records[r.TrackerID] = make(map[models.Day]struct{})
		}
		st.records[r.TrackerID][r.Day] = struct{}{}
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// write persists st with a temp file and rename so a failed write never
// leaves a truncated document behind.
func (s *JSONStore) write(st *jsonState) error {
	var buf bytes.Buffer
	if err := appstate.Encode(&buf, st.document()); err != nil {
		return Failure("save", fmt.Errorf("failed to serialize storage: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return Failure("save", fmt.Errorf("failed to write storage: %w", err))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Failure("save", fmt.Errorf("failed to write storage: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Failure("save", fmt.Errorf("failed to sync storage: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Failure("save", fmt.Errorf("failed to write storage: %w", err))
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return Failure("save", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return Failure("save", fmt.Errorf("failed to replace storage: %w", err))
	}
	return nil
}

// mutate runs fn against a clone of the state. If fn reports changes the
// clone is written and swapped in; subscribers are notified after the lock
// is released.
func (s *JSONStore) mutate(op string, fn func(st *jsonState) ([]Change, error)) error {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return NotLoaded(op)
	}

	next := s.state.clone()
	changes, err := fn(next)
	if err == nil && len(changes) > 0 {
		err = s.write(next)
		if err == nil {
			s.state = next
		}
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.Publish(changes...)
	return nil
}

func (s *JSONStore) read(op string, fn func(st *jsonState) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return NotLoaded(op)
	}
	return fn(s.state)
}

func (s *JSONStore) GetPreferences() (models.Preferences, error) {
	var prefs models.Preferences
	err := s.read("get preferences", func(st *jsonState) error {
		prefs = st.prefs
		return nil
	})
	return prefs, err
}

func (s *JSONStore) SavePreferences(prefs models.Preferences) error {
	if prefs.Locale == "" {
		prefs.Locale = constants.DefaultLocale
	}
	return s.mutate("save preferences", func(st *jsonState) ([]Change, error) {
		if st.prefs == prefs {
			return nil, nil
		}
		st.prefs = prefs
		return []Change{{Entity: EntityPreferences, Op: OpUpdate}}, nil
	})
}

func (s *JSONStore) CreateCategory(title string) (models.Category, error) {
	var created models.Category
	title, ok := NormalizeTitle(title, constants.MaxTitleLength)
	if !ok {
		return created, nil
	}

	err := s.mutate("create category", func(st *jsonState) ([]Change, error) {
		if existing, ok := st.categoryByTitle(title); ok {
			created = existing
			return nil, nil
		}
		created = models.Category{
			ID:        uuid.New().String(),
			Title:     title,
			CreatedAt: s.now().UTC().Truncate(time.Second),
		}
		st.categories[created.ID] = created
		return []Change{{Entity: EntityCategory, Op: OpCreate, ID: created.ID}}, nil
	})
	if err != nil {
		return models.Category{}, err
	}
	return created, nil
}

func (s *JSONStore) ImportCategory(c models.Category) error {
	title, ok := NormalizeTitle(c.Title, constants.MaxTitleLength)
	if !ok || c.ID == "" {
		return nil
	}
	return s.mutate("import category", func(st *jsonState) ([]Change, error) {
		if _, exists := st.categories[c.ID]; exists {
			return nil, nil
		}
		if _, exists := st.categoryByTitle(title); exists {
			return nil, nil
		}
		c.Title = title
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now()
		}
		c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Second)
		st.categories[c.ID] = c
		return []Change{{Entity: EntityCategory, Op: OpCreate, ID: c.ID}}, nil
	})
}

func (s *JSONStore) GetCategory(id string) (models.Category, error) {
	var c models.Category
	err := s.read("get category", func(st *jsonState) error {
		var ok bool
		if c, ok = st.categories[id]; !ok {
			return NotFound("category", id)
		}
		return nil
	})
	return c, err
}

func (s *JSONStore) GetCategoryByTitle(title string) (models.Category, error) {
	var c models.Category
	err := s.read("get category", func(st *jsonState) error {
		var ok bool
		if c, ok = st.categoryByTitle(title); !ok {
			return NotFound("category", title)
		}
		return nil
	})
	return c, err
}

func (s *JSONStore) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	var locale string
	err := s.read("list categories", func(st *jsonState) error {
		categories = make([]models.Category, 0, len(st.categories))
		for _, c := range st.categories {
			categories = append(categories, c)
		}
		locale = st.prefs.LocaleOrDefault()
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortCategories(categories, locale)
	return categories, nil
}

func (s *JSONStore) RenameCategory(id, title string) error {
	return s.mutate("rename category", func(st *jsonState) ([]Change, error) {
		c, ok := st.categories[id]
		if !ok {
			return nil, NotFound("category", id)
		}
		title, ok := NormalizeTitle(title, constants.MaxTitleLength)
		if !ok || title == c.Title {
			return nil, nil
		}
		if _, taken := st.categoryByTitle(title); taken {
			return nil, nil
		}
		c.Title = title
		st.categories[id] = c
		return []Change{{Entity: EntityCategory, Op: OpUpdate, ID: id}}, nil
	})
}

func (s *JSONStore) DeleteCategory(id string) error {
	return s.mutate("delete category", func(st *jsonState) ([]Change, error) {
		if _, ok := st.categories[id]; !ok {
			return nil, NotFound("category", id)
		}
		var changes []Change
		for tid, t := range st.trackers {
			if t.CategoryID != id {
				continue
			}
			delete(st.records, tid)
			delete(st.trackers, tid)
			changes = append(changes, Change{Entity: EntityTracker, Op: OpDelete, ID: tid})
		}
		delete(st.categories, id)
		changes = append(changes, Change{Entity: EntityCategory, Op: OpDelete, ID: id})
		return changes, nil
	})
}

func (s *JSONStore) UpsertTracker(tracker models.Tracker, categoryTitle string) (models.Tracker, error) {
	title, ok := NormalizeTitle(categoryTitle, constants.MaxTitleLength)
	if !ok || tracker.Name == "" || tracker.ID == "" {
		return models.Tracker{}, nil
	}
	tracker.Schedule = models.NewSchedule(tracker.Schedule...)

	err := s.mutate("upsert tracker", func(st *jsonState) ([]Change, error) {
		var changes []Change
		cat, ok := st.categoryByTitle(title)
		if !ok {
			cat = models.Category{
				ID:        uuid.New().String(),
				Title:     title,
				CreatedAt: s.now().UTC().Truncate(time.Second),
			}
			st.categories[cat.ID] = cat
			changes = append(changes, Change{Entity: EntityCategory, Op: OpCreate, ID: cat.ID})
		}
		tracker.CategoryID = cat.ID

		op := OpCreate
		if _, exists := st.trackers[tracker.ID]; exists {
			op = OpUpdate
		}
		st.trackers[tracker.ID] = tracker
		changes = append(changes, Change{Entity: EntityTracker, Op: op, ID: tracker.ID})
		return changes, nil
	})
	if err != nil {
		return models.Tracker{}, err
	}
	return tracker, nil
}

func (s *JSONStore) GetTracker(id string) (models.Tracker, error) {
	var t models.Tracker
	err := s.read("get tracker", func(st *jsonState) error {
		var ok bool
		if t, ok = st.trackers[id]; !ok {
			return NotFound("tracker", id)
		}
		return nil
	})
	return t, err
}

func (s *JSONStore) DeleteTracker(id string) error {
	return s.mutate("delete tracker", func(st *jsonState) ([]Change, error) {
		if _, ok := st.trackers[id]; !ok {
			return nil, nil
		}
		delete(st.records, id)
		delete(st.trackers, id)
		return []Change{{Entity: EntityTracker, Op: OpDelete, ID: id}}, nil
	})
}

func (s *JSONStore) ListTrackers() ([]models.Tracker, error) {
	var trackers []models.Tracker
	var titles map[string]string
	var locale string
	err := s.read("list trackers", func(st *jsonState) error {
		trackers = make([]models.Tracker, 0, len(st.trackers))
		for _, t := range st.trackers {
			trackers = append(trackers, t)
		}
		titles = st.titles()
		locale = st.prefs.LocaleOrDefault()
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortTrackers(trackers, titles, locale)
	return trackers, nil
}

func (s *JSONStore) AddRecord(trackerID string, day models.Day) error {
	if !day.Valid() {
		return nil
	}
	return s.mutate("add record", func(st *jsonState) ([]Change, error) {
		if _, ok := st.trackers[trackerID]; !ok {
			return nil, nil
		}
		days := st.records[trackerID]
		if days == nil {
			days = make(map[models.Day]struct{})
			st.records[trackerID] = days
		}
		if _, done := days[day]; done {
			return nil, nil
		}
		days[day] = struct{}{}
		return []Change{{Entity: EntityRecord, Op: OpCreate, ID: trackerID, Day: day}}, nil
	})
}

func (s *JSONStore) RemoveRecord(trackerID string, day models.Day) error {
	if !day.Valid() {
		return nil
	}
	return s.mutate("remove record", func(st *jsonState) ([]Change, error) {
		days := st.records[trackerID]
		if _, done := days[day]; !done {
			return nil, nil
		}
		delete(days, day)
		if len(days) == 0 {
			delete(st.records, trackerID)
		}
		return []Change{{Entity: EntityRecord, Op: OpDelete, ID: trackerID, Day: day}}, nil
	})
}

func (s *JSONStore) IsComplete(trackerID string, day models.Day) (bool, error) {
	if !day.Valid() {
		return false, nil
	}
	var done bool
	err := s.read("check record", func(st *jsonState) error {
		_, done = st.records[trackerID][day]
		return nil
	})
	return done, err
}

func (s *JSONStore) CompletionCount(trackerID string) (int, error) {
	var n int
	err := s.read("count records", func(st *jsonState) error {
		n = len(st.records[trackerID])
		return nil
	})
	return n, err
}

func (s *JSONStore) ListRecords() ([]models.Record, error) {
	var records []models.Record
	err := s.read("list records", func(st *jsonState) error {
		records = make([]models.Record, 0)
		for id, days := range st.records {
			for d := range days {
				records = append(records, models.Record{TrackerID: id, Day: d})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return records, nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
