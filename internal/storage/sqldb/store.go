// Package sqldb implements storage.Provider on top of database/sql. The
// SQLite and Postgres backends embed Store and only supply connection
// management.
package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
)

// Store holds the shared query layer. Every mutation runs in its own
// transaction and publishes its changes after commit.
type Store struct {
	storage.Hub

	db      *sql.DB
	dialect Dialect
	// writes are serialized so read-then-write checks inside a transaction
	// see a stable view on SQLite.
	writeMu sync.Mutex
	now     func() time.Time
}

// Attach binds the store to an open database.
func (s *Store) Attach(db *sql.DB, dialect Dialect) {
	s.db = db
	s.dialect = dialect
	if s.now == nil {
		s.now = time.Now
	}
}

// GetDB returns the underlying database connection, or nil before the
// store has been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) withTx(op string, fn func(tx *sql.Tx) ([]storage.Change, error)) error {
	if s.db == nil {
		return storage.NotLoaded(op)
	}

	s.writeMu.Lock()
	changes, err := func() ([]storage.Change, error) {
		tx, err := s.db.Begin()
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		changes, err := fn(tx)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return changes, nil
	}()
	s.writeMu.Unlock()

	if err != nil {
		return storage.Failure(op, err)
	}
	s.Publish(changes...)
	return nil
}

func (s *Store) read(op string) (*sql.DB, error) {
	if s.db == nil {
		return nil, storage.NotLoaded(op)
	}
	return s.db, nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return t.UTC(), nil
}

// Preferences

const (
	prefLastCategoryID = constants.PrefLastCategoryID
	prefLocale         = constants.PrefLocale
)

func (s *Store) loadPreferences(db queryer) (models.Preferences, error) {
	prefs := models.DefaultPreferences()
	rows, err := db.Query("SELECT key, value FROM preferences")
	if err != nil {
		return prefs, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return prefs, err
		}
		switch key {
		case prefLastCategoryID:
			prefs.LastCategoryID = value
		case prefLocale:
			if value != "" {
				prefs.Locale = value
			}
		}
	}
	return prefs, rows.Err()
}

func (s *Store) GetPreferences() (models.Preferences, error) {
	db, err := s.read("get preferences")
	if err != nil {
		return models.Preferences{}, err
	}
	prefs, err := s.loadPreferences(db)
	if err != nil {
		return models.Preferences{}, storage.Failure("get preferences", err)
	}
	return prefs, nil
}

func (s *Store) SavePreferences(prefs models.Preferences) error {
	if prefs.Locale == "" {
		prefs.Locale = constants.DefaultLocale
	}
	return s.withTx("save preferences", func(tx *sql.Tx) ([]storage.Change, error) {
		current, err := s.loadPreferences(tx)
		if err != nil {
			return nil, err
		}
		if current == prefs {
			return nil, nil
		}

		upsert := s.q(`
			INSERT INTO preferences (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`)
		if _, err := tx.Exec(upsert, prefLastCategoryID, prefs.LastCategoryID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(upsert, prefLocale, prefs.Locale); err != nil {
			return nil, err
		}
		return []storage.Change{{Entity: storage.EntityPreferences, Op: storage.OpUpdate}}, nil
	})
}

func (s *Store) locale(db queryer) string {
	prefs, err := s.loadPreferences(db)
	if err != nil {
		return constants.DefaultLocale
	}
	return prefs.LocaleOrDefault()
}

// Categories

func scanCategory(row interface{ Scan(...any) error }) (models.Category, error) {
	var c models.Category
	var createdAt string
	if err := row.Scan(&c.ID, &c.Title, &createdAt); err != nil {
		return c, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return c, err
	}
	c.CreatedAt = t
	return c, nil
}

func (s *Store) categoryByTitle(db queryer, title string) (models.Category, bool, error) {
	c, err := scanCategory(db.QueryRow(s.q("SELECT id, title, created_at FROM categories WHERE title = ?"), title))
	if errors.Is(err, sql.ErrNoRows) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	return c, true, nil
}

func (s *Store) categoryByID(db queryer, id string) (models.Category, bool, error) {
	c, err := scanCategory(db.QueryRow(s.q("SELECT id, title, created_at FROM categories WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	return c, true, nil
}

func (s *Store) CreateCategory(title string) (models.Category, error) {
	title, ok := storage.NormalizeTitle(title, constants.MaxTitleLength)
	if !ok {
		return models.Category{}, nil
	}

	var created models.Category
	err := s.withTx("create category", func(tx *sql.Tx) ([]storage.Change, error) {
		c := models.Category{ID: uuid.New().String(), Title: title, CreatedAt: s.timestamp()}
		res, err := tx.Exec(
			s.q("INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?) ON CONFLICT (title) DO NOTHING"),
			c.ID, c.Title, formatTime(c.CreatedAt),
		)
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n == 0 {
			existing, _, err := s.categoryByTitle(tx, title)
			created = existing
			return nil, err
		}
		created = c
		return []storage.Change{{Entity: storage.EntityCategory, Op: storage.OpCreate, ID: c.ID}}, nil
	})
	if err != nil {
		return models.Category{}, err
	}
	return created, nil
}

func (s *Store) ImportCategory(c models.Category) error {
	title, ok := storage.NormalizeTitle(c.Title, constants.MaxTitleLength)
	if !ok || c.ID == "" {
		return nil
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Second)

	return s.withTx("import category", func(tx *sql.Tx) ([]storage.Change, error) {
		res, err := tx.Exec(
			s.q("INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING"),
			c.ID, title, formatTime(c.CreatedAt),
		)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return nil, err
		}
		return []storage.Change{{Entity: storage.EntityCategory, Op: storage.OpCreate, ID: c.ID}}, nil
	})
}

func (s *Store) GetCategory(id string) (models.Category, error) {
	db, err := s.read("get category")
	if err != nil {
		return models.Category{}, err
	}
	c, ok, err := s.categoryByID(db, id)
	if err != nil {
		return models.Category{}, storage.Failure("get category", err)
	}
	if !ok {
		return models.Category{}, storage.NotFound("category", id)
	}
	return c, nil
}

func (s *Store) GetCategoryByTitle(title string) (models.Category, error) {
	db, err := s.read("get category")
	if err != nil {
		return models.Category{}, err
	}
	c, ok, err := s.categoryByTitle(db, title)
	if err != nil {
		return models.Category{}, storage.Failure("get category", err)
	}
	if !ok {
		return models.Category{}, storage.NotFound("category", title)
	}
	return c, nil
}

func (s *Store) ListCategories() ([]models.Category, error) {
	db, err := s.read("list categories")
	if err != nil {
		return nil, err
	}
	categories, err := s.listCategories(db)
	if err != nil {
		return nil, storage.Failure("list categories", err)
	}
	storage.SortCategories(categories, s.locale(db))
	return categories, nil
}

func (s *Store) listCategories(db queryer) ([]models.Category, error) {
	rows, err := db.Query("SELECT id, title, created_at FROM categories")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) RenameCategory(id, title string) error {
	return s.withTx("rename category", func(tx *sql.Tx) ([]storage.Change, error) {
		c, ok, err := s.categoryByID(tx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, storage.NotFound("category", id)
		}

		title, valid := storage.NormalizeTitle(title, constants.MaxTitleLength)
		if !valid || title == c.Title {
			return nil, nil
		}
		if _, taken, err := s.categoryByTitle(tx, title); err != nil || taken {
			return nil, err
		}

		if _, err := tx.Exec(s.q("UPDATE categories SET title = ? WHERE id = ?"), title, id); err != nil {
			return nil, err
		}
		return []storage.Change{{Entity: storage.EntityCategory, Op: storage.OpUpdate, ID: id}}, nil
	})
}

func (s *Store) DeleteCategory(id string) error {
	return s.withTx("delete category", func(tx *sql.Tx) ([]storage.Change, error) {
		if _, ok, err := s.categoryByID(tx, id); err != nil {
			return nil, err
		} else if !ok {
			return nil, storage.NotFound("category", id)
		}

		rows, err := tx.Query(s.q("SELECT id FROM trackers WHERE category_id = ? ORDER BY id"), id)
		if err != nil {
			return nil, err
		}
		var changes []storage.Change
		for rows.Next() {
			var tid string
			if err := rows.Scan(&tid); err != nil {
				rows.Close()
				return nil, err
			}
			changes = append(changes, storage.Change{Entity: storage.EntityTracker, Op: storage.OpDelete, ID: tid})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		// Cascade explicitly so the result does not depend on the
		// connection's foreign key settings.
		if _, err := tx.Exec(s.q("DELETE FROM records WHERE tracker_id IN (SELECT id FROM trackers WHERE category_id = ?)"), id); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(s.q("DELETE FROM trackers WHERE category_id = ?"), id); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(s.q("DELETE FROM categories WHERE id = ?"), id); err != nil {
			return nil, err
		}
		return append(changes, storage.Change{Entity: storage.EntityCategory, Op: storage.OpDelete, ID: id}), nil
	})
}

// Trackers

func scanTracker(row interface{ Scan(...any) error }) (models.Tracker, error) {
	var t models.Tracker
	var schedule sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.ColorHex, &t.Emoji, &schedule, &t.CategoryID); err != nil {
		return t, err
	}
	if schedule.Valid {
		days, err := models.DecodeSchedule(schedule.String)
		if err != nil {
			return t, fmt.Errorf("tracker %s: %w", t.ID, err)
		}
		t.Schedule = days
	}
	return t, nil
}

func encodeSchedule(days models.Schedule) sql.NullString {
	if days.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: days.Encode(), Valid: true}
}

const trackerColumns = "id, name, color_hex, emoji, schedule, category_id"

func (s *Store) UpsertTracker(tracker models.Tracker, categoryTitle string) (models.Tracker, error) {
	title, ok := storage.NormalizeTitle(categoryTitle, constants.MaxTitleLength)
	if !ok || tracker.Name == "" || tracker.ID == "" {
		return models.Tracker{}, nil
	}
	tracker.Schedule = models.NewSchedule(tracker.Schedule...)

	err := s.withTx("upsert tracker", func(tx *sql.Tx) ([]storage.Change, error) {
		var changes []storage.Change

		cat, found, err := s.categoryByTitle(tx, title)
		if err != nil {
			return nil, err
		}
		if !found {
			cat = models.Category{ID: uuid.New().String(), Title: title, CreatedAt: s.timestamp()}
			if _, err := tx.Exec(
				s.q("INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?)"),
				cat.ID, cat.Title, formatTime(cat.CreatedAt),
			); err != nil {
				return nil, err
			}
			changes = append(changes, storage.Change{Entity: storage.EntityCategory, Op: storage.OpCreate, ID: cat.ID})
		}
		tracker.CategoryID = cat.ID

		var exists int
		if err := tx.QueryRow(s.q("SELECT COUNT(*) FROM trackers WHERE id = ?"), tracker.ID).Scan(&exists); err != nil {
			return nil, err
		}

		if _, err := tx.Exec(s.q(`
			INSERT INTO trackers (`+trackerColumns+`) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				color_hex = excluded.color_hex,
				emoji = excluded.emoji,
				schedule = excluded.schedule,
				category_id = excluded.category_id
		`), tracker.ID, tracker.Name, tracker.ColorHex, tracker.Emoji, encodeSchedule(tracker.Schedule), tracker.CategoryID); err != nil {
			return nil, err
		}

		op := storage.OpCreate
		if exists > 0 {
			op = storage.OpUpdate
		}
		return append(changes, storage.Change{Entity: storage.EntityTracker, Op: op, ID: tracker.ID}), nil
	})
	if err != nil {
		return models.Tracker{}, err
	}
	return tracker, nil
}

func (s *Store) GetTracker(id string) (models.Tracker, error) {
	db, err := s.read("get tracker")
	if err != nil {
		return models.Tracker{}, err
	}
	t, err := scanTracker(db.QueryRow(s.q("SELECT "+trackerColumns+" FROM trackers WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tracker{}, storage.NotFound("tracker", id)
	}
	if err != nil {
		return models.Tracker{}, storage.Failure("get tracker", err)
	}
	return t, nil
}

func (s *Store) DeleteTracker(id string) error {
	return s.withTx("delete tracker", func(tx *sql.Tx) ([]storage.Change, error) {
		if _, err := tx.Exec(s.q("DELETE FROM records WHERE tracker_id = ?"), id); err != nil {
			return nil, err
		}
		res, err := tx.Exec(s.q("DELETE FROM trackers WHERE id = ?"), id)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return nil, err
		}
		return []storage.Change{{Entity: storage.EntityTracker, Op: storage.OpDelete, ID: id}}, nil
	})
}

func (s *Store) ListTrackers() ([]models.Tracker, error) {
	db, err := s.read("list trackers")
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT " + trackerColumns + " FROM trackers")
	if err != nil {
		return nil, storage.Failure("list trackers", err)
	}
	defer rows.Close()

	trackers := make([]models.Tracker, 0)
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, storage.Failure("list trackers", err)
		}
		trackers = append(trackers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Failure("list trackers", err)
	}

	categories, err := s.listCategories(db)
	if err != nil {
		return nil, storage.Failure("list trackers", err)
	}
	titles := make(map[string]string, len(categories))
	for _, c := range categories {
		titles[c.ID] = c.Title
	}
	storage.SortTrackers(trackers, titles, s.locale(db))
	return trackers, nil
}

// Records

func (s *Store) AddRecord(trackerID string, day models.Day) error {
	if !day.Valid() {
		return nil
	}
	return s.withTx("add record", func(tx *sql.Tx) ([]storage.Change, error) {
		var exists int
		if err := tx.QueryRow(s.q("SELECT COUNT(*) FROM trackers WHERE id = ?"), trackerID).Scan(&exists); err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, nil
		}

		res, err := tx.Exec(
			s.q("INSERT INTO records (tracker_id, day) VALUES (?, ?) ON CONFLICT DO NOTHING"),
			trackerID, day.String(),
		)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return nil, err
		}
		return []storage.Change{{Entity: storage.EntityRecord, Op: storage.OpCreate, ID: trackerID, Day: day}}, nil
	})
}

func (s *Store) RemoveRecord(trackerID string, day models.Day) error {
	if !day.Valid() {
		return nil
	}
	return s.withTx("remove record", func(tx *sql.Tx) ([]storage.Change, error) {
		res, err := tx.Exec(s.q("DELETE FROM records WHERE tracker_id = ? AND day = ?"), trackerID, day.String())
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return nil, err
		}
		return []storage.Change{{Entity: storage.EntityRecord, Op: storage.OpDelete, ID: trackerID, Day: day}}, nil
	})
}

func (s *Store) IsComplete(trackerID string, day models.Day) (bool, error) {
	if !day.Valid() {
		return false, nil
	}
	db, err := s.read("check record")
	if err != nil {
		return false, err
	}
	var n int
	if err := db.QueryRow(s.q("SELECT COUNT(*) FROM records WHERE tracker_id = ? AND day = ?"), trackerID, day.String()).Scan(&n); err != nil {
		return false, storage.Failure("check record", err)
	}
	return n > 0, nil
}

func (s *Store) CompletionCount(trackerID string) (int, error) {
	db, err := s.read("count records")
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRow(s.q("SELECT COUNT(*) FROM records WHERE tracker_id = ?"), trackerID).Scan(&n); err != nil {
		return 0, storage.Failure("count records", err)
	}
	return n, nil
}

func (s *Store) ListRecords() ([]models.Record, error) {
	db, err := s.read("list records")
	if err != nil {
		return nil, err
	}
	rows, err := db.Query("SELECT tracker_id, day FROM records")
	if err != nil {
		return nil, storage.Failure("list records", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var r models.Record
		var day string
		if err := rows.Scan(&r.TrackerID, &day); err != nil {
			return nil, storage.Failure("list records", err)
		}
		r.Day = models.Day(strings.TrimSpace(day))
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Failure("list records", err)
	}
	// server collation may not match byte order
	storage.SortRecords(records)
	return records, nil
}
