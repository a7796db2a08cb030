package storage

import "github.com/julianstephens/trackly/internal/models"

// Provider is the persistence contract shared by every backend.
//
// Operations addressed by an identifier that must exist (GetCategory,
// RenameCategory, DeleteCategory, GetTracker) fail with ErrNotFound.
// Invalid input on create and upsert paths is ignored without an error.
// Failures of the underlying storage are reported as ErrStorageFailure.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Preferences
	GetPreferences() (models.Preferences, error)
	SavePreferences(models.Preferences) error

	// Categories
	CreateCategory(title string) (models.Category, error)
	// ImportCategory inserts a category keeping its ID and creation time.
	// It is a no-op when the title or ID is already present.
	ImportCategory(models.Category) error
	GetCategory(id string) (models.Category, error)
	GetCategoryByTitle(title string) (models.Category, error)
	ListCategories() ([]models.Category, error)
	RenameCategory(id, title string) error
	// DeleteCategory removes the category, its trackers and their records
	// in one step.
	DeleteCategory(id string) error

	// Trackers
	// UpsertTracker stores the tracker under the category with the given
	// title, creating the category when needed, and returns what was stored.
	UpsertTracker(tracker models.Tracker, categoryTitle string) (models.Tracker, error)
	GetTracker(id string) (models.Tracker, error)
	DeleteTracker(id string) error
	ListTrackers() ([]models.Tracker, error)

	// Records
	AddRecord(trackerID string, day models.Day) error
	RemoveRecord(trackerID string, day models.Day) error
	IsComplete(trackerID string, day models.Day) (bool, error)
	CompletionCount(trackerID string) (int, error)
	ListRecords() ([]models.Record, error)

	// Subscribe registers fn for change notifications and returns a
	// function that detaches it.
	Subscribe(fn func(Change)) (unsubscribe func())

	// Utils
	GetConfigPath() string
}
