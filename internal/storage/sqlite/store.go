package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/migration"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/storage/sqldb"
	"github.com/julianstephens/trackly/migrations"
)

// Store is the default backend: a single SQLite file.
type Store struct {
	sqldb.Store

	path string
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// dsn enables foreign keys and waits on a locked database instead of
// failing immediately.
func (s *Store) dsn() string {
	return "file:" + s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return storage.Failure("open", fmt.Errorf("failed to open database: %w", err))
	}
	s.Attach(db, sqldb.SQLite)
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return storage.Failure("init", fmt.Errorf("failed to create config directory: %w", err))
	}

	if s.GetDB() == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if _, err := s.Migrate(); err != nil {
		return storage.Failure("init", fmt.Errorf("failed to run migrations: %w", err))
	}
	return nil
}

func (s *Store) Load() error {
	if s.GetDB() != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'trackly init' first")
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runner().ValidateVersion(); err != nil {
		s.Close()
		return storage.Failure("load", err)
	}
	return nil
}

func (s *Store) runner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// the embed pattern guarantees the directory exists
		panic(err)
	}
	return migration.NewRunner(s.GetDB(), subFS)
}

// Migrate applies pending schema migrations and returns how many ran.
func (s *Store) Migrate() (int, error) {
	if s.GetDB() == nil {
		return 0, storage.NotLoaded("migrate")
	}
	return s.runner().ApplyMigrations(func(msg string) {
		logger.Debug(msg)
	})
}

// PendingMigrations reports how many migrations have not been applied.
func (s *Store) PendingMigrations() (int, error) {
	if s.GetDB() == nil {
		return 0, storage.NotLoaded("migrate")
	}
	return s.runner().Pending()
}

func (s *Store) GetConfigPath() string {
	return s.path
}
