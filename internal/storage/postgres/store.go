package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/migration"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/storage/sqldb"
	"github.com/julianstephens/trackly/migrations"
)

// Store keeps trackers in a PostgreSQL schema named after the app.
type Store struct {
	sqldb.Store

	connStr string
}

var _ storage.Provider = (*Store)(nil)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// IsConnString reports whether target names a Postgres database rather
// than a file path.
func IsConnString(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// LooksLikeDSN reports whether target is a key=value connection string
// such as "host=localhost dbname=trackly".
func LooksLikeDSN(target string) bool {
	return hasParam(target, "host") || hasParam(target, "dbname")
}

func New(connStr string) *Store {
	s := &Store{
		connStr: connStr,
	}
	s.ensureSearchPath()
	return s
}

func (s *Store) ensureSearchPath() {
	if IsConnString(s.connStr) {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
	} else if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

// hasParam reports whether a DSN-style connection string has the given
// key (case-insensitive).
func hasParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// hasSSLMode checks for an sslmode parameter in URL or DSN form.
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasParam(connStr, "sslmode")
}

// ValidateConnString checks that connStr is a valid PostgreSQL connection
// string (URI or DSN) without an embedded password.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if IsConnString(connStr) {
		parsedURL, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := parsedURL.User.Password(); isSet {
			return false, ErrEmbeddedCredentials
		}
		if parsedURL.Host == "" && parsedURL.User == nil && (parsedURL.Path == "" || parsedURL.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
	} else if hasParam(connStr, "password") {
		return false, ErrEmbeddedCredentials
	}

	return true, nil
}

func (s *Store) open() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return storage.Failure("open", fmt.Errorf("failed to open database: %w", err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return storage.Failure("open", fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err))
		}
		return storage.Failure("open", fmt.Errorf("failed to connect to database: %w", err))
	}

	s.Attach(db, sqldb.Postgres)
	return nil
}

func (s *Store) Init() error {
	if s.GetDB() == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if _, err := s.GetDB().Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(constants.AppName)); err != nil {
		return storage.Failure("init", fmt.Errorf("failed to create schema: %w", err))
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
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		panic(err)
	}
	return migration.NewRunner(s.GetDB(), subFS, migration.WithRebind(sqldb.Postgres.Rebind))
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
	// non-sensitive identifier instead of the connection string
	return "postgresql"
}
