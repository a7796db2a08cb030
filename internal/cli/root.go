package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/trackly/internal/backup"
	"github.com/julianstephens/trackly/internal/config"
	"github.com/julianstephens/trackly/internal/lock"
	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/tracking"
)

type Context struct {
	Store   storage.Provider
	Service *tracking.Service
	Target  config.Target

	Out io.Writer
	In  io.Reader

	lock *lock.Lock
}

// NewContext wires a service over store. Output goes to stdout and
// confirmations are read from stdin.
func NewContext(store storage.Provider, target config.Target) *Context {
	return &Context{
		Store:   store,
		Service: tracking.NewService(store, nil),
		Target:  target,
		Out:     os.Stdout,
		In:      os.Stdin,
	}
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	response, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Lock makes this process the single writer of the store until Unlock.
func (c *Context) Lock() error {
	if c.lock != nil {
		return nil
	}
	l, err := lock.Acquire(c.Target.ConfigDir())
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return fmt.Errorf("%w; close the other trackly session and try again", err)
		}
		return err
	}
	c.lock = l
	return nil
}

func (c *Context) Unlock() {
	if err := c.lock.Release(); err != nil {
		logger.Warn("Failed to release lock", "error", err)
	}
	c.lock = nil
}

// Close releases the lock and the store.
func (c *Context) Close() error {
	c.Unlock()
	return c.Store.Close()
}

// IsSQLite reports whether backups can be taken of the store.
func (c *Context) IsSQLite() bool {
	return c.Target.Backend == config.BackendSQLite
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if !c.IsSQLite() {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveDay parses a day argument. Empty means today; "yesterday" and
// "tomorrow" are relative to today.
func ResolveDay(s string, today models.Day) (models.Day, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	return models.ParseDay(strings.TrimSpace(s))
}

// ResolveCategory finds a category by ID or exact title.
func ResolveCategory(store storage.Provider, ref string) (models.Category, error) {
	if c, err := store.GetCategory(ref); err == nil {
		return c, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Category{}, err
	}
	return store.GetCategoryByTitle(strings.TrimSpace(ref))
}

// CategoryTitles maps category IDs to titles.
func CategoryTitles(store storage.Provider) (map[string]string, error) {
	categories, err := store.ListCategories()
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(categories))
	for _, c := range categories {
		titles[c.ID] = c.Title
	}
	return titles, nil
}

// FormatTracker renders "🏃 Run" with the schedule appended when verbose.
func FormatTracker(t models.Tracker, verbose bool) string {
	s := t.Name
	if t.Emoji != "" {
		s = t.Emoji + " " + s
	}
	if verbose {
		s += fmt.Sprintf("  [%s]  %s", t.Schedule, t.ColorHex)
	}
	return s
}
