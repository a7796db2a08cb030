package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/trackly/internal/appstate"
	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/config"
	"github.com/julianstephens/trackly/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing storage before initialization."`
	Source string `help:"Source store (file path or connection string) to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized trackly storage at: %s\n", ctx.Target)

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		sum, err := c.copyFrom(ctx)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Printf("  Copied %d categories, %d trackers and %d records\n", sum.Categories, sum.Trackers, sum.Records)
	}
	return nil
}

// reset removes an existing file store so Init starts empty.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if ctx.Target.Backend == config.BackendPostgres {
		return errors.New("--force is only supported for file stores; drop the PostgreSQL schema instead")
	}

	dbPath := ctx.Target.Location
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		// close first so the file is not held open
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing storage: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing storage: %w", err)
		}
		ctx.Printf("Deleted existing storage at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing storage: %w", err)
	}
	return nil
}

func (c *InitCmd) copyFrom(ctx *cli.Context) (appstate.Summary, error) {
	source, err := config.OpenLocation(c.Source)
	if err != nil {
		return appstate.Summary{}, err
	}
	if err := source.Load(); err != nil {
		return appstate.Summary{}, fmt.Errorf("failed to load source store: %w", err)
	}
	defer source.Close()

	return copyStore(source, ctx.Store)
}

func copyStore(src, dst storage.Provider) (appstate.Summary, error) {
	state, err := appstate.Snapshot(src)
	if err != nil {
		return appstate.Summary{}, err
	}
	return appstate.Restore(dst, state)
}
