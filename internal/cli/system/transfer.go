package system

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/trackly/internal/appstate"
	"github.com/julianstephens/trackly/internal/cli"
)

// ExportCmd writes the whole store as an AppState JSON document.
type ExportCmd struct {
	Out string `short:"o" help:"File to write; stdout when omitted." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	state, err := appstate.Snapshot(ctx.Store)
	if err != nil {
		return err
	}

	if c.Out == "" {
		return appstate.Encode(ctx.Out, state)
	}

	if err := os.MkdirAll(filepath.Dir(c.Out), 0700); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.OpenFile(c.Out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := appstate.Encode(f, state); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	ctx.Printf("✓ Exported %d categories, %d trackers and %d records to %s\n",
		len(state.Categories), len(state.Trackers), len(state.Records), c.Out)
	return nil
}

// ImportCmd merges an AppState JSON document into the store. Categories
// are matched by title; trackers and records are added or updated.
type ImportCmd struct {
	File string `arg:"" help:"AppState JSON file to import ('-' for stdin)."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	var r io.Reader
	if c.File == "-" {
		r = ctx.In
	} else {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	state, err := appstate.Decode(r)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	ctx.PerformAutomaticBackup()

	sum, err := appstate.Restore(ctx.Store, state)
	if err != nil {
		return fmt.Errorf("import failed after %d categories, %d trackers and %d records: %w",
			sum.Categories, sum.Trackers, sum.Records, err)
	}
	ctx.Printf("✓ Imported %d categories, %d trackers and %d records\n", sum.Categories, sum.Trackers, sum.Records)
	return nil
}
