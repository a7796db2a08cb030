package system

import (
	"fmt"

	"github.com/julianstephens/trackly/internal/cli"
)

// migrator is implemented by the SQL backends.
type migrator interface {
	Migrate() (int, error)
	PendingMigrations() (int, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		ctx.Println("JSON stores have no schema to migrate.")
		return nil
	}

	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	pending, err := m.PendingMigrations()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if pending == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
		return nil
	}

	// snapshot before changing the schema
	ctx.PerformAutomaticBackup()

	count, err := m.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	ctx.Printf("Successfully applied %d migration(s).\n", count)
	return nil
}
