package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/trackly/internal/backup"
	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/config"
	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/keyring"
	"github.com/julianstephens/trackly/internal/validation"
)

// warning marks a check result that should not fail the run.
type warning struct {
	msg string
}

func (w warning) Error() string { return w.msg }

func warnf(format string, args ...interface{}) error {
	return warning{msg: fmt.Sprintf(format, args...)}
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	report := func(name string, err error) {
		var w warning
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", name)
		case errors.As(err, &w):
			ctx.Printf("⚠ %s: WARNING\n", name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}
	skip := func(name string) {
		ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", name)
	}

	reachable := checkReachable(ctx)
	report("Storage reachable", reachable)

	if reachable == nil {
		report("Schema version", checkSchema(ctx))
		report("Data integrity", checkIntegrity(ctx))
	} else {
		skip("Schema version")
		skip("Data integrity")
	}

	if ctx.IsSQLite() {
		report("Backups present", checkBackupsPresent(ctx))
	}
	if ctx.Target.Backend == config.BackendPostgres {
		report("OS keyring", checkKeyring(ctx))
	}
	report("Clock/timezone", checkClockTimezone(time.Now()))

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if _, err := ctx.Store.GetPreferences(); err != nil {
		return fmt.Errorf("failed to query storage: %w", err)
	}
	return nil
}

func checkSchema(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if pending > 0 {
		return fmt.Errorf("%d migration(s) pending, run 'trackly migrate'", pending)
	}
	return nil
}

func checkIntegrity(ctx *cli.Context) error {
	rep, err := validation.CheckIntegrity(ctx.Store)
	if err != nil {
		return err
	}
	if rep.HasErrors() {
		return errors.New(rep.FormatReport())
	}
	if len(rep.Issues) > 0 {
		return warning{msg: rep.FormatReport()}
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return warnf("failed to list backups: %v", err)
	}
	if len(backups) == 0 {
		return warnf("no backups found - consider creating one with 'trackly backup create'")
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		if ctx.Target.Source == config.SourceKeyring {
			return errors.New("OS keyring is not available")
		}
		return warnf("OS keyring is not available; use %s or .pgpass", constants.EnvDBConnection)
	}
	return nil
}

func checkClockTimezone(now time.Time) error {
	// after 2020 and before 2100
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
