package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/cli/backups"
	"github.com/julianstephens/trackly/internal/cli/board"
	"github.com/julianstephens/trackly/internal/cli/categories"
	"github.com/julianstephens/trackly/internal/cli/system"
	"github.com/julianstephens/trackly/internal/cli/trackers"
	"github.com/julianstephens/trackly/internal/config"
	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/errors"
	"github.com/julianstephens/trackly/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Store file path (.db for SQLite, .json for JSON) or PostgreSQL connection string. Credentials must NOT be embedded; use the OS keyring, TRACKLY_DB_CONNECTION or .pgpass." env:"TRACKLY_CONFIG"`
	Debug   bool   `help:"Log debug output to stderr and the log file."`

	Init     system.InitCmd    `cmd:"" help:"Initialize trackly storage."`
	Migrate  system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd     `cmd:"" help:"Launch the interactive board." default:"1"`
	Board    board.BoardCmd    `cmd:"" help:"Print the board for a day."`
	Mark     board.MarkCmd     `cmd:"" help:"Toggle a tracker's completion for a day."`
	Stats    board.StatsCmd    `cmd:"" help:"Show totals and completion counts."`
	DebugCmd system.DebugCmd   `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`

	Category struct {
		Add    categories.CategoryAddCmd    `cmd:"" help:"Add a category."`
		List   categories.CategoryListCmd   `cmd:"" help:"List categories."`
		Rename categories.CategoryRenameCmd `cmd:"" help:"Rename a category."`
		Delete categories.CategoryDeleteCmd `cmd:"" help:"Delete a category with its trackers and records."`
	} `cmd:"" help:"Manage categories."`
	Tracker struct {
		Add    trackers.TrackerAddCmd    `cmd:"" help:"Add a tracker."`
		Edit   trackers.TrackerEditCmd   `cmd:"" help:"Edit a tracker."`
		Delete trackers.TrackerDeleteCmd `cmd:"" help:"Delete a tracker and its records."`
		List   trackers.TrackerListCmd   `cmd:"" help:"List trackers by category."`
	} `cmd:"" help:"Manage trackers."`

	Export system.ExportCmd `cmd:"" help:"Export everything as AppState JSON."`
	Import system.ImportCmd `cmd:"" help:"Merge an AppState JSON document into the store."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite backups."`
	Conf struct {
		SetConnection   system.SetConnectionCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		ClearConnection system.ClearConnectionCmd `cmd:"" help:"Remove the stored connection string."`
		Show            system.ShowConnectionCmd  `cmd:"" help:"Show which store is in use."`
	} `cmd:"" name:"config" help:"Manage the store connection."`
}

// selfLoading commands open or repair the store themselves.
var selfLoading = []string{
	"init",
	"doctor",
	"backup restore",
	"config",
	"debug paths",
}

func needsLoad(command string) bool {
	for _, prefix := range selfLoading {
		if command == prefix || strings.HasPrefix(command, prefix+" ") {
			return false
		}
	}
	return true
}

func main() {
	config.LoadDotEnv(config.DefaultConfigDir())

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit and event tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	target, err := config.Resolve(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || config.DebugFromEnv(),
		ConfigDir: target.ConfigDir(),
		Quiet:     ctx.Command() == "tui",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Resolved store", "backend", target.Backend, "source", target.Source)

	appCtx := cli.NewContext(config.Open(target), target)

	if needsLoad(ctx.Command()) {
		if err := appCtx.Store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("Failed to close store", "error", closeErr)
	}
	errors.Fatal(err)
}
