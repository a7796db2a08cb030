package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/models"
)

type DebugCmd struct {
	Paths       DebugPathsCmd       `cmd:"" help:"Show storage, log and lock paths."`
	DumpTracker DebugDumpTrackerCmd `cmd:"" help:"Dump a tracker and its records as JSON."`
}

type DebugPathsCmd struct{}

func (cmd *DebugPathsCmd) Run(ctx *cli.Context) error {
	// machine-readable
	output := map[string]string{
		"backend": string(ctx.Target.Backend),
		"store":   ctx.Target.String(),
		"config":  ctx.Target.ConfigDir(),
		"log":     logger.LogFile(ctx.Target.ConfigDir()),
	}
	return printJSON(ctx, output)
}

type DebugDumpTrackerCmd struct {
	Tracker string `arg:"" help:"Tracker ID or name."`
}

type trackerDump struct {
	Tracker  models.Tracker  `json:"tracker"`
	Category models.Category `json:"category"`
	Records  []models.Day    `json:"records"`
}

func (cmd *DebugDumpTrackerCmd) Run(ctx *cli.Context) error {
	tracker, err := ctx.Service.FindTracker(cmd.Tracker)
	if err != nil {
		return err
	}
	category, err := ctx.Store.GetCategory(tracker.CategoryID)
	if err != nil {
		return err
	}
	records, err := ctx.Store.ListRecords()
	if err != nil {
		return err
	}

	dump := trackerDump{Tracker: tracker, Category: category, Records: []models.Day{}}
	for _, r := range records {
		if r.TrackerID == tracker.ID {
			dump.Records = append(dump.Records, r.Day)
		}
	}
	return printJSON(ctx, dump)
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}
