package trackers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/validation"
)

const (
	defaultEmoji = "✅"
	defaultColor = "#4CAF50"
)

type TrackerAddCmd struct {
	Name     string `arg:"" help:"Tracker name (1-38 characters)."`
	Emoji    string `help:"Emoji shown next to the name." default:"✅"`
	Color    string `help:"Color as #RRGGBB." default:"#4CAF50"`
	Days     string `help:"Scheduled weekdays: a list like mon,wed,fri or daily, weekdays, weekends." default:"daily"`
	Category string `short:"c" help:"Category title. Defaults to the category used last."`
}

func (c *TrackerAddCmd) Run(ctx *cli.Context) error {
	schedule, err := models.ParseSchedule(c.Days)
	if err != nil {
		return err
	}

	category := strings.TrimSpace(c.Category)
	if category == "" {
		last, ok, err := ctx.Service.LastCategory()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no category given and none used before, pass --category")
		}
		category = last.Title
	}

	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	tracker, err := ctx.Service.CreateTracker(validation.TrackerInput{
		Name:     c.Name,
		ColorHex: orDefault(c.Color, defaultColor),
		Emoji:    orDefault(c.Emoji, defaultEmoji),
		Schedule: schedule,
		Category: category,
	})
	if err != nil {
		return err
	}

	ctx.Printf("✓ Added %s to %q (%s)\n", cli.FormatTracker(tracker, false), category, tracker.Schedule)
	ctx.Printf("  ID: %s\n", tracker.ID)
	return nil
}

// TrackerEditCmd replaces the fields that were given and keeps the rest.
type TrackerEditCmd struct {
	Tracker  string `arg:"" help:"Tracker ID or name."`
	Name     string `help:"New name."`
	Emoji    string `help:"New emoji."`
	Color    string `help:"New color as #RRGGBB."`
	Days     string `help:"New schedule; 'none' leaves the tracker unscheduled."`
	Category string `short:"c" help:"Move to the category with this title."`
}

func (c *TrackerEditCmd) Run(ctx *cli.Context) error {
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	tracker, err := ctx.Service.FindTracker(c.Tracker)
	if err != nil {
		return err
	}
	current, err := ctx.Store.GetCategory(tracker.CategoryID)
	if err != nil {
		return err
	}

	in := validation.TrackerInput{
		Name:     orDefault(c.Name, tracker.Name),
		ColorHex: orDefault(c.Color, tracker.ColorHex),
		Emoji:    orDefault(c.Emoji, tracker.Emoji),
		Schedule: tracker.Schedule,
		Category: orDefault(c.Category, current.Title),
	}
	switch strings.ToLower(strings.TrimSpace(c.Days)) {
	case "":
	case "none":
		in.Schedule = nil
	default:
		if in.Schedule, err = models.ParseSchedule(c.Days); err != nil {
			return err
		}
	}

	updated, err := ctx.Service.EditTracker(tracker.ID, in)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated %s\n", cli.FormatTracker(updated, true))
	return nil
}

type TrackerDeleteCmd struct {
	Tracker string `arg:"" help:"Tracker ID or name."`
	Yes     bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *TrackerDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	tracker, err := ctx.Service.FindTracker(c.Tracker)
	if err != nil {
		return err
	}

	if !c.Yes {
		count, err := ctx.Store.CompletionCount(tracker.ID)
		if err != nil {
			return err
		}
		ctx.Printf("Deleting %s also deletes its %d completion(s).\n", cli.FormatTracker(tracker, false), count)
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctx.Store.DeleteTracker(tracker.ID); err != nil {
		return fmt.Errorf("failed to delete tracker: %w", err)
	}
	ctx.Printf("✓ Deleted %s\n", cli.FormatTracker(tracker, false))
	return nil
}

type TrackerListCmd struct {
	Category string `short:"c" help:"Only list trackers of this category (ID or title)."`
	IDs      bool   `help:"Show tracker IDs."`
}

func (c *TrackerListCmd) Run(ctx *cli.Context) error {
	trackers, err := ctx.Store.ListTrackers()
	if err != nil {
		return err
	}
	titles, err := cli.CategoryTitles(ctx.Store)
	if err != nil {
		return err
	}

	if c.Category != "" {
		category, err := cli.ResolveCategory(ctx.Store, c.Category)
		if err != nil {
			return err
		}
		filtered := trackers[:0]
		for _, t := range trackers {
			if t.CategoryID == category.ID {
				filtered = append(filtered, t)
			}
		}
		trackers = filtered
	}

	if len(trackers) == 0 {
		ctx.Println("No trackers found.")
		return nil
	}

	// trackers arrive grouped by category title
	current := ""
	for i, t := range trackers {
		if i == 0 || t.CategoryID != current {
			if i > 0 {
				ctx.Println()
			}
			ctx.Println(titles[t.CategoryID])
			current = t.CategoryID
		}
		line := "  " + cli.FormatTracker(t, true)
		if c.IDs {
			line += "  " + t.ID
		}
		ctx.Println(line)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
