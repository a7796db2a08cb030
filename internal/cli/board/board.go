package board

import (
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/tracking"
)

type BoardCmd struct {
	Date   string `short:"d" help:"Day to show (YYYY-MM-DD, today, yesterday)."`
	Search string `short:"s" help:"Only show trackers whose name contains this text."`
	Filter string `short:"f" help:"One of all, today, completed, incomplete." default:"all"`
}

func (c *BoardCmd) Run(ctx *cli.Context) error {
	day, err := cli.ResolveDay(c.Date, ctx.Service.Today())
	if err != nil {
		return err
	}
	filter, err := models.ParseFilter(c.Filter)
	if err != nil {
		return err
	}

	b, err := ctx.Service.Board(tracking.Query{Date: day, Search: c.Search, Filter: filter})
	if err != nil {
		return err
	}
	Render(ctx.Out, b, ctx.Service.Today())
	return nil
}

// Render prints a board as plain text.
func Render(w io.Writer, b tracking.Board, today models.Day) {
	header := fmt.Sprintf("%s, %s", b.Day.Time(time.UTC).Weekday(), b.Day)
	if b.Day == today {
		header += " (today)"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w)

	switch b.Empty {
	case tracking.EmptyNothingDue:
		fmt.Fprintln(w, "Nothing is scheduled for this day.")
		return
	case tracking.EmptyNoResults:
		fmt.Fprintln(w, "No trackers match the current search or filter.")
		return
	}

	for i, sec := range b.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, sec.Category.Title)
		for _, item := range sec.Items {
			mark := "[ ]"
			if item.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(w, "  %s %s  (%d)\n", mark, cli.FormatTracker(item.Tracker, false), item.CompletionCount)
		}
	}
}

// MarkCmd toggles a tracker's completion for one day.
type MarkCmd struct {
	Tracker string `arg:"" help:"Tracker ID or name."`
	Date    string `short:"d" help:"Day to toggle (YYYY-MM-DD, today, yesterday)."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	day, err := cli.ResolveDay(c.Date, ctx.Service.Today())
	if err != nil {
		return err
	}
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	tracker, err := ctx.Service.FindTracker(c.Tracker)
	if err != nil {
		return err
	}

	outcome, err := ctx.Service.Toggle(tracker.ID, day)
	if err != nil {
		return err
	}
	name := cli.FormatTracker(tracker, false)
	switch outcome {
	case tracking.Completed:
		ctx.Printf("✓ %s completed on %s\n", name, day)
	case tracking.Uncompleted:
		ctx.Printf("○ %s no longer completed on %s\n", name, day)
	default:
		ctx.Printf("%s is in the future, nothing changed\n", day)
	}
	return nil
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	st, err := ctx.Service.Stats()
	if err != nil {
		return err
	}

	ctx.Printf("Categories:       %d\n", st.Categories)
	ctx.Printf("Trackers:         %d\n", st.Trackers)
	ctx.Printf("Completions:      %d\n", st.TotalCompleted)
	if len(st.PerTracker) == 0 {
		return nil
	}
	ctx.Println()
	for _, ts := range st.PerTracker {
		ctx.Printf("  %5d  %s\n", ts.Count, cli.FormatTracker(ts.Tracker, false))
	}
	return nil
}
