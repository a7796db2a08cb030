package categories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/storage"
	"github.com/julianstephens/trackly/internal/validation"
)

type CategoryAddCmd struct {
	Title string `arg:"" help:"Category title (1-38 characters)."`
}

func (c *CategoryAddCmd) Run(ctx *cli.Context) error {
	if err := validation.ValidateCategory(c.Title); err != nil {
		return err
	}
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	title := strings.TrimSpace(c.Title)
	if existing, err := ctx.Store.GetCategoryByTitle(title); err == nil {
		ctx.Printf("Category %q already exists (%s)\n", existing.Title, existing.ID)
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	category, err := ctx.Store.CreateCategory(title)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	ctx.Printf("✓ Added category %q (%s)\n", category.Title, category.ID)
	return nil
}

type CategoryListCmd struct{}

func (c *CategoryListCmd) Run(ctx *cli.Context) error {
	categories, err := ctx.Store.ListCategories()
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		ctx.Println("No categories yet. Add one with 'trackly category add TITLE'.")
		return nil
	}

	trackers, err := ctx.Store.ListTrackers()
	if err != nil {
		return err
	}
	counts := make(map[string]int, len(categories))
	for _, t := range trackers {
		counts[t.CategoryID]++
	}

	for _, category := range categories {
		noun := "trackers"
		if counts[category.ID] == 1 {
			noun = "tracker"
		}
		ctx.Printf("%s  %s  (%d %s)\n", category.ID, category.Title, counts[category.ID], noun)
	}
	return nil
}

type CategoryRenameCmd struct {
	Category string `arg:"" help:"Category ID or current title."`
	Title    string `arg:"" help:"New title."`
}

func (c *CategoryRenameCmd) Run(ctx *cli.Context) error {
	if err := validation.ValidateCategory(c.Title); err != nil {
		return err
	}
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	category, err := cli.ResolveCategory(ctx.Store, c.Category)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(c.Title)
	if title == category.Title {
		ctx.Println("Title unchanged.")
		return nil
	}
	if _, err := ctx.Store.GetCategoryByTitle(title); err == nil {
		return fmt.Errorf("a category titled %q already exists", title)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := ctx.Store.RenameCategory(category.ID, title); err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}
	ctx.Printf("✓ Renamed %q to %q\n", category.Title, title)
	return nil
}

type CategoryDeleteCmd struct {
	Category string `arg:"" help:"Category ID or title."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CategoryDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Lock(); err != nil {
		return err
	}
	defer ctx.Unlock()

	category, err := cli.ResolveCategory(ctx.Store, c.Category)
	if err != nil {
		return err
	}

	trackers, err := ctx.Store.ListTrackers()
	if err != nil {
		return err
	}
	var affected int
	for _, t := range trackers {
		if t.CategoryID == category.ID {
			affected++
		}
	}

	if !c.Yes {
		ctx.Printf("Deleting %q also deletes its %d tracker(s) and all of their history.\n", category.Title, affected)
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctx.Service.DeleteCategory(category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	ctx.Printf("✓ Deleted category %q and %d tracker(s)\n", category.Title, affected)
	return nil
}
