package storage

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/julianstephens/trackly/internal/models"
)

// Collator compares display strings the way users expect for their locale:
// case-insensitive, with digit runs compared numerically. A Collator is
// not safe for concurrent use.
type Collator struct {
	c *collate.Collator
}

func NewCollator(locale string) *Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Collator{c: collate.New(tag, collate.IgnoreCase, collate.Numeric)}
}

func (c *Collator) Compare(a, b string) int {
	return c.c.CompareString(a, b)
}

// SortCategories orders categories by title.
func SortCategories(categories []models.Category, locale string) {
	col := NewCollator(locale)
	sort.SliceStable(categories, func(i, j int) bool {
		if cmp := col.Compare(categories[i].Title, categories[j].Title); cmp != 0 {
			return cmp < 0
		}
		return categories[i].ID < categories[j].ID
	})
}

// SortTrackers orders trackers by the title of their category, then by name.
// titles maps category IDs to titles. Titles that collate equal, such as
// "work" and "Work", are split by category ID so each category stays
// contiguous.
func SortTrackers(trackers []models.Tracker, titles map[string]string, locale string) {
	col := NewCollator(locale)
	sort.SliceStable(trackers, func(i, j int) bool {
		a, b := trackers[i], trackers[j]
		if cmp := col.Compare(titles[a.CategoryID], titles[b.CategoryID]); cmp != 0 {
			return cmp < 0
		}
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		if cmp := col.Compare(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
}

// NormalizeTitle trims a category title and reports whether it is usable.
func NormalizeTitle(title string, maxLen int) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > maxLen {
		return "", false
	}
	return title, true
}

// SortRecords orders records by tracker ID, then by day.
func SortRecords(records []models.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].TrackerID != records[j].TrackerID {
			return records[i].TrackerID < records[j].TrackerID
		}
		return records[i].Day.Before(records[j].Day)
	})
}
