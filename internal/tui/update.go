package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/tracking"
	"github.com/julianstephens/trackly/internal/validation"
)

const (
	defaultEmoji = "✅"
	defaultColor = "#4CAF50"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardMsg:
		m.applyBoard(msg.board, msg.err)
		return m, waitForBoard(m.updates)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// header, chips, status and help
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil
	}

	switch m.state {
	case stateSearch:
		return m.updateSearch(msg)
	case stateTrackerForm, stateCategoryForm:
		return m.updateForm(msg)
	case stateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keys.Up):
		m.list.MoveUp()
	case key.Matches(keyMsg, m.keys.Down):
		m.list.MoveDown()
	case key.Matches(keyMsg, m.keys.PrevDay):
		m.shiftDay(-1)
	case key.Matches(keyMsg, m.keys.NextDay):
		m.shiftDay(1)
	case key.Matches(keyMsg, m.keys.Today):
		m.query.Date = m.svc.Today()
		m.status = ""
		m.refresh()
	case key.Matches(keyMsg, m.keys.Filter):
		m.query.Filter = m.query.Filter.Next()
		if m.query.Filter == models.FilterToday {
			m.query.Date = m.svc.Today()
		}
		m.refresh()
	case key.Matches(keyMsg, m.keys.Search):
		m.state = stateSearch
		m.search.SetValue(m.query.Search)
		return m, m.search.Focus()
	case key.Matches(keyMsg, m.keys.Toggle):
		m.toggleSelected()
	case key.Matches(keyMsg, m.keys.Add):
		return m, m.openTrackerForm(nil)
	case key.Matches(keyMsg, m.keys.Edit):
		if item, ok := m.list.Selected(); ok {
			return m, m.openTrackerForm(&item.Tracker)
		}
	case key.Matches(keyMsg, m.keys.AddCategory):
		m.categoryForm = &categoryFormModel{}
		m.form = newCategoryForm(m.categoryForm)
		m.state = stateCategoryForm
		return m, m.form.Init()
	case key.Matches(keyMsg, m.keys.Delete):
		if item, ok := m.list.Selected(); ok {
			m.pendingDelete = item.Tracker
			m.state = stateConfirmDelete
		}
	}
	return m, nil
}

// shiftDay moves the board by n days. A "today" filter pins the date, so
// navigating away switches it back to all.
func (m *Model) shiftDay(n int) {
	if m.query.Filter == models.FilterToday {
		m.query.Filter = models.FilterAll
	}
	day := m.list.Board().Day
	if day.IsZero() {
		day = m.svc.Today()
	}
	m.query.Date = day.AddDays(n)
	m.status = ""
	m.refresh()
}

func (m *Model) toggleSelected() {
	item, ok := m.list.Selected()
	if !ok {
		return
	}
	day := m.list.Board().Day

	outcome, err := m.svc.Toggle(item.Tracker.ID, day)
	if err != nil {
		logger.Error("Toggle failed", "tracker", item.Tracker.ID, "day", day, "error", err)
		m.err = err
		return
	}
	switch outcome {
	case tracking.Completed:
		m.status = fmt.Sprintf("✓ %s completed on %s", item.Tracker.Name, day)
	case tracking.Uncompleted:
		m.status = fmt.Sprintf("○ %s no longer completed on %s", item.Tracker.Name, day)
	default:
		m.status = fmt.Sprintf("%s is in the future, nothing changed", day)
	}
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.search.SetValue("")
			m.search.Blur()
			m.query.Search = ""
			m.state = stateBoard
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			m.search.Blur()
			m.state = stateBoard
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query.Search {
		m.query.Search = m.search.Value()
		m.refresh()
	}
	return m, cmd
}

// openTrackerForm starts the add form, or the edit form when t is set.
func (m *Model) openTrackerForm(t *models.Tracker) tea.Cmd {
	fm := &trackerFormModel{Emoji: defaultEmoji, Color: defaultColor, Days: append([]models.Weekday(nil), models.UIOrder...)}
	m.editingID = ""

	if t != nil {
		m.editingID = t.ID
		fm.Name = t.Name
		fm.Emoji = t.Emoji
		fm.Color = t.ColorHex
		fm.Days = append([]models.Weekday(nil), t.Schedule...)
		if c, err := m.svc.Store().GetCategory(t.CategoryID); err == nil {
			fm.Category = c.Title
		}
	} else if c, ok, err := m.svc.LastCategory(); err == nil && ok {
		fm.Category = c.Title
	}

	var titles []string
	if categories, err := m.svc.Store().ListCategories(); err == nil {
		for _, c := range categories {
			titles = append(titles, c.Title)
		}
	}

	m.trackerForm = fm
	m.form = newTrackerForm(fm, titles)
	m.state = stateTrackerForm
	m.err = nil
	return m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = stateBoard
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		var err error
		if m.state == stateTrackerForm {
			err = m.submitTracker()
		} else {
			err = m.submitCategory()
		}
		if err != nil {
			// stay in the form so the user can correct it
			m.err = err
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.err = nil
		m.state = stateBoard
	case huh.StateAborted:
		m.state = stateBoard
	}
	return m, cmd
}

func (m *Model) submitTracker() error {
	fm := m.trackerForm
	in := validation.TrackerInput{
		Name:     fm.Name,
		ColorHex: strings.TrimSpace(fm.Color),
		Emoji:    strings.TrimSpace(fm.Emoji),
		Schedule: fm.Days,
		Category: strings.TrimSpace(fm.Category),
	}

	if m.editingID == "" {
		t, err := m.svc.CreateTracker(in)
		if err != nil {
			return err
		}
		m.status = fmt.Sprintf("✓ Added %s", t.Name)
		return nil
	}

	t, err := m.svc.EditTracker(m.editingID, in)
	if err != nil {
		return err
	}
	m.status = fmt.Sprintf("✓ Updated %s", t.Name)
	return nil
}

func (m *Model) submitCategory() error {
	title := strings.TrimSpace(m.categoryForm.Title)
	if err := validation.ValidateCategory(title); err != nil {
		return err
	}
	if _, err := m.svc.Store().GetCategoryByTitle(title); err == nil {
		return fmt.Errorf("category %q already exists", title)
	}
	c, err := m.svc.Store().CreateCategory(title)
	if err != nil {
		return err
	}
	m.status = fmt.Sprintf("✓ Added category %s", c.Title)
	return nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if err := m.svc.Store().DeleteTracker(m.pendingDelete.ID); err != nil {
			logger.Error("Failed to delete tracker", "id", m.pendingDelete.ID, "error", err)
			m.err = err
		} else {
			m.status = fmt.Sprintf("Deleted %s", m.pendingDelete.Name)
		}
		m.pendingDelete = models.Tracker{}
		m.state = stateBoard
	case "n", "N", "esc":
		m.pendingDelete = models.Tracker{}
		m.state = stateBoard
	}
	return m, nil
}

func newTrackerForm(fm *trackerFormModel, categories []string) *huh.Form {
	days := make([]huh.Option[models.Weekday], 0, len(models.UIOrder))
	for _, wd := range models.UIOrder {
		days = append(days, huh.NewOption(wd.String(), wd))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(validation.ValidateName),
			huh.NewInput().
				Title("Emoji").
				Value(&fm.Emoji).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("emoji cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Color").
				Description("#RRGGBB").
				Value(&fm.Color).
				Validate(validation.ValidateHexColor),
			huh.NewMultiSelect[models.Weekday]().
				Title("Days").
				Description("Leave empty to pause the tracker").
				Options(days...).
				Value(&fm.Days),
			huh.NewInput().
				Title("Category").
				Description("A new title creates the category").
				Suggestions(categories).
				Value(&fm.Category).
				Validate(validation.ValidateCategory),
		),
	).WithTheme(huh.ThemeDracula())
}

func newCategoryForm(fm *categoryFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Category Title").
				Value(&fm.Title).
				Validate(validation.ValidateCategory),
		),
	).WithTheme(huh.ThemeDracula())
}
