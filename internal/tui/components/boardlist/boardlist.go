// Package boardlist renders a day's board as category sections with a
// cursor over the trackers.
package boardlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/trackly/internal/tracking"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)
)

type Model struct {
	board  tracking.Board
	items  []tracking.Item
	cursor int
	width  int
	height int
}

func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetBoard replaces the content. The cursor stays on the same tracker
// when it is still shown.
func (m *Model) SetBoard(b tracking.Board) {
	var selectedID string
	if item, ok := m.Selected(); ok {
		selectedID = item.Tracker.ID
	}

	m.board = b
	m.items = nil
	for _, sec := range b.Sections {
		m.items = append(m.items, sec.Items...)
	}

	m.cursor = 0
	for i, item := range m.items {
		if item.Tracker.ID == selectedID {
			m.cursor = i
			break
		}
	}
}

func (m Model) Board() tracking.Board {
	return m.board
}

// Selected returns the tracker under the cursor.
func (m Model) Selected() (tracking.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return tracking.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) MoveDown() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) View() string {
	switch m.board.Empty {
	case tracking.EmptyNothingDue:
		return emptyStyle.Render("Nothing is scheduled for this day.\nPress 'a' to add a tracker.")
	case tracking.EmptyNoResults:
		return emptyStyle.Render("No trackers match the current search or filter.")
	}

	var lines []string
	selectedLine := 0
	index := 0
	for i, sec := range m.board.Sections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, sectionStyle.Render(sec.Category.Title))
		for _, item := range sec.Items {
			if index == m.cursor {
				selectedLine = len(lines)
			}
			lines = append(lines, m.renderItem(item, index == m.cursor))
			index++
		}
	}
	return strings.Join(window(lines, selectedLine, m.height), "\n")
}

func (m Model) renderItem(item tracking.Item, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "› "
	}

	mark := lipgloss.NewStyle().Foreground(lipgloss.Color(item.Tracker.ColorHex))
	check := mark.Render("○")
	if item.Completed {
		check = mark.Render("●")
	}

	name := item.Tracker.Name
	if item.Tracker.Emoji != "" {
		name = item.Tracker.Emoji + " " + name
	}
	switch {
	case selected:
		name = selectedStyle.Render(name)
	case item.Completed:
		name = doneStyle.Render(name)
	}

	return fmt.Sprintf("%s%s %s %s", cursor, check, name, countStyle.Render(fmt.Sprintf("×%d", item.CompletionCount)))
}

// window keeps the selected line visible when there are more lines than
// fit in height.
func window(lines []string, selected, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := selected - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}
