package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/trackly/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case stateTrackerForm, stateCategoryForm:
		content = m.form.View()
	case stateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.list.View()
	}

	parts := []string{m.viewHeader(), m.viewChips()}
	if m.state == stateSearch || m.query.Search != "" {
		parts = append(parts, m.search.View())
	}
	parts = append(parts, "", content, "", m.viewStatus(), m.help.View(m.keys))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewHeader() string {
	day := m.list.Board().Day
	if day.IsZero() {
		day = m.svc.Today()
	}
	title := fmt.Sprintf("%s, %s", day.Weekday(), day)
	if day == m.svc.Today() {
		title += " (today)"
	}
	return headerStyle.Render(title)
}

func (m Model) viewChips() string {
	chips := make([]string, 0, len(models.Filters))
	for _, f := range models.Filters {
		label := strings.ToUpper(string(f)[:1]) + string(f)[1:]
		if f == m.query.Filter {
			chips = append(chips, activeChipStyle.Render(label))
		} else {
			chips = append(chips, chipStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return warningStyle.Render("Error: " + m.err.Error())
	}
	return statusStyle.Render(m.status)
}

func (m Model) viewConfirmDelete() string {
	return dangerStyle.Render(fmt.Sprintf(
		"Delete %q and all of its completions? (y/n)", m.pendingDelete.Name))
}
