package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/models"
	"github.com/julianstephens/trackly/internal/tracking"
	"github.com/julianstephens/trackly/internal/tui/components/boardlist"
)

type sessionState int

const (
	stateBoard sessionState = iota
	stateSearch
	stateTrackerForm
	stateCategoryForm
	stateConfirmDelete
)

type trackerFormModel struct {
	Name     string
	Emoji    string
	Color    string
	Days     []models.Weekday
	Category string
}

type categoryFormModel struct {
	Title string
}

// boardMsg carries a recomputed board into Update.
type boardMsg struct {
	board tracking.Board
	err   error
}

type Model struct {
	svc   *tracking.Service
	query tracking.Query

	state  sessionState
	keys   KeyMap
	help   help.Model
	list   boardlist.Model
	search textinput.Model

	form         *huh.Form
	trackerForm  *trackerFormModel
	categoryForm *categoryFormModel
	editingID    string // empty while adding

	pendingDelete models.Tracker

	status string
	err    error

	updates     chan boardMsg
	unsubscribe func()

	width    int
	height   int
	quitting bool
}

// NewModel builds the board for today and subscribes to store changes.
// Call Close when the program exits.
func NewModel(svc *tracking.Service) Model {
	search := textinput.New()
	search.Placeholder = "search trackers"
	search.Prompt = "/ "
	search.CharLimit = constants.MaxTitleLength

	m := Model{
		svc:     svc,
		query:   tracking.Query{Filter: models.FilterAll},
		state:   stateBoard,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		list:    boardlist.New(0, 0),
		search:  search,
		updates: make(chan boardMsg, 1),
	}

	updates := m.updates
	m.unsubscribe = svc.Watch(func(b tracking.Board, err error) {
		publish(updates, boardMsg{board: b, err: err})
	})
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForBoard(m.updates)
}

// Close detaches the model from store notifications.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// publish hands msg to the program without blocking the mutating caller.
// Only the newest board matters, so an unread one is replaced.
func publish(ch chan boardMsg, msg boardMsg) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func waitForBoard(ch chan boardMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// refresh recomputes the board for the current query.
func (m *Model) refresh() {
	b, err := m.svc.Board(m.query)
	m.applyBoard(b, err)
}

func (m *Model) applyBoard(b tracking.Board, err error) {
	if err != nil {
		logger.Error("Failed to compute board", "error", err)
		m.err = err
		return
	}
	m.err = nil
	m.list.SetBoard(b)
}
