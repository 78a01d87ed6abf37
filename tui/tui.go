// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Hosts the pipeline board and switches between board, deal detail and graph views
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
	"github.com/harperreed/pipeboard/notify"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewGraph
)

// Options configures the host model.
type Options struct {
	Board BoardOptions
	// Events carries change notifications published by other sessions.
	Events <-chan notify.Event
	// Source is this session's publisher id. Events from it are ignored.
	Source string
}

type remoteEventMsg struct {
	event notify.Event
}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	pipeline models.Pipeline
	viewMode ViewMode

	board  BoardModel
	detail models.Deal

	graphDOT string
	graphErr error

	events <-chan notify.Event
	source string

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, store board.Store, pipeline models.Pipeline, opts Options) Model {
	return Model{
		ctx:      ctx,
		pipeline: pipeline,
		viewMode: ViewBoard,
		board:    NewBoardModel(ctx, store, pipeline, opts.Board),
		events:   opts.Events,
		source:   opts.Source,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.board.Init(), m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return remoteEventMsg{event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if m.viewMode != ViewBoard {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case DealActivatedMsg:
		m.detail = msg.Deal
		m.viewMode = ViewDetail
		return m, nil

	case graphRenderedMsg:
		m.graphDOT, m.graphErr = msg.dot, msg.err
		return m, nil

	case remoteEventMsg:
		next := m.waitForEvent()
		if msg.event.Source == m.source {
			return m, next
		}
		log.WithFields(log.Fields{"deal": msg.event.DealID, "source": msg.event.Source}).Debug("remote change, reloading board")
		return m, tea.Batch(next, m.board.Reload())
	}

	var cmd tea.Cmd
	m.board, cmd = m.board.Update(msg)
	if m.viewMode == ViewDetail {
		if d, ok := m.board.Board().Deal(m.detail.ID); ok {
			m.detail = d
		}
	}
	return m, cmd
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return m.board.View()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	// A held card owns the keyboard until it is placed or cancelled.
	if !m.board.Dragging() {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			return m.openGraph()
		}
	} else if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.board, cmd = m.board.Update(msg)
	return m, cmd
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)
