package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pipeboard/viz"
)

type graphRenderedMsg struct {
	dot string
	err error
}

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("GRAPH · " + m.pipeline.Name))
	s.WriteString("\n\n")

	switch {
	case m.graphErr != nil:
		s.WriteString(noticeStyle.Render(fmt.Sprintf("Could not render graph: %v", m.graphErr)))
	case m.graphDOT == "":
		s.WriteString("Generating graph...\n")
	default:
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.viewMode = ViewBoard
		m.graphDOT, m.graphErr = "", nil
	}

	return m, nil
}

// openGraph switches to the graph view and renders the board as it is now.
func (m Model) openGraph() (tea.Model, tea.Cmd) {
	m.viewMode = ViewGraph
	m.graphDOT, m.graphErr = "", nil

	ctx, name, b := m.ctx, m.pipeline.Name, m.board.Board()
	return m, func() tea.Msg {
		dot, err := viz.NewGraphGenerator().PipelineDOT(ctx, name, b)
		return graphRenderedMsg{dot: dot, err: err}
	}
}
