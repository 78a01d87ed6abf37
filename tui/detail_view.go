package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pipeboard/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("DEAL · " + m.detail.Title))
	s.WriteString("\n\n")

	s.WriteString(m.renderDealDetail())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderDealDetail() string {
	d := m.detail
	var s strings.Builder

	stage := "unknown stage"
	if col, ok := m.board.Board().Column(d.StageID); ok {
		stage = stageLabel(col.Stage)
	}
	s.WriteString(m.renderField("Stage", stage))

	if d.Value != nil {
		s.WriteString(m.renderField("Value", models.FormatMoney(*d.Value)))
	}
	s.WriteString(m.renderField("Win Probability", fmt.Sprintf("%d%%", d.WinProbability)))
	if d.ExpectedCloseDate != nil {
		s.WriteString(m.renderField("Expected Close", d.ExpectedCloseDate.Format("2006-01-02")))
	}

	if p := d.Prospect; p != nil {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Render("PROSPECT"))
		s.WriteString("\n")
		s.WriteString(m.renderField("Name", p.Name))
		s.WriteString(m.renderField("Email", p.Email))
		s.WriteString(m.renderField("Phone", p.Phone))
	}

	if len(d.Tags) > 0 {
		s.WriteString("\n")
		s.WriteString(m.renderField("Tags", strings.Join(d.Tags, ", ")))
	}

	s.WriteString("\n")
	s.WriteString(m.renderField("Created", d.CreatedAt.Format("2006-01-02 15:04")))
	s.WriteString(m.renderField("Updated", d.UpdatedAt.Format("2006-01-02 15:04")))

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"r: Reload",
		"g: Graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.viewMode = ViewBoard
		m.detail = models.Deal{}
	case "r":
		return m, m.board.Reload()
	case "g":
		return m.openGraph()
	}

	return m, nil
}
