// ABOUTME: Rendering for the board component
// ABOUTME: Draws stage columns, deal cards, drag feedback and the footer
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

var (
	columnNameStyle = lipgloss.NewStyle().
			Bold(true).
			Width(colWidth)

	columnStatsStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Width(colWidth)

	columnRuleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	targetRuleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(colWidth - 2).
			Height(cardHeight - 2)

	focusedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("170"))

	draggedCardStyle = cardStyle.
				BorderStyle(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("214"))

	cardMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	savingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func (m BoardModel) View() string {
	lines := make([]string, 0, m.height)
	lines = append(lines, titleStyle.Render(ansi.Truncate("pipeboard · "+m.pipeline.Name, m.width, "…")))
	lines = append(lines, m.statusLine())

	b := m.ctrl.Board()
	switch {
	case !m.loaded && m.loadErr == nil:
		lines = append(lines, m.spinner.View()+" loading…")
	case len(b.Columns) == 0:
		// Zero stages render no columns.
		lines = append(lines, emptyStyle.Render("This pipeline has no stages."))
	default:
		lines = append(lines, m.renderColumns()...)
	}

	for len(lines) < m.height-footerHeight {
		lines = append(lines, "")
	}
	lines = append(lines, m.footerLine(), m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m BoardModel) statusLine() string {
	s, ok := m.rec.Session()
	if !ok || m.rec.Phase() != board.PhaseDragging {
		if n := len(m.ctrl.Board().Orphans); n > 0 {
			return emptyStyle.Render(fmt.Sprintf("%d deal(s) reference unknown stages and are hidden", n))
		}
		return ""
	}

	title := "deal"
	if d, ok := m.ctrl.Board().Deal(s.DealID); ok {
		title = d.Title
	}
	if !s.HasCandidate {
		return statusStyle.Render(fmt.Sprintf("Moving %q · release outside a column to cancel", title))
	}
	target := "?"
	if col, ok := m.ctrl.Board().Column(s.Candidate.StageID); ok {
		target = col.Stage.Name
	}
	return statusStyle.Render(fmt.Sprintf("Moving %q → %s", title, target))
}

func (m BoardModel) footerLine() string {
	var parts []string
	if n := m.ctrl.Pending(); n > 0 {
		parts = append(parts, m.spinner.View()+savingStyle.Render(fmt.Sprintf(" saving %d", n)))
	}
	if m.notice != "" {
		parts = append(parts, noticeStyle.Render(m.notice))
	}
	return strings.Join(parts, "  ")
}

func (m BoardModel) renderColumns() []string {
	h := boardHeight(m.height)
	b := m.ctrl.Board()

	var dragged, target uuid.UUID
	if s, ok := m.rec.Session(); ok && m.rec.Phase() == board.PhaseDragging {
		dragged = s.DealID
		if s.HasCandidate {
			target = s.Candidate.StageID
		}
	}

	blocks := make([][]string, 0, len(m.lay.columns))
	for _, box := range m.lay.columns {
		blocks = append(blocks, m.renderColumn(b.Columns[box.col], box, h, dragged, target))
	}

	gap := strings.Repeat(" ", colGap)
	rows := make([]string, h)
	for r := range rows {
		parts := make([]string, len(blocks))
		for i, block := range blocks {
			parts[i] = block[r]
		}
		rows[r] = strings.Join(parts, gap)
	}
	return rows
}

func (m BoardModel) renderColumn(col board.Column, box columnBox, h int, dragged, target uuid.UUID) []string {
	lines := make([]string, 0, h)

	lines = append(lines, columnNameStyle.Render(ansi.Truncate(stageLabel(col.Stage), colWidth, "…")))
	lines = append(lines, columnStatsStyle.Render(ansi.Truncate(aggregateLabel(col.Aggregate), colWidth, "…")))
	rule := columnRuleStyle
	if col.Stage.ID == target {
		rule = targetRuleStyle
	}
	lines = append(lines, rule.Render(strings.Repeat("─", colWidth)))

	for _, card := range box.cards {
		style := cardStyle
		switch {
		case card.deal.ID == dragged:
			style = draggedCardStyle
		case box.col == m.focusCol && card.row == m.focusRow:
			style = focusedCardStyle
		}
		lines = append(lines, strings.Split(style.Render(cardBody(card.deal)), "\n")...)
	}

	blank := strings.Repeat(" ", colWidth)
	for len(lines) < h {
		lines = append(lines, blank)
	}
	if box.hidden > 0 {
		lines[h-1] = emptyStyle.Width(colWidth).Render(fmt.Sprintf("+%d more", box.hidden))
	}
	return lines[:h]
}

func stageLabel(s models.Stage) string {
	switch {
	case s.IsWon:
		return s.Name + " ✓"
	case s.IsLost:
		return s.Name + " ✗"
	}
	return s.Name
}

func aggregateLabel(a board.Aggregate) string {
	if a.Count == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d · %s · %.0f%%", a.Count, models.FormatMoney(a.TotalValue), a.MeanWinProbability)
}

func cardBody(d models.Deal) string {
	inner := colWidth - 2
	title := ansi.Truncate(d.Title, inner, "…")

	var meta []string
	if d.Value != nil {
		meta = append(meta, models.FormatMoney(*d.Value))
	}
	meta = append(meta, fmt.Sprintf("%d%%", d.WinProbability))
	if d.Prospect != nil && d.Prospect.Name != "" {
		meta = append(meta, d.Prospect.Name)
	}
	return title + "\n" + cardMetaStyle.Render(ansi.Truncate(strings.Join(meta, " · "), inner, "…"))
}
