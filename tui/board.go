// ABOUTME: Interactive board component for one pipeline
// ABOUTME: Routes mouse and keyboard input through the gesture recognizer into optimistic moves
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

const noticeTTL = 5 * time.Second

// DealActivatedMsg is emitted when a card is clicked or opened with enter.
type DealActivatedMsg struct {
	Deal models.Deal
}

type boardLoadedMsg struct {
	stages []models.Stage
	deals  []models.Deal
	err    error
}

type moveSettledMsg struct {
	result board.MoveResult
}

type clearNoticeMsg struct {
	id int
}

type boardKeyMap struct {
	Left, Right, Up, Down key.Binding
	Pick, Open, Cancel    key.Binding
	Reload, Quit          key.Binding
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.Pick, k.Open, k.Cancel, k.Reload, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultBoardKeys() boardKeyMap {
	return boardKeyMap{
		Left:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "left")),
		Right:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "right")),
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Pick:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up/place")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type BoardOptions struct {
	Gesture    board.GestureConfig
	Controller board.ControllerConfig
}

// BoardModel shows one pipeline and lets the user drag deals between stages.
type BoardModel struct {
	ctx      context.Context
	store    board.Store
	pipeline models.Pipeline

	ctrl *board.Controller
	rec  *board.Recognizer
	lay  layout

	width, height      int
	firstCol           int
	focusCol, focusRow int

	loaded   bool
	loadErr  error
	notice   string
	noticeID int

	keys    boardKeyMap
	help    help.Model
	spinner spinner.Model
}

func NewBoardModel(ctx context.Context, store board.Store, pipeline models.Pipeline, opts BoardOptions) BoardModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(savingStyle))
	return BoardModel{
		ctx:      ctx,
		store:    store,
		pipeline: pipeline,
		ctrl:     board.NewController(store, opts.Controller),
		rec:      board.NewRecognizer(opts.Gesture),
		width:    80,
		height:   24,
		keys:     defaultBoardKeys(),
		help:     help.New(),
		spinner:  sp,
	}
}

func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

// Reload fetches stages and deals again. Moves still in flight stay applied.
func (m BoardModel) Reload() tea.Cmd {
	return m.load()
}

func (m BoardModel) load() tea.Cmd {
	ctx, store, id := m.ctx, m.store, m.pipeline.ID
	return func() tea.Msg {
		stages, deals, err := board.Fetch(ctx, store, id)
		return boardLoadedMsg{stages: stages, deals: deals, err: err}
	}
}

// Dragging reports whether a gesture is in progress.
func (m BoardModel) Dragging() bool {
	return m.rec.Phase() != board.PhaseIdle
}

func (m BoardModel) Board() *board.Board {
	return m.ctrl.Board()
}

func (m BoardModel) Update(msg tea.Msg) (BoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.relayout()
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			log.WithError(msg.err).Error("failed to load board")
			cmd := m.showNotice(fmt.Sprintf("Could not load board: %v", msg.err))
			return m, cmd
		}
		m.loaded, m.loadErr = true, nil
		m.ctrl.Load(msg.stages, msg.deals)
		m.relayout()
		return m, nil

	case moveSettledMsg:
		return m.settle(msg.result)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m BoardModel) handleMouse(msg tea.MouseMsg) (BoardModel, tea.Cmd) {
	p := cellPoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		card, ok := m.lay.cardAt(p)
		if !ok {
			return m, nil
		}
		if m.rec.Begin(card, p, board.InputPointer) {
			m.focusDeal(card.DealID)
		}
		return m, nil

	case tea.MouseActionMotion:
		if m.rec.Phase() == board.PhaseIdle {
			return m, nil
		}
		m.rec.Update(p)
		return m, nil

	case tea.MouseActionRelease:
		s, ok := m.rec.Session()
		if !ok || s.Input != board.InputPointer {
			return m, nil
		}
		m.rec.Update(p)
		return m.finish(m.rec.Release())
	}
	return m, nil
}

func (m BoardModel) handleKey(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	if m.Dragging() {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			return m.finish(m.rec.Cancel())
		case key.Matches(msg, m.keys.Pick), key.Matches(msg, m.keys.Open):
			if s, _ := m.rec.Session(); s.Input == board.InputKeyboard {
				return m.finish(m.rec.Release())
			}
		case key.Matches(msg, m.keys.Left):
			m.carry(-1)
		case key.Matches(msg, m.keys.Right):
			m.carry(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveFocus(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.moveFocus(1, 0)
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(0, 1)
	case key.Matches(msg, m.keys.Pick):
		if card, ok := m.lay.card(m.focusCol, m.focusRow); ok {
			region := board.Region{Kind: board.RegionCard, StageID: card.deal.StageID, DealID: card.deal.ID, Rect: card.rect}
			m.rec.Begin(region, card.rect.Center(), board.InputKeyboard)
		}
	case key.Matches(msg, m.keys.Open):
		if d, ok := m.focusedDeal(); ok {
			return m, activate(d)
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.load()
	}
	return m, nil
}

// carry moves a keyboard-held card to the neighbouring column.
func (m *BoardModel) carry(dir int) {
	s, ok := m.rec.Session()
	if !ok {
		return
	}
	b := m.ctrl.Board()
	from, ok := b.ColumnIndex(s.OriginStageID)
	if s.HasCandidate {
		from, ok = b.ColumnIndex(s.Candidate.StageID)
	}
	if !ok {
		return
	}
	target := from + dir
	if target < 0 || target >= len(b.Columns) {
		return
	}

	// Focus follows the carried card so the target column stays in view.
	m.focusCol, m.focusRow = target, 0
	m.relayout()
	box, ok := m.lay.column(target)
	if !ok {
		return
	}
	// Keep the grab offset so the probe lines up with the target column.
	m.rec.Update(board.Point{X: box.rect.X + (s.Start.X - s.Origin.X), Y: s.Start.Y})
}

func (m BoardModel) finish(out board.Outcome) (BoardModel, tea.Cmd) {
	switch out.Kind {
	case board.OutcomeActivated:
		if d, ok := m.ctrl.Board().Deal(out.DealID); ok {
			return m, activate(d)
		}

	case board.OutcomeDropped:
		move, err := m.ctrl.Drop(out.DealID, out.TargetStageID)
		if err != nil {
			log.WithError(err).WithField("deal", out.DealID).Warn("drop rejected")
			cmd := m.showNotice(fmt.Sprintf("Cannot move: %v", err))
			// The local model is out of date with what was on screen.
			return m, tea.Batch(cmd, m.load())
		}
		m.focusDeal(out.DealID)
		m.relayout()
		if move == nil {
			return m, nil
		}
		return m, m.persist(*move)

	case board.OutcomeCancelled:
		m.focusDeal(out.DealID)
		m.relayout()
	}
	return m, nil
}

func (m BoardModel) persist(move board.PendingMove) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return moveSettledMsg{result: ctrl.Persist(ctx, move)}
	}
}

func (m BoardModel) settle(res board.MoveResult) (BoardModel, tea.Cmd) {
	s := m.ctrl.Settle(res)
	m.relayout()

	var cmds []tea.Cmd
	if s.Reload {
		cmds = append(cmds, m.load())
	}
	if s.Reverted || s.Reload {
		title := s.Move.DealID.String()
		if d, ok := m.ctrl.Board().Deal(s.Move.DealID); ok {
			title = d.Title
		}
		cmds = append(cmds, m.showNotice(fmt.Sprintf("Could not move %q: %v", title, rootCause(s.Err))))
	}
	return m, tea.Batch(cmds...)
}

func rootCause(err error) error {
	var me *board.MoveError
	if errors.As(err, &me) {
		return me.Err
	}
	return err
}

func (m *BoardModel) showNotice(text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	id := m.noticeID
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}

func activate(d models.Deal) tea.Cmd {
	return func() tea.Msg { return DealActivatedMsg{Deal: d} }
}

func (m *BoardModel) moveFocus(dc, dr int) {
	cols := m.ctrl.Board().Columns
	if len(cols) == 0 {
		return
	}
	m.focusCol = clamp(m.focusCol+dc, 0, len(cols)-1)
	if dc != 0 {
		m.focusRow = clamp(m.focusRow, 0, max(len(cols[m.focusCol].Deals)-1, 0))
	}
	m.focusRow = clamp(m.focusRow+dr, 0, max(len(cols[m.focusCol].Deals)-1, 0))
	m.scrollTo(m.focusCol)
	m.relayout()
}

func (m *BoardModel) focusDeal(id uuid.UUID) {
	for c, col := range m.ctrl.Board().Columns {
		for r, d := range col.Deals {
			if d.ID == id {
				m.focusCol, m.focusRow = c, r
				m.scrollTo(c)
				return
			}
		}
	}
}

func (m BoardModel) focusedDeal() (models.Deal, bool) {
	cols := m.ctrl.Board().Columns
	if m.focusCol >= len(cols) || m.focusRow >= len(cols[m.focusCol].Deals) {
		return models.Deal{}, false
	}
	return cols[m.focusCol].Deals[m.focusRow], true
}

func (m *BoardModel) scrollTo(col int) {
	visible := visibleColumns(m.width)
	if col < m.firstCol {
		m.firstCol = col
	}
	if col >= m.firstCol+visible {
		m.firstCol = col - visible + 1
	}
}

// relayout recomputes regions after any change to size, focus or the model,
// and hands them to the recognizer.
func (m *BoardModel) relayout() {
	cols := m.ctrl.Board().Columns
	if len(cols) == 0 {
		m.focusCol, m.focusRow, m.firstCol = 0, 0, 0
	} else {
		m.focusCol = clamp(m.focusCol, 0, len(cols)-1)
		m.focusRow = clamp(m.focusRow, 0, max(len(cols[m.focusCol].Deals)-1, 0))
		m.firstCol = clamp(m.firstCol, 0, len(cols)-1)
		m.scrollTo(m.focusCol)
	}
	m.lay = computeLayout(m.ctrl.Board(), m.width, m.height, m.firstCol, m.focusCol, m.focusRow)
	m.rec.SetRegions(m.lay.regions)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
