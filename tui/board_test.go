// ABOUTME: Tests for the interactive board component
// ABOUTME: Drives mouse and keyboard gestures through the model against an in-memory store
package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

type memStore struct {
	mu      sync.Mutex
	stages  []models.Stage
	deals   []models.Deal
	moveErr error
	moves   int
	lists   int
}

func (s *memStore) ListStages(context.Context, uuid.UUID) ([]models.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	return append([]models.Stage(nil), s.stages...), nil
}

func (s *memStore) ListDeals(context.Context, uuid.UUID) ([]models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Deal(nil), s.deals...), nil
}

func (s *memStore) MoveDeal(_ context.Context, dealID, stageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves++
	if s.moveErr != nil {
		return s.moveErr
	}
	for i := range s.deals {
		if s.deals[i].ID == dealID {
			s.deals[i].StageID = stageID
			return nil
		}
	}
	return models.ErrNotFound
}

type boardFixture struct {
	store    *memStore
	pipeline models.Pipeline
	lead     models.Stage
	won      models.Stage
	deal     models.Deal
}

func newBoardFixture() boardFixture {
	p := models.Pipeline{ID: uuid.New(), Name: "Gym Memberships"}
	lead := models.Stage{ID: uuid.New(), PipelineID: p.ID, Name: "Lead", OrderIndex: 1}
	won := models.Stage{ID: uuid.New(), PipelineID: p.ID, Name: "Won", OrderIndex: 2, IsWon: true}
	value := decimal.NewFromInt(1200)
	deal := models.Deal{ID: uuid.New(), PipelineID: p.ID, Title: "Annual plan", StageID: lead.ID, Value: &value, WinProbability: 30}
	other := models.Deal{ID: uuid.New(), PipelineID: p.ID, Title: "Day pass", StageID: lead.ID, WinProbability: 10}

	return boardFixture{
		store:    &memStore{stages: []models.Stage{lead, won}, deals: []models.Deal{deal, other}},
		pipeline: p,
		lead:     lead,
		won:      won,
		deal:     deal,
	}
}

func testBoardOptions() BoardOptions {
	return BoardOptions{
		Gesture:    board.GestureConfig{Threshold: 1},
		Controller: board.ControllerConfig{Retry: board.RetryPolicy{MaxAttempts: 1}},
	}
}

// loadedBoard returns a board sized 120x30 with the fixture loaded. At that
// size the first card of column 0 covers cells x 0-25, y 5-8 and column 1
// starts at x 28.
func loadedBoard(t *testing.T, f boardFixture) BoardModel {
	t.Helper()
	m := NewBoardModel(context.Background(), f.store, f.pipeline, testBoardOptions())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = m.Update(m.load()())
	require.True(t, m.loaded)
	return m
}

func stageOf(t *testing.T, m BoardModel, dealID uuid.UUID) uuid.UUID {
	t.Helper()
	id, ok := m.Board().StageOf(dealID)
	require.True(t, ok)
	return id
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestBoardRendersColumns(t *testing.T) {
	m := loadedBoard(t, newBoardFixture())

	view := m.View()
	assert.Contains(t, view, "Gym Memberships")
	assert.Contains(t, view, "Lead")
	assert.Contains(t, view, "Won ✓")
	assert.Contains(t, view, "Annual plan")
	assert.Contains(t, view, "$1,200")
}

func TestBoardEmptyPipeline(t *testing.T) {
	f := newBoardFixture()
	f.store.stages, f.store.deals = nil, nil
	m := loadedBoard(t, f)

	assert.Contains(t, m.View(), "no stages")
	_, cmd := m.Update(keySpace)
	assert.Nil(t, cmd)
	assert.False(t, m.Dragging())
}

func TestClickActivatesDeal(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(mouse(tea.MouseActionPress, 5, 6))
	require.True(t, m.Dragging())
	m, cmd := m.Update(mouse(tea.MouseActionRelease, 5, 6))
	require.NotNil(t, cmd)

	msg, ok := cmd().(DealActivatedMsg)
	require.True(t, ok)
	assert.Equal(t, f.deal.ID, msg.Deal.ID)
	assert.False(t, m.Dragging())
	assert.Equal(t, f.lead.ID, stageOf(t, m, f.deal.ID))
}

func TestPressOutsideCardsIsIgnored(t *testing.T) {
	m := loadedBoard(t, newBoardFixture())

	m, _ = m.Update(mouse(tea.MouseActionPress, 40, 20))
	assert.False(t, m.Dragging())
}

func TestPointerDragMovesDeal(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(mouse(tea.MouseActionPress, 5, 6))
	m, _ = m.Update(mouse(tea.MouseActionMotion, 20, 6))
	m, _ = m.Update(mouse(tea.MouseActionMotion, 33, 6))
	assert.Contains(t, m.View(), "→ Won")

	m, cmd := m.Update(mouse(tea.MouseActionRelease, 33, 6))
	require.NotNil(t, cmd)

	// Applied before the store answers.
	assert.Equal(t, f.won.ID, stageOf(t, m, f.deal.ID))
	assert.Equal(t, 1, m.ctrl.Pending())

	settled, ok := cmd().(moveSettledMsg)
	require.True(t, ok)
	require.NoError(t, settled.result.Err)

	m, _ = m.Update(settled)
	assert.Equal(t, f.won.ID, stageOf(t, m, f.deal.ID))
	assert.Equal(t, 0, m.ctrl.Pending())
	assert.Equal(t, 1, f.store.moves)
	assert.Empty(t, m.notice)
}

func TestFailedMoveRollsBack(t *testing.T) {
	f := newBoardFixture()
	f.store.moveErr = errors.New("database is locked")
	m := loadedBoard(t, f)

	m, _ = m.Update(mouse(tea.MouseActionPress, 5, 6))
	m, _ = m.Update(mouse(tea.MouseActionMotion, 33, 6))
	m, cmd := m.Update(mouse(tea.MouseActionRelease, 33, 6))
	require.NotNil(t, cmd)
	assert.Equal(t, f.won.ID, stageOf(t, m, f.deal.ID))

	m, _ = m.Update(cmd())
	assert.Equal(t, f.lead.ID, stageOf(t, m, f.deal.ID))
	assert.Contains(t, m.notice, "database is locked")
	assert.Contains(t, m.View(), "Could not move")
}

func TestReleaseOutsideColumnsCancels(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(mouse(tea.MouseActionPress, 5, 6))
	m, _ = m.Update(mouse(tea.MouseActionMotion, 5, 200))
	m, cmd := m.Update(mouse(tea.MouseActionRelease, 5, 200))

	assert.Nil(t, cmd)
	assert.False(t, m.Dragging())
	assert.Equal(t, f.lead.ID, stageOf(t, m, f.deal.ID))
	assert.Equal(t, 0, f.store.moves)
}

func TestDropOnOriginIsNoop(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(mouse(tea.MouseActionPress, 5, 6))
	m, _ = m.Update(mouse(tea.MouseActionMotion, 8, 7))
	m, cmd := m.Update(mouse(tea.MouseActionRelease, 8, 7))

	assert.Nil(t, cmd)
	assert.Equal(t, f.lead.ID, stageOf(t, m, f.deal.ID))
	assert.Equal(t, 0, f.store.moves)
}

func TestKeyboardCarryMovesDeal(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(keySpace)
	require.True(t, m.Dragging())

	m, _ = m.Update(keyRune('l'))
	assert.Equal(t, 1, m.focusCol)
	// Carrying past the last column stays put.
	m, _ = m.Update(keyRune('l'))
	assert.Equal(t, 1, m.focusCol)

	m, cmd := m.Update(keyEnter)
	require.NotNil(t, cmd)
	assert.False(t, m.Dragging())
	assert.Equal(t, f.won.ID, stageOf(t, m, f.deal.ID))

	m, _ = m.Update(cmd())
	assert.Equal(t, f.won.ID, stageOf(t, m, f.deal.ID))
	assert.Equal(t, 1, f.store.moves)
}

func TestKeyboardDragEscCancels(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(keySpace)
	m, _ = m.Update(keyRune('l'))
	m, cmd := m.Update(keyEsc)

	assert.Nil(t, cmd)
	assert.False(t, m.Dragging())
	assert.Equal(t, f.lead.ID, stageOf(t, m, f.deal.ID))
	assert.Equal(t, 0, m.focusCol)
	assert.Equal(t, 0, f.store.moves)
}

func TestEnterOpensFocusedDeal(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(keyRune('j'))
	_, cmd := m.Update(keyEnter)
	require.NotNil(t, cmd)

	msg, ok := cmd().(DealActivatedMsg)
	require.True(t, ok)
	assert.Equal(t, "Day pass", msg.Deal.Title)
}

func TestReloadKeepsPendingMove(t *testing.T) {
	f := newBoardFixture()
	m := loadedBoard(t, f)

	m, _ = m.Update(keySpace)
	m, _ = m.Update(keyRune('l'))
	m, cmd := m.Update(keySpace)
	require.NotNil(t, cmd)

	// The store has not seen the move yet, so a reload still reports Lead.
	m, _ = m.Update(m.load()())
	assert.Equal(t, f.won.ID, stageOf(t, m, f.deal.ID))
}

func TestNoticeClears(t *testing.T) {
	m := loadedBoard(t, newBoardFixture())

	cmd := m.showNotice("first")
	require.NotNil(t, cmd)
	stale := m.noticeID
	m.showNotice("second")

	m, _ = m.Update(clearNoticeMsg{id: stale})
	assert.Equal(t, "second", m.notice)

	m, _ = m.Update(clearNoticeMsg{id: m.noticeID})
	assert.Empty(t, m.notice)
}

func TestComputeLayoutScrollsFocusedColumn(t *testing.T) {
	f := newBoardFixture()
	for i := 0; i < 10; i++ {
		f.store.deals = append(f.store.deals, models.Deal{ID: uuid.New(), PipelineID: f.pipeline.ID, Title: "Extra", StageID: f.lead.ID})
	}
	m := loadedBoard(t, f)

	// Height 30 leaves room for five cards plus the overflow marker.
	l := computeLayout(m.Board(), 120, 30, 0, 0, 8)
	col, ok := l.column(0)
	require.True(t, ok)
	assert.Len(t, col.cards, 5)
	assert.Equal(t, 4, col.cards[0].row)
	assert.Equal(t, 7, col.hidden)

	_, ok = l.card(0, 8)
	assert.True(t, ok)
	_, ok = l.card(0, 0)
	assert.False(t, ok)
}
