// ABOUTME: Tests for the charm KV pipeline store
// ABOUTME: Runs against the Badger-backed test client

package charm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

func setupStore(t *testing.T) (*Store, models.Pipeline, []models.Stage) {
	t.Helper()
	ctx := context.Background()
	s := NewStore(NewTestClient(t))

	p := models.Pipeline{Name: "Sales"}
	require.NoError(t, s.CreatePipeline(ctx, &p))

	var stages []models.Stage
	// Created out of order on purpose.
	for _, def := range []struct {
		name  string
		order int
	}{{"Won", 30}, {"Lead", 10}, {"Trial", 20}} {
		st := models.Stage{PipelineID: p.ID, Name: def.name, OrderIndex: def.order}
		require.NoError(t, s.CreateStage(ctx, &st))
		stages = append(stages, st)
	}
	return s, p, stages
}

func TestListStagesSorted(t *testing.T) {
	s, p, _ := setupStore(t)

	stages, err := s.ListStages(context.Background(), p.ID)
	require.NoError(t, err)

	var names []string
	for _, st := range stages {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"Lead", "Trial", "Won"}, names)
}

func TestStagesScopedToPipeline(t *testing.T) {
	s, _, _ := setupStore(t)
	ctx := context.Background()

	other := models.Pipeline{Name: "Other"}
	require.NoError(t, s.CreatePipeline(ctx, &other))

	stages, err := s.ListStages(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, stages)

	err = s.CreateStage(ctx, &models.Stage{PipelineID: uuid.New(), Name: "Orphan"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDealRoundTripAndMove(t *testing.T) {
	s, p, stages := setupStore(t)
	ctx := context.Background()

	value := decimal.RequireFromString("99.95")
	deal := &models.Deal{Title: "Monthly", StageID: stages[1].ID, Value: &value, WinProbability: 25, Tags: []string{"b", "a"}}
	require.NoError(t, s.CreateDeal(ctx, deal))
	assert.Equal(t, p.ID, deal.PipelineID)

	require.NoError(t, s.MoveDeal(ctx, deal.ID, stages[0].ID))

	got, err := s.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, stages[0].ID, got.StageID)
	assert.True(t, value.Equal(*got.Value))
	assert.Equal(t, 25, got.WinProbability)
	assert.Equal(t, []string{"b", "a"}, got.Tags)
}

func TestMoveDealUnknownStage(t *testing.T) {
	s, _, stages := setupStore(t)
	ctx := context.Background()

	deal := &models.Deal{Title: "Stay", StageID: stages[1].ID}
	require.NoError(t, s.CreateDeal(ctx, deal))

	assert.ErrorIs(t, s.MoveDeal(ctx, deal.ID, uuid.New()), models.ErrNotFound)
	assert.ErrorIs(t, s.MoveDeal(ctx, uuid.New(), stages[0].ID), models.ErrNotFound)

	other := models.Pipeline{Name: "Other"}
	require.NoError(t, s.CreatePipeline(ctx, &other))
	foreign := models.Stage{PipelineID: other.ID, Name: "Elsewhere"}
	require.NoError(t, s.CreateStage(ctx, &foreign))
	assert.ErrorIs(t, s.MoveDeal(ctx, deal.ID, foreign.ID), models.ErrNotFound)

	got, err := s.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, stages[1].ID, got.StageID)
}

func TestListDealsAndDelete(t *testing.T) {
	s, p, stages := setupStore(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, s.CreateDeal(ctx, &models.Deal{Title: title, StageID: stages[0].ID}))
	}

	deals, err := s.ListDeals(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, deals, 3)
	assert.Equal(t, "one", deals[0].Title)

	require.NoError(t, s.DeleteDeal(ctx, deals[0].ID))
	assert.ErrorIs(t, s.DeleteDeal(ctx, deals[0].ID), models.ErrNotFound)

	deals, err = s.ListDeals(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, deals, 2)
}

func TestStoreDrivesController(t *testing.T) {
	s, p, stages := setupStore(t)
	ctx := context.Background()

	deal := &models.Deal{Title: "Drag me", StageID: stages[1].ID}
	require.NoError(t, s.CreateDeal(ctx, deal))

	found, err := board.FindPipeline(ctx, s, "sales")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	st, ds, err := board.Fetch(ctx, s, p.ID)
	require.NoError(t, err)

	c := board.NewController(s, board.DefaultControllerConfig())
	c.Load(st, ds)

	move, err := c.Drop(deal.ID, stages[0].ID)
	require.NoError(t, err)
	settled := c.Settle(c.Persist(ctx, *move))
	require.True(t, settled.Committed)

	got, err := s.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, stages[0].ID, got.StageID)
}
