// ABOUTME: Tests for pipeline dashboard and graph rendering
// ABOUTME: Builds a small board in memory and checks the rendered output
package viz

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

func sampleBoard() *board.Board {
	lead := models.Stage{ID: uuid.New(), Name: "Lead", OrderIndex: 1}
	nego := models.Stage{ID: uuid.New(), Name: "Negotiation", OrderIndex: 2}
	won := models.Stage{ID: uuid.New(), Name: "Won", OrderIndex: 3, IsWon: true}
	lost := models.Stage{ID: uuid.New(), Name: "Lost", OrderIndex: 4, IsLost: true}

	money := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	deals := []models.Deal{
		{ID: uuid.New(), Title: "Annual", StageID: lead.ID, Value: money("1000"), WinProbability: 10},
		{ID: uuid.New(), Title: "Family", StageID: nego.ID, Value: money("2000"), WinProbability: 50},
		{ID: uuid.New(), Title: "No value", StageID: nego.ID, WinProbability: 80},
		{ID: uuid.New(), Title: "Closed", StageID: won.ID, Value: money("500"), WinProbability: 100},
		{ID: uuid.New(), Title: "Gone", StageID: lost.ID, Value: money("300")},
		{ID: uuid.New(), Title: "Orphan", StageID: uuid.New(), Value: money("999")},
	}
	return board.Build([]models.Stage{lead, nego, won, lost}, deals)
}

func TestGenerateDashboardStats(t *testing.T) {
	stats := GenerateDashboardStats("Gym", sampleBoard())

	assert.Equal(t, 5, stats.TotalDeals)
	assert.Equal(t, "3000", stats.OpenValue.String())
	assert.Equal(t, "1100", stats.Forecast.String())
	assert.Equal(t, "500", stats.WonValue.String())
	assert.Equal(t, "300", stats.LostValue.String())
	assert.Equal(t, 1, stats.Orphans)
	require.Len(t, stats.Stages, 4)
	assert.Equal(t, "Lead", stats.Stages[0].Stage.Name)
}

func TestRenderDashboard(t *testing.T) {
	out := RenderDashboard(GenerateDashboardStats("Gym", sampleBoard()))

	assert.Contains(t, out, "GYM")
	assert.Contains(t, out, "Negotiation")
	assert.Contains(t, out, "██████████")
	assert.Contains(t, out, "$1,100")
	assert.Contains(t, out, "NEEDS ATTENTION")
}

func TestRenderDashboardEmptyBoard(t *testing.T) {
	out := RenderDashboard(GenerateDashboardStats("Empty", board.Build(nil, nil)))
	assert.Contains(t, out, "deals     0")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}

func TestPipelineDOT(t *testing.T) {
	g := NewGraphGenerator()
	g.ShowDeals = true

	dot, err := g.PipelineDOT(context.Background(), "Gym", sampleBoard())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph"))
	assert.Contains(t, dot, "Negotiation")
	assert.Contains(t, dot, "Family")
	assert.NotContains(t, dot, "Orphan")
}

func TestWriteFileDOT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	require.NoError(t, NewGraphGenerator().WriteFile(context.Background(), "Gym", sampleBoard(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Lead")
}
