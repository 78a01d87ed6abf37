// ABOUTME: Tests for the pipeline MCP handlers
// ABOUTME: Runs tools, resources and prompts against a seeded in-memory store
package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/db"
	"github.com/harperreed/pipeboard/models"
)

func setupTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	store := db.NewStore(database)
	_, err = db.SeedDemo(context.Background(), store)
	require.NoError(t, err)
	return store
}

func findDeal(t *testing.T, out BoardOutput, title string) (DealOutput, ColumnOutput) {
	t.Helper()
	for _, col := range out.Columns {
		for _, d := range col.Deals {
			if d.Title == title {
				return d, col
			}
		}
	}
	t.Fatalf("deal %q not on board", title)
	return DealOutput{}, ColumnOutput{}
}

func TestListPipelines(t *testing.T) {
	h := NewBoardHandlers(setupTestStore(t))

	_, out, err := h.ListPipelines(context.Background(), nil, ListPipelinesInput{})
	require.NoError(t, err)
	require.Len(t, out.Pipelines, 1)
	assert.Equal(t, db.DemoPipelineName, out.Pipelines[0].Name)
}

func TestGetBoard(t *testing.T) {
	h := NewBoardHandlers(setupTestStore(t))

	_, out, err := h.GetBoard(context.Background(), nil, GetBoardInput{Pipeline: "gym memberships"})
	require.NoError(t, err)

	require.Len(t, out.Columns, 6)
	assert.Equal(t, "Lead", out.Columns[0].Name)
	assert.Equal(t, 2, out.Columns[0].Count)
	assert.Equal(t, "3600.00", out.Columns[0].TotalValue)
	assert.True(t, out.Columns[4].IsWon)
	assert.True(t, out.Columns[5].IsLost)
	assert.Empty(t, out.Orphans)

	d, _ := findDeal(t, out, "Family plan")
	assert.Equal(t, "2400.00", d.Value)
	assert.Equal(t, []string{"family", "referral"}, d.Tags)
}

func TestGetBoardUnknownPipeline(t *testing.T) {
	h := NewBoardHandlers(setupTestStore(t))

	_, _, err := h.GetBoard(context.Background(), nil, GetBoardInput{Pipeline: "Nope"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMoveDealByStageName(t *testing.T) {
	h := NewBoardHandlers(setupTestStore(t))
	ctx := context.Background()

	_, before, err := h.GetBoard(ctx, nil, GetBoardInput{})
	require.NoError(t, err)
	deal, _ := findDeal(t, before, "Yoga add-on")

	_, out, err := h.MoveDeal(ctx, nil, MoveDealInput{DealID: deal.ID, Stage: "won"})
	require.NoError(t, err)
	assert.True(t, out.Moved)
	assert.Equal(t, "Negotiation", out.FromStage)
	assert.Equal(t, "Won", out.ToStage)

	_, after, err := h.GetBoard(ctx, nil, GetBoardInput{})
	require.NoError(t, err)
	_, col := findDeal(t, after, "Yoga add-on")
	assert.Equal(t, "Won", col.Name)
}

func TestMoveDealToCurrentStageIsNoop(t *testing.T) {
	h := NewBoardHandlers(setupTestStore(t))
	ctx := context.Background()

	_, board, err := h.GetBoard(ctx, nil, GetBoardInput{})
	require.NoError(t, err)
	deal, col := findDeal(t, board, "Student monthly")

	_, out, err := h.MoveDeal(ctx, nil, MoveDealInput{DealID: deal.ID, Stage: col.StageID})
	require.NoError(t, err)
	assert.False(t, out.Moved)
}

func TestMoveDealErrors(t *testing.T) {
	h := NewBoardHandlers(setupTestStore(t))
	ctx := context.Background()

	_, board, err := h.GetBoard(ctx, nil, GetBoardInput{})
	require.NoError(t, err)
	deal, _ := findDeal(t, board, "Student monthly")

	_, _, err = h.MoveDeal(ctx, nil, MoveDealInput{Stage: "Won"})
	assert.Error(t, err)

	_, _, err = h.MoveDeal(ctx, nil, MoveDealInput{DealID: "not-a-uuid", Stage: "Won"})
	assert.Error(t, err)

	_, _, err = h.MoveDeal(ctx, nil, MoveDealInput{DealID: deal.ID, Stage: "Closed"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, _, err = h.MoveDeal(ctx, nil, MoveDealInput{DealID: uuid.NewString(), Stage: "Won"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGenerateGraph(t *testing.T) {
	h := NewVizHandlers(setupTestStore(t))

	_, out, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{ShowDeals: true})
	require.NoError(t, err)
	assert.Equal(t, db.DemoPipelineName, out.Pipeline)
	assert.Contains(t, out.DOTSource, "Negotiation")
	assert.Equal(t, 14, out.NodeCount)
	assert.Positive(t, out.EdgeCount)
}

func TestDashboard(t *testing.T) {
	h := NewVizHandlers(setupTestStore(t))

	_, out, err := h.Dashboard(context.Background(), nil, DashboardInput{})
	require.NoError(t, err)
	assert.Equal(t, 8, out.TotalDeals)
	assert.Equal(t, "1200.00", out.WonValue)
	assert.Equal(t, "90.00", out.LostValue)
	assert.Contains(t, out.Text, "PIPELINE OVERVIEW")
}

func TestReadResources(t *testing.T) {
	h := NewResourceHandlers(setupTestStore(t))
	ctx := context.Background()

	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: PipelinesURI}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var pipelines []PipelineOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &pipelines))
	require.Len(t, pipelines, 1)

	res, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "pipeboard://board/" + pipelines[0].ID}})
	require.NoError(t, err)
	var out BoardOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.Len(t, out.Columns, 6)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://contacts"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "pipeboard://contacts"}})
	assert.Error(t, err)
}

func TestPipelineReviewPrompt(t *testing.T) {
	h := NewPromptHandlers(setupTestStore(t))

	res, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "pipeline-review"}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Corporate wellness")
	assert.Contains(t, text.Text, "Trial Booked: 2 deals")

	_, err = h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "contact-summary"}})
	assert.Error(t, err)
}
