// ABOUTME: Pipeline board MCP tool handlers
// ABOUTME: Implements list_pipelines, get_board and move_deal tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

type BoardHandlers struct {
	store board.Catalog
}

func NewBoardHandlers(store board.Catalog) *BoardHandlers {
	return &BoardHandlers{store: store}
}

type PipelineOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type DealOutput struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	StageID           string   `json:"stage_id"`
	Value             string   `json:"value,omitempty"`
	WinProbability    int      `json:"win_probability"`
	ExpectedCloseDate *string  `json:"expected_close_date,omitempty"`
	Prospect          string   `json:"prospect,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

type ColumnOutput struct {
	StageID            string       `json:"stage_id"`
	Name               string       `json:"name"`
	IsWon              bool         `json:"is_won,omitempty"`
	IsLost             bool         `json:"is_lost,omitempty"`
	Count              int          `json:"count"`
	TotalValue         string       `json:"total_value"`
	MeanWinProbability float64      `json:"mean_win_probability"`
	Deals              []DealOutput `json:"deals"`
}

type BoardOutput struct {
	Pipeline PipelineOutput `json:"pipeline"`
	Columns  []ColumnOutput `json:"columns"`
	// Orphans reference a stage that is not in the pipeline.
	Orphans []DealOutput `json:"orphans,omitempty"`
}

type ListPipelinesInput struct{}

type ListPipelinesOutput struct {
	Pipelines []PipelineOutput `json:"pipelines"`
}

func (h *BoardHandlers) ListPipelines(ctx context.Context, _ *mcp.CallToolRequest, _ ListPipelinesInput) (*mcp.CallToolResult, ListPipelinesOutput, error) {
	pipelines, err := h.store.ListPipelines(ctx)
	if err != nil {
		return nil, ListPipelinesOutput{}, fmt.Errorf("failed to list pipelines: %w", err)
	}

	out := ListPipelinesOutput{Pipelines: make([]PipelineOutput, 0, len(pipelines))}
	for _, p := range pipelines {
		out.Pipelines = append(out.Pipelines, pipelineToOutput(p))
	}
	return nil, out, nil
}

type GetBoardInput struct {
	Pipeline string `json:"pipeline,omitempty" jsonschema:"Pipeline name or id (default: the first pipeline)"`
}

func (h *BoardHandlers) GetBoard(ctx context.Context, _ *mcp.CallToolRequest, input GetBoardInput) (*mcp.CallToolResult, BoardOutput, error) {
	p, b, err := loadBoard(ctx, h.store, input.Pipeline)
	if err != nil {
		return nil, BoardOutput{}, err
	}
	return nil, boardToOutput(p, b), nil
}

type MoveDealInput struct {
	DealID   string `json:"deal_id" jsonschema:"UUID of the deal to move (required)"`
	Stage    string `json:"stage" jsonschema:"Target stage id or name (required)"`
	Pipeline string `json:"pipeline,omitempty" jsonschema:"Pipeline name or id (default: the first pipeline)"`
}

type MoveDealOutput struct {
	DealID    string `json:"deal_id"`
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	Moved     bool   `json:"moved"`
}

func (h *BoardHandlers) MoveDeal(ctx context.Context, _ *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, MoveDealOutput, error) {
	if input.DealID == "" {
		return nil, MoveDealOutput{}, fmt.Errorf("deal_id is required")
	}
	if input.Stage == "" {
		return nil, MoveDealOutput{}, fmt.Errorf("stage is required")
	}
	dealID, err := uuid.Parse(input.DealID)
	if err != nil {
		return nil, MoveDealOutput{}, fmt.Errorf("invalid deal_id: %w", err)
	}

	_, b, err := loadBoard(ctx, h.store, input.Pipeline)
	if err != nil {
		return nil, MoveDealOutput{}, err
	}

	target, ok := findColumn(b, input.Stage)
	if !ok {
		return nil, MoveDealOutput{}, fmt.Errorf("stage %q: %w", input.Stage, models.ErrNotFound)
	}

	from, ok := b.StageOf(dealID)
	if !ok {
		return nil, MoveDealOutput{}, fmt.Errorf("deal %s is not on this board: %w", dealID, models.ErrNotFound)
	}
	fromName := from.String()
	if col, ok := b.Column(from); ok {
		fromName = col.Stage.Name
	}

	out := MoveDealOutput{DealID: dealID.String(), FromStage: fromName, ToStage: target.Stage.Name}
	if from == target.Stage.ID {
		return nil, out, nil
	}

	if err := h.store.MoveDeal(ctx, dealID, target.Stage.ID); err != nil {
		return nil, MoveDealOutput{}, fmt.Errorf("failed to move deal: %w", err)
	}
	log.WithFields(log.Fields{"deal": dealID, "stage": target.Stage.ID}).Info("deal moved via mcp")

	out.Moved = true
	return nil, out, nil
}

func loadBoard(ctx context.Context, store board.Catalog, ref string) (models.Pipeline, *board.Board, error) {
	p, err := board.FindPipeline(ctx, store, ref)
	if err != nil {
		return models.Pipeline{}, nil, err
	}
	stages, deals, err := board.Fetch(ctx, store, p.ID)
	if err != nil {
		return models.Pipeline{}, nil, err
	}
	return p, board.Build(stages, deals), nil
}

// findColumn matches ref against stage ids first, then names.
func findColumn(b *board.Board, ref string) (board.Column, bool) {
	if id, err := uuid.Parse(ref); err == nil {
		if col, ok := b.Column(id); ok {
			return *col, true
		}
	}
	for _, col := range b.Columns {
		if strings.EqualFold(col.Stage.Name, ref) {
			return col, true
		}
	}
	return board.Column{}, false
}

func pipelineToOutput(p models.Pipeline) PipelineOutput {
	return PipelineOutput{
		ID:        p.ID.String(),
		Name:      p.Name,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func boardToOutput(p models.Pipeline, b *board.Board) BoardOutput {
	out := BoardOutput{
		Pipeline: pipelineToOutput(p),
		Columns:  make([]ColumnOutput, 0, len(b.Columns)),
	}
	for _, col := range b.Columns {
		c := ColumnOutput{
			StageID:            col.Stage.ID.String(),
			Name:               col.Stage.Name,
			IsWon:              col.Stage.IsWon,
			IsLost:             col.Stage.IsLost,
			Count:              col.Aggregate.Count,
			TotalValue:         col.Aggregate.TotalValue.StringFixed(2),
			MeanWinProbability: col.Aggregate.MeanWinProbability,
			Deals:              make([]DealOutput, 0, len(col.Deals)),
		}
		for _, d := range col.Deals {
			c.Deals = append(c.Deals, dealToOutput(d))
		}
		out.Columns = append(out.Columns, c)
	}
	for _, d := range b.Orphans {
		out.Orphans = append(out.Orphans, dealToOutput(d))
	}
	return out
}

func dealToOutput(d models.Deal) DealOutput {
	out := DealOutput{
		ID:             d.ID.String(),
		Title:          d.Title,
		StageID:        d.StageID.String(),
		WinProbability: d.WinProbability,
		Tags:           d.Tags,
	}
	if d.Value != nil {
		out.Value = d.Value.StringFixed(2)
	}
	if d.ExpectedCloseDate != nil {
		s := d.ExpectedCloseDate.Format("2006-01-02")
		out.ExpectedCloseDate = &s
	}
	if d.Prospect != nil {
		out.Prospect = d.Prospect.Name
	}
	return out
}
