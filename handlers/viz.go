// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph and pipeline_dashboard tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/viz"
)

type VizHandlers struct {
	store board.Catalog
}

func NewVizHandlers(store board.Catalog) *VizHandlers {
	return &VizHandlers{store: store}
}

type GenerateGraphInput struct {
	Pipeline  string `json:"pipeline,omitempty" jsonschema:"Pipeline name or id (default: the first pipeline)"`
	ShowDeals bool   `json:"show_deals,omitempty" jsonschema:"Include a node per deal"`
}

type GenerateGraphOutput struct {
	Pipeline  string `json:"pipeline"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	p, b, err := loadBoard(ctx, h.store, input.Pipeline)
	if err != nil {
		return nil, GenerateGraphOutput{}, err
	}

	generator := viz.NewGraphGenerator()
	generator.ShowDeals = input.ShowDeals
	dot, err := generator.PipelineDOT(ctx, p.Name, b)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := len(b.Columns)
	if input.ShowDeals {
		for _, col := range b.Columns {
			nodeCount += len(col.Deals)
		}
	}
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		Pipeline:  p.Name,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}

type DashboardInput struct {
	Pipeline string `json:"pipeline,omitempty" jsonschema:"Pipeline name or id (default: the first pipeline)"`
}

type DashboardOutput struct {
	Pipeline   string `json:"pipeline"`
	TotalDeals int    `json:"total_deals"`
	OpenValue  string `json:"open_value"`
	Forecast   string `json:"forecast"`
	WonValue   string `json:"won_value"`
	LostValue  string `json:"lost_value"`
	Orphans    int    `json:"orphans"`
	Text       string `json:"text"`
}

func (h *VizHandlers) Dashboard(ctx context.Context, _ *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	p, b, err := loadBoard(ctx, h.store, input.Pipeline)
	if err != nil {
		return nil, DashboardOutput{}, err
	}

	stats := viz.GenerateDashboardStats(p.Name, b)
	return nil, DashboardOutput{
		Pipeline:   p.Name,
		TotalDeals: stats.TotalDeals,
		OpenValue:  stats.OpenValue.StringFixed(2),
		Forecast:   stats.Forecast.StringFixed(2),
		WonValue:   stats.WonValue.StringFixed(2),
		LostValue:  stats.LostValue.StringFixed(2),
		Orphans:    stats.Orphans,
		Text:       viz.RenderDashboard(stats),
	}, nil
}
