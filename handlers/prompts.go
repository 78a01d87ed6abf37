// ABOUTME: MCP prompt handlers for reusable pipeline review templates
// ABOUTME: Builds prompts from live board aggregates
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

type PromptHandlers struct {
	store board.Catalog
}

func NewPromptHandlers(store board.Catalog) *PromptHandlers {
	return &PromptHandlers{store: store}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "pipeline-review":
		return h.getPipelineReviewPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getPipelineReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	p, b, err := loadBoard(ctx, h.store, args["pipeline"])
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please review the %q sales pipeline:\n\n", p.Name))
	for _, col := range b.Columns {
		a := col.Aggregate
		promptText.WriteString(fmt.Sprintf("  - %s: %d deals, %s, %.0f%% mean win probability\n",
			col.Stage.Name, a.Count, models.FormatMoney(a.TotalValue), a.MeanWinProbability))
		for _, d := range col.Deals {
			promptText.WriteString(fmt.Sprintf("      • %s (%d%%)\n", d.Title, d.WinProbability))
		}
	}
	if n := len(b.Orphans); n > 0 {
		promptText.WriteString(fmt.Sprintf("\n%d deals reference a stage that no longer exists.\n", n))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and distribution")
	promptText.WriteString("\n2. Deals that look stuck and should be moved or closed")
	promptText.WriteString("\n3. Suggestions for improving conversion between stages")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Pipeline review: %s", p.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}
