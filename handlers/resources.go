// ABOUTME: MCP resource handlers for exposing pipeline data
// ABOUTME: Provides read-only access to the pipeline list and each board via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipeboard/board"
)

const (
	PipelinesURI      = "pipeboard://pipelines"
	BoardURITemplate  = "pipeboard://board/{pipeline}"
	resourceURIScheme = "pipeboard://"
)

type ResourceHandlers struct {
	store board.Catalog
}

func NewResourceHandlers(store board.Catalog) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceURIScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, resourceURIScheme), "/", 2)
	switch parts[0] {
	case "pipelines":
		return h.readPipelines(ctx, uri)
	case "board":
		ref := ""
		if len(parts) == 2 {
			ref = parts[1]
		}
		return h.readBoard(ctx, uri, ref)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readPipelines(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	pipelines, err := h.store.ListPipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pipelines: %w", err)
	}
	out := make([]PipelineOutput, 0, len(pipelines))
	for _, p := range pipelines {
		out = append(out, pipelineToOutput(p))
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readBoard(ctx context.Context, uri, ref string) (*mcp.ReadResourceResult, error) {
	p, b, err := loadBoard(ctx, h.store, ref)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, boardToOutput(p, b))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
