// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/handlers"
)

// NewMCPServer registers the pipeline tools, resources and prompts.
func NewMCPServer(catalog board.Catalog, version string) *mcp.Server {
	boardHandlers := handlers.NewBoardHandlers(catalog)
	vizHandlers := handlers.NewVizHandlers(catalog)
	resourceHandlers := handlers.NewResourceHandlers(catalog)
	promptHandlers := handlers.NewPromptHandlers(catalog)

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pipeboard",
		Version: version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pipelines",
		Description: "List all sales pipelines",
	}, boardHandlers.ListPipelines)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_board",
		Description: "Get a pipeline board: stages in order with their deals and aggregates",
	}, boardHandlers.GetBoard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal",
		Description: "Move a deal to another stage of its pipeline, by stage id or name",
	}, boardHandlers.MoveDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of a pipeline",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_dashboard",
		Description: "Summarise a pipeline: open value, weighted forecast, won and lost totals",
	}, vizHandlers.Dashboard)

	// Register resources
	server.AddResource(&mcp.Resource{
		URI:         handlers.PipelinesURI,
		Name:        "pipelines",
		Description: "All pipelines",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.BoardURITemplate,
		Name:        "board",
		Description: "A pipeline board by name or id",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review pipeline health and suggest which deals to move",
		Arguments: []*mcp.PromptArgument{
			{Name: "pipeline", Description: "Pipeline name or id (default: the first pipeline)"},
		},
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, catalog board.Catalog, version string) error {
	log.Info("Starting pipeboard MCP server...")
	return NewMCPServer(catalog, version).Run(ctx, &mcp.StdioTransport{})
}
