// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz pipeline graph and dashboard commands
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
	"github.com/harperreed/pipeboard/viz"
)

// VizPipelineCommand generates a graphviz pipeline graph.
func VizPipelineCommand(ctx context.Context, catalog board.Catalog, args []string) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", "", "Pipeline name or ID (default: first pipeline)")
	output := fs.String("output", "", "Output file; .png, .svg or .jpg render an image (default: DOT on stdout)")
	showDeals := fs.Bool("deals", false, "Include a node per deal")

	if err := fs.Parse(args); err != nil {
		return err
	}

	p, b, err := loadBoard(ctx, catalog, *pipelineRef)
	if err != nil {
		return err
	}

	generator := viz.NewGraphGenerator()
	generator.ShowDeals = *showDeals

	if *output != "" {
		if err := generator.WriteFile(ctx, p.Name, b, *output); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✓ Graph written to %s\n", *output)
		return nil
	}

	dot, err := generator.PipelineDOT(ctx, p.Name, b)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, dot)
	return nil
}

// DashboardCommand prints pipeline aggregates.
func DashboardCommand(ctx context.Context, catalog board.Catalog, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", "", "Pipeline name or ID (default: first pipeline)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	p, b, err := loadBoard(ctx, catalog, *pipelineRef)
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, viz.RenderDashboard(viz.GenerateDashboardStats(p.Name, b)))
	return nil
}

func loadBoard(ctx context.Context, catalog board.Catalog, ref string) (models.Pipeline, *board.Board, error) {
	p, err := board.FindPipeline(ctx, catalog, ref)
	if err != nil {
		return models.Pipeline{}, nil, err
	}
	stages, deals, err := board.Fetch(ctx, catalog, p.ID)
	if err != nil {
		return models.Pipeline{}, nil, err
	}
	return p, board.Build(stages, deals), nil
}
