// ABOUTME: Graphviz rendering of a pipeline board
// ABOUTME: Stages become a left-to-right chain of nodes labelled with their aggregates
package viz

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

// GraphGenerator draws pipeline graphs. Set ShowDeals to hang each deal off
// its stage.
type GraphGenerator struct {
	ShowDeals bool
}

func NewGraphGenerator() *GraphGenerator {
	return &GraphGenerator{}
}

// PipelineDOT returns the board as DOT source.
func (g *GraphGenerator) PipelineDOT(ctx context.Context, name string, b *board.Board) (string, error) {
	var buf bytes.Buffer
	if err := g.render(ctx, name, b, func(gv *graphviz.Graphviz, graph *cgraph.Graph) error {
		return gv.Render(ctx, graph, graphviz.XDOT, &buf)
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteFile renders the board to path. The format follows the extension:
// .png, .svg or .jpg, anything else is DOT.
func (g *GraphGenerator) WriteFile(ctx context.Context, name string, b *board.Board, path string) error {
	format := graphviz.XDOT
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = graphviz.PNG
	case ".svg":
		format = graphviz.SVG
	case ".jpg", ".jpeg":
		format = graphviz.JPG
	}
	return g.render(ctx, name, b, func(gv *graphviz.Graphviz, graph *cgraph.Graph) error {
		return gv.RenderFilename(ctx, graph, format, path)
	})
}

func (g *GraphGenerator) render(ctx context.Context, name string, b *board.Board, out func(*graphviz.Graphviz, *cgraph.Graph) error) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel(name)
	graph.SetRankDir(cgraph.LRRank)

	var prev *cgraph.Node
	for i, col := range b.Columns {
		node, err := graph.CreateNodeByName(fmt.Sprintf("stage_%d", i))
		if err != nil {
			return fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(stageNodeLabel(col))
		node.SetShape("box")
		node.SetStyle("filled,rounded")
		node.SetFillColor(stageFill(col.Stage))

		// Won and lost stages end the chain; they hang off the last open stage.
		if prev != nil {
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("flow_%d", i), prev, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			if col.Stage.IsLost {
				edge.SetStyle("dashed")
			}
		}
		if !col.Stage.IsWon && !col.Stage.IsLost {
			prev = node
		}

		if !g.ShowDeals {
			continue
		}
		for _, d := range col.Deals {
			dn, err := graph.CreateNodeByName("deal_" + d.ID.String()[:8])
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			dn.SetLabel(dealNodeLabel(d))
			dn.SetShape("note")
			if _, err := graph.CreateEdgeByName("in_"+d.ID.String()[:8], node, dn); err != nil {
				return fmt.Errorf("failed to create deal edge: %w", err)
			}
		}
	}

	if err := out(gv, graph); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}
	return nil
}

func stageNodeLabel(col board.Column) string {
	a := col.Aggregate
	return fmt.Sprintf("%s\n%d deals\n%s\n%.0f%% avg", col.Stage.Name, a.Count, models.FormatMoney(a.TotalValue), a.MeanWinProbability)
}

func dealNodeLabel(d models.Deal) string {
	if d.Value == nil {
		return d.Title
	}
	return fmt.Sprintf("%s\n%s", d.Title, models.FormatMoney(*d.Value))
}

func stageFill(s models.Stage) string {
	switch {
	case s.IsWon:
		return "palegreen"
	case s.IsLost:
		return "mistyrose"
	case s.Color != "":
		return s.Color
	}
	return "lightblue"
}
