// ABOUTME: Pipeline, stage and deal CLI commands
// ABOUTME: Human-friendly commands for managing the data behind the board
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

// AddPipelineCommand creates a pipeline.
func AddPipelineCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("add-pipeline", flag.ExitOnError)
	name := fs.String("name", "", "Pipeline name (required)")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	p := &models.Pipeline{Name: *name}
	if err := s.CreatePipeline(ctx, p); err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Pipeline created: %s (ID: %s)\n", p.Name, p.ID)
	return nil
}

// ListPipelinesCommand lists all pipelines.
func ListPipelinesCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("list-pipelines", flag.ExitOnError)
	_ = fs.Parse(args)

	pipelines, err := s.ListPipelines(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pipelines: %w", err)
	}
	if len(pipelines) == 0 {
		fmt.Fprintln(stdout, "No pipelines found")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCREATED\tID")
	_, _ = fmt.Fprintln(w, "----\t-------\t--")
	for _, p := range pipelines {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.CreatedAt.Format("2006-01-02"), p.ID)
	}
	return w.Flush()
}

// AddStageCommand adds a stage to a pipeline.
func AddStageCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("add-stage", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", "", "Pipeline name or ID (required)")
	name := fs.String("name", "", "Stage name (required)")
	color := fs.String("color", "", "Display color")
	order := fs.Int("order", 0, "Position on the board (lower is further left)")
	won := fs.Bool("won", false, "Deals here are won")
	lost := fs.Bool("lost", false, "Deals here are lost")
	_ = fs.Parse(args)

	if *pipelineRef == "" {
		return fmt.Errorf("--pipeline is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	p, err := board.FindPipeline(ctx, s, *pipelineRef)
	if err != nil {
		return err
	}

	st := &models.Stage{
		PipelineID: p.ID,
		Name:       *name,
		Color:      *color,
		OrderIndex: *order,
		IsWon:      *won,
		IsLost:     *lost,
	}
	if err := s.CreateStage(ctx, st); err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Stage created: %s (ID: %s)\n", st.Name, st.ID)
	fmt.Fprintf(stdout, "  Pipeline: %s\n", p.Name)
	return nil
}

// ListStagesCommand lists a pipeline's stages in board order.
func ListStagesCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("list-stages", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", "", "Pipeline name or ID (default: first pipeline)")
	_ = fs.Parse(args)

	p, err := board.FindPipeline(ctx, s, *pipelineRef)
	if err != nil {
		return err
	}
	stages, err := s.ListStages(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}
	if len(stages) == 0 {
		fmt.Fprintf(stdout, "No stages in %s\n", p.Name)
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ORDER\tNAME\tOUTCOME\tID")
	_, _ = fmt.Fprintln(w, "-----\t----\t-------\t--")
	for _, st := range stages {
		outcome := "-"
		switch {
		case st.IsWon:
			outcome = "won"
		case st.IsLost:
			outcome = "lost"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.OrderIndex, st.Name, outcome, st.ID)
	}
	return w.Flush()
}

// AddDealCommand adds a deal to a stage.
func AddDealCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", "", "Pipeline name or ID (default: first pipeline)")
	stageRef := fs.String("stage", "", "Stage name or ID (default: first stage)")
	title := fs.String("title", "", "Deal title (required)")
	value := fs.String("value", "", "Deal value, e.g. 1200 or 49.99")
	probability := fs.Int("probability", 0, "Win probability 0-100")
	closeDate := fs.String("close", "", "Expected close date (YYYY-MM-DD)")
	prospectName := fs.String("prospect-name", "", "Prospect name")
	prospectEmail := fs.String("prospect-email", "", "Prospect email")
	prospectPhone := fs.String("prospect-phone", "", "Prospect phone")
	tags := fs.String("tags", "", "Comma-separated tags")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	p, err := board.FindPipeline(ctx, s, *pipelineRef)
	if err != nil {
		return err
	}
	stages, err := s.ListStages(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}
	if len(stages) == 0 {
		return fmt.Errorf("pipeline %s has no stages; add one with 'crm add-stage'", p.Name)
	}
	stage := stages[0]
	if *stageRef != "" {
		if stage, err = resolveStage(stages, *stageRef); err != nil {
			return err
		}
	}

	deal := &models.Deal{
		PipelineID:     p.ID,
		StageID:        stage.ID,
		Title:          *title,
		WinProbability: *probability,
	}
	if *value != "" {
		v, err := decimal.NewFromString(*value)
		if err != nil {
			return fmt.Errorf("invalid --value: %w", err)
		}
		deal.Value = &v
	}
	if *closeDate != "" {
		d, err := time.Parse("2006-01-02", *closeDate)
		if err != nil {
			return fmt.Errorf("invalid --close (use YYYY-MM-DD): %w", err)
		}
		deal.ExpectedCloseDate = &d
	}
	if *prospectName != "" || *prospectEmail != "" || *prospectPhone != "" {
		deal.Prospect = &models.ProspectRef{Name: *prospectName, Email: *prospectEmail, Phone: *prospectPhone}
	}
	if *tags != "" {
		for _, t := range strings.Split(*tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				deal.Tags = append(deal.Tags, t)
			}
		}
	}

	if err := s.CreateDeal(ctx, deal); err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Deal created: %s (ID: %s)\n", deal.Title, deal.ID)
	fmt.Fprintf(stdout, "  Stage: %s\n", stage.Name)
	if deal.Value != nil {
		fmt.Fprintf(stdout, "  Value: %s\n", models.FormatMoney(*deal.Value))
	}
	fmt.Fprintf(stdout, "  Win probability: %d%%\n", deal.WinProbability)
	return nil
}

// ListDealsCommand lists a pipeline's deals.
func ListDealsCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("list-deals", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", "", "Pipeline name or ID (default: first pipeline)")
	_ = fs.Parse(args)

	p, err := board.FindPipeline(ctx, s, *pipelineRef)
	if err != nil {
		return err
	}
	stages, deals, err := board.Fetch(ctx, s, p.ID)
	if err != nil {
		return err
	}
	if len(deals) == 0 {
		fmt.Fprintln(stdout, "No deals found")
		return nil
	}

	names := make(map[uuid.UUID]string, len(stages))
	for _, st := range stages {
		names[st.ID] = st.Name
	}

	// Pretty print results
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tSTAGE\tVALUE\tPROB\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t----\t--")

	var total decimal.Decimal
	for _, d := range deals {
		stage, ok := names[d.StageID]
		if !ok {
			stage = "(unknown)"
		}
		value := "-"
		if d.Value != nil {
			value = models.FormatMoney(*d.Value)
			total = total.Add(*d.Value)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\n", d.Title, stage, value, d.WinProbability, d.ID.String()[:8])
	}
	_ = w.Flush()

	fmt.Fprintf(stdout, "\nTotal: %d deal(s) - %s\n", len(deals), models.FormatMoney(total))
	return nil
}

// MoveDealCommand moves a deal to another stage of its pipeline. The move
// goes through mover so it is published like a board move.
func MoveDealCommand(ctx context.Context, s Store, mover board.Mover, args []string) error {
	fs := flag.NewFlagSet("move-deal", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: move-deal <deal-id> <stage-id|stage-name>")
	}
	dealID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid deal ID: %w", err)
	}

	deal, err := s.GetDeal(ctx, dealID)
	if err != nil {
		return err
	}
	stages, err := s.ListStages(ctx, deal.PipelineID)
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}
	target, err := resolveStage(stages, fs.Arg(1))
	if err != nil {
		return err
	}
	if target.ID == deal.StageID {
		fmt.Fprintf(stdout, "%s is already in %s\n", deal.Title, target.Name)
		return nil
	}

	if err := mover.MoveDeal(ctx, dealID, target.ID); err != nil {
		return fmt.Errorf("failed to move deal: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Moved %s to %s\n", deal.Title, target.Name)
	return nil
}

// DeleteDealCommand deletes a deal.
func DeleteDealCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("delete-deal", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) != 1 {
		return fmt.Errorf("usage: delete-deal <id>")
	}

	dealID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid deal ID: %w", err)
	}

	if err := s.DeleteDeal(ctx, dealID); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✓ Deleted deal: %s\n", dealID)
	return nil
}

func resolveStage(stages []models.Stage, ref string) (models.Stage, error) {
	if id, err := uuid.Parse(ref); err == nil {
		for _, st := range stages {
			if st.ID == id {
				return st, nil
			}
		}
	}
	for _, st := range stages {
		if strings.EqualFold(st.Name, ref) {
			return st, nil
		}
	}
	return models.Stage{}, fmt.Errorf("stage %q: %w", ref, models.ErrNotFound)
}
