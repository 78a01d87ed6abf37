// ABOUTME: Board CLI command
// ABOUTME: Opens the interactive board, or prints it as text when stdout is not a terminal
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/config"
	"github.com/harperreed/pipeboard/logging"
	"github.com/harperreed/pipeboard/models"
	"github.com/harperreed/pipeboard/notify"
	"github.com/harperreed/pipeboard/tui"
)

// BoardCommand shows a pipeline board.
func BoardCommand(ctx context.Context, be *Backend, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("board", flag.ExitOnError)
	pipelineRef := fs.String("pipeline", cfg.Pipeline, "Pipeline name or ID (default: first pipeline)")
	text := fs.Bool("text", false, "Print the board instead of opening the interactive view")
	_ = fs.Parse(args)

	p, err := board.FindPipeline(ctx, be.Catalog, *pipelineRef)
	if errors.Is(err, models.ErrNotFound) && *pipelineRef == "" {
		return fmt.Errorf("no pipelines yet; run 'pipeboard seed' or 'pipeboard crm add-pipeline'")
	}
	if err != nil {
		return err
	}

	if *text || !term.IsTerminal(int(os.Stdout.Fd())) {
		stages, deals, err := board.Fetch(ctx, be.Catalog, p.ID)
		if err != nil {
			return err
		}
		PrintBoard(stdout, p, board.Build(stages, deals))
		return nil
	}

	// stdout belongs to the board from here on.
	closer, err := logging.ToFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := tui.Options{Board: BoardOptions(cfg)}
	if be.Redis != nil {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		events := make(chan notify.Event, 16)
		go notify.Subscribe(subCtx, be.Redis, be.Publisher.Channel(), func(ev notify.Event) {
			select {
			case events <- ev:
			default:
				log.WithField("deal", ev.DealID).Warn("board event dropped, reload already queued")
			}
		})
		opts.Events = events
		opts.Source = be.Publisher.Source()
	}

	log.WithFields(log.Fields{"pipeline": p.Name, "backend": cfg.Backend}).Info("opening board")
	prog := tea.NewProgram(
		tui.NewModel(ctx, be.Catalog, p, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("board exited: %w", err)
	}
	return nil
}

// BoardOptions maps configuration onto gesture and move settings.
func BoardOptions(cfg config.Config) tui.BoardOptions {
	return tui.BoardOptions{
		Gesture: board.GestureConfig{
			Threshold: cfg.DragThreshold,
			Reach:     cfg.DropReach,
		},
		Controller: board.ControllerConfig{
			Timeout: cfg.MoveTimeout,
			Retry: board.RetryPolicy{
				MaxAttempts: cfg.MoveAttempts,
				Backoff:     cfg.RetryBackoff,
			},
		},
	}
}

// PrintBoard writes a plain-text rendering of b, one stage per block.
func PrintBoard(w io.Writer, p models.Pipeline, b *board.Board) {
	fmt.Fprintf(w, "%s\n%s\n", p.Name, strings.Repeat("=", len([]rune(p.Name))))
	if len(b.Columns) == 0 {
		fmt.Fprintln(w, "\nThis pipeline has no stages.")
		return
	}

	for _, col := range b.Columns {
		a := col.Aggregate
		marker := ""
		switch {
		case col.Stage.IsWon:
			marker = " ✓"
		case col.Stage.IsLost:
			marker = " ✗"
		}
		fmt.Fprintf(w, "\n%s%s  (%d · %s · %.0f%%)\n", col.Stage.Name, marker, a.Count, models.FormatMoney(a.TotalValue), a.MeanWinProbability)
		for _, d := range col.Deals {
			value := "-"
			if d.Value != nil {
				value = models.FormatMoney(*d.Value)
			}
			fmt.Fprintf(w, "  • %s  %s  %d%%  [%s]\n", d.Title, value, d.WinProbability, d.ID.String()[:8])
		}
	}

	if n := len(b.Orphans); n > 0 {
		fmt.Fprintf(w, "\n⚠️  %d deal(s) reference unknown stages and are hidden\n", n)
	}
}
