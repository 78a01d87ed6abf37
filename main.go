// ABOUTME: Entry point for the pipeboard CLI, board and MCP server
// ABOUTME: Routes to the interactive board, CRM commands or servers based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/charm"
	"github.com/harperreed/pipeboard/cli"
	"github.com/harperreed/pipeboard/config"
	"github.com/harperreed/pipeboard/logging"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", cfg.DBPath, "Database path")
	backend := flag.String("backend", cfg.Backend, "Storage backend: sqlite or charm")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("pipeboard version %s\n", version)
		os.Exit(0)
	}

	cfg.DBPath, cfg.Backend = *dbPath, *backend
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	// Get remaining args after flags
	args := flag.Args()

	// If no command specified, show usage
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, command string, args []string) error {
	// Sync talks to charm directly and needs no store.
	if command == "sync" {
		return charm.SyncCommand(args)
	}

	switch command {
	case "board", "crm", "seed", "viz", "dashboard", "web", "mcp":
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	be, err := cli.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	switch command {
	case "board":
		return cli.BoardCommand(ctx, be, cfg, args)
	case "crm":
		return runCRM(ctx, be, args)
	case "seed":
		return cli.SeedCommand(ctx, be.Store, args)
	case "viz":
		if len(args) == 0 || args[0] != "pipeline" {
			fmt.Println("Error: viz requires a subcommand (pipeline)")
			printUsage()
			os.Exit(1)
		}
		return cli.VizPipelineCommand(ctx, be.Catalog, args[1:])
	case "dashboard":
		return cli.DashboardCommand(ctx, be.Catalog, args)
	case "web":
		return cli.WebCommand(ctx, be.Catalog, cfg.WebPort, args)
	case "mcp":
		return cli.MCPCommand(ctx, be.Catalog, version)
	}
	return nil
}

func runCRM(ctx context.Context, be *cli.Backend, args []string) error {
	if len(args) == 0 {
		fmt.Println("Error: crm requires a subcommand")
		printUsage()
		os.Exit(1)
	}

	crmCommand := args[0]
	crmArgs := args[1:]

	switch crmCommand {
	// Pipeline commands
	case "add-pipeline":
		return cli.AddPipelineCommand(ctx, be.Store, crmArgs)
	case "list-pipelines":
		return cli.ListPipelinesCommand(ctx, be.Store, crmArgs)

	// Stage commands
	case "add-stage":
		return cli.AddStageCommand(ctx, be.Store, crmArgs)
	case "list-stages":
		return cli.ListStagesCommand(ctx, be.Store, crmArgs)

	// Deal commands
	case "add-deal":
		return cli.AddDealCommand(ctx, be.Store, crmArgs)
	case "list-deals":
		return cli.ListDealsCommand(ctx, be.Store, crmArgs)
	case "move-deal":
		return cli.MoveDealCommand(ctx, be.Store, be.Catalog, crmArgs)
	case "delete-deal":
		return cli.DeleteDealCommand(ctx, be.Store, crmArgs)

	default:
		fmt.Printf("Unknown crm command: %s\n\n", crmCommand)
		printUsage()
		os.Exit(1)
	}
	return nil
}

func printUsage() {
	fmt.Printf(`pipeboard v%s - Sales pipeline board

USAGE:
  pipeboard [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/pipeboard/pipeboard.db)
  --backend <name>       Storage backend: sqlite or charm (default: sqlite)

COMMANDS:
  board                  Interactive pipeline board (drag deals between stages)
  crm                    Pipeline, stage and deal management
  seed                   Create the demo gym-membership pipeline
  viz pipeline           GraphViz pipeline graph
  dashboard              Pipeline totals and weighted forecast
  web                    Read-only web board
  mcp                    Start MCP server for Claude Desktop
  sync                   Charm KV sync

BOARD:
  pipeboard board [--pipeline <name|id>] [--text]
    mouse: drag a card onto another stage, click to open it
    keys:  h/l/j/k move focus, space picks up and places, esc cancels,
           enter opens, g shows the graph, r reloads, q quits

CRM COMMANDS:
  pipeboard crm add-pipeline --name <name>
  pipeboard crm list-pipelines
  pipeboard crm add-stage --pipeline <p> --name <name> [--color c] [--order n] [--won|--lost]
  pipeboard crm list-stages [--pipeline <p>]
  pipeboard crm add-deal [--pipeline <p>] [--stage <s>] --title <t>
                         [--value 12.50] [--probability 40] [--close 2026-11-01]
                         [--prospect-name n] [--prospect-email e] [--prospect-phone p]
                         [--tags a,b]
  pipeboard crm list-deals [--pipeline <p>]
  pipeboard crm move-deal <deal-id> <stage-id|stage-name>
  pipeboard crm delete-deal <deal-id>

OTHER COMMANDS:
  pipeboard viz pipeline [--pipeline <p>] [--output file] [--deals]
  pipeboard dashboard [--pipeline <p>]
  pipeboard web [--port 8080]
  pipeboard sync link|status|now|auto|wipe

ENVIRONMENT:
  PIPEBOARD_* variables (or a .env file) configure the database, backend,
  drag threshold, move timeout and retries, logging and PIPEBOARD_REDIS_URL
  for live updates between sessions.
`, version)
}
