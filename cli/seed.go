// ABOUTME: Seed CLI command
// ABOUTME: Creates the demo gym-membership pipeline in the configured store
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/pipeboard/db"
)

// SeedCommand creates the demo pipeline.
func SeedCommand(ctx context.Context, s Store, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	_ = fs.Parse(args)

	p, err := db.SeedDemo(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Demo pipeline created: %s (ID: %s)\n", p.Name, p.ID)
	fmt.Fprintln(stdout, "  Open it with: pipeboard board")
	return nil
}
