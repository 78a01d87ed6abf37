// ABOUTME: Web CLI command
// ABOUTME: Serves the read-only board until interrupted
package cli

import (
	"context"
	"flag"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/web"
)

// WebCommand starts the web UI.
func WebCommand(ctx context.Context, catalog board.Catalog, defaultPort int, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	port := fs.Int("port", defaultPort, "Port to listen on")
	_ = fs.Parse(args)

	server, err := web.NewServer(catalog)
	if err != nil {
		return err
	}
	return server.Start(ctx, *port)
}
