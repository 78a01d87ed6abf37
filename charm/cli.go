// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: SSH-key based linking, status, manual sync, auto-sync toggle and wipe

package charm

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// SyncCommand dispatches "pipeboard sync <subcommand>".
func SyncCommand(args []string) error {
	if len(args) == 0 {
		printSyncUsage(os.Stdout)
		return nil
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "link":
		return syncLink(rest)
	case "status":
		return syncStatus(rest)
	case "now":
		return syncNow(rest)
	case "auto":
		return syncAuto(rest)
	case "wipe":
		return syncWipe(rest)
	default:
		printSyncUsage(os.Stderr)
		return fmt.Errorf("unknown sync subcommand: %s", sub)
	}
}

func printSyncUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pipeboard sync <link|status|now|auto|wipe>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  link                      Link this device via its SSH key")
	fmt.Fprintln(w, "  status                    Show server, account and key count")
	fmt.Fprintln(w, "  now [--verbose]           Sync immediately")
	fmt.Fprintln(w, "  auto --enable|--disable   Toggle sync after every write")
	fmt.Fprintln(w, "  wipe --confirm            Delete all local board data")
}

func syncLink(args []string) error {
	fs := flag.NewFlagSet("sync link", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	cfg := c.Config()

	fmt.Printf("Linking to Charm (%s)...\n\n", cfg.Host)
	fmt.Println("Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if id, err := c.ID(); err != nil {
		fmt.Println("✓ Device linked (ID unavailable)")
	} else {
		fmt.Printf("✓ Linked to account: %s\n", id)
	}
	fmt.Printf("✓ Auto-sync: %v\n", cfg.AutoSync)

	return nil
}

func syncStatus(args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Charm Sync Status")
	fmt.Println("─────────────────")
	fmt.Printf("Server:    %s\n", cfg.Host)
	fmt.Printf("Auto-sync: %v\n", cfg.AutoSync)
	fmt.Printf("Stale:     %s\n", cfg.StaleThreshold)

	c, err := GetClient()
	if err != nil {
		fmt.Println("\nStatus: Not connected")
		return nil //nolint:nilerr // not connected is a valid state
	}

	if id, err := c.ID(); err != nil {
		fmt.Println("\nStatus: Connected (ID unavailable)")
	} else {
		fmt.Println("\nStatus: Connected")
		fmt.Printf("ID:        %s\n", id)
	}

	for _, prefix := range []string{pipelinePrefix, stagePrefix, dealPrefix} {
		keys, err := c.KeysWithPrefix([]byte(prefix))
		if err == nil {
			fmt.Printf("%-10s %d\n", prefix, len(keys))
		}
	}

	return nil
}

func syncNow(args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	if *verbose {
		fmt.Println("Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Println("✓ Synced")

	return nil
}

func syncAuto(args []string) error {
	fs := flag.NewFlagSet("sync auto", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	_ = fs.Parse(args)

	if *enable == *disable {
		return fmt.Errorf("usage: pipeboard sync auto --enable|--disable")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to save auto-sync: %w", err)
	}
	fmt.Printf("✓ Auto-sync %v\n", *enable)

	return nil
}

func syncWipe(args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This will delete ALL local board data!")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  pipeboard sync wipe --confirm")
		return nil
	}

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Println("✓ All data wiped")

	return nil
}
