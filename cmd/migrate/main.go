// ABOUTME: Migration utility that copies a pipeline from SQLite into Charm KV
// ABOUTME: Tracks copied records so repeated runs only copy what is new

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/charm"
	"github.com/harperreed/pipeboard/db"
	"github.com/harperreed/pipeboard/logging"
)

const migrationTarget = "charm"

type report struct {
	Pipeline string
	Stages   int
	Deals    int
	Skipped  int
}

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	pipeline := flag.String("pipeline", "", "Pipeline name or ID (default: first pipeline)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before migration")
	flag.Parse()

	logging.Setup(log.InfoLevel)

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}
	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		log.Fatalf("database file does not exist: %s", *dbPath)
	}

	if *backup && !*dryRun {
		if err := backupFile(*dbPath); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
	}

	database, err := db.OpenDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	client, err := charm.GetClient()
	if err != nil {
		log.Fatalf("Failed to open charm store: %v", err)
	}

	ctx := context.Background()
	r, err := migrate(ctx, database, charm.NewStore(client), *pipeline, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	verb := "Copied"
	if *dryRun {
		verb = "Would copy"
	}
	log.Infof("%s pipeline %q: %d stages, %d deals (%d already migrated)", verb, r.Pipeline, r.Stages, r.Deals, r.Skipped)
}

func backupFile(path string) error {
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Infof("Creating backup: %s", backupPath)

	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

// migrate copies one pipeline from database into dst, keeping ids. Records
// already copied by an earlier run are skipped.
func migrate(ctx context.Context, database *sql.DB, dst db.SeedTarget, pipelineRef string, dryRun bool) (r report, err error) {
	src := db.NewStore(database)
	p, err := board.FindPipeline(ctx, src, pipelineRef)
	if err != nil {
		return r, err
	}
	r.Pipeline = p.Name

	stages, deals, err := board.Fetch(ctx, src, p.ID)
	if err != nil {
		return r, err
	}

	if !dryRun {
		if err := db.UpdateMigrationStatus(ctx, database, migrationTarget, "running", nil); err != nil {
			return r, err
		}
		defer func() {
			status := "done"
			var msg *string
			if err != nil {
				status = "error"
				s := err.Error()
				msg = &s
			}
			if uerr := db.UpdateMigrationStatus(ctx, database, migrationTarget, status, msg); uerr != nil {
				err = errors.Join(err, uerr)
			}
		}()
	}

	// copyOnce runs create unless entity was migrated before.
	copyOnce := func(entityType, id string, create func() error) (bool, error) {
		done, err := db.WasMigrated(ctx, database, migrationTarget, entityType, id)
		if err != nil {
			return false, err
		}
		if done {
			r.Skipped++
			return false, nil
		}
		if dryRun {
			return true, nil
		}
		if err := create(); err != nil {
			return false, fmt.Errorf("failed to copy %s %s: %w", entityType, id, err)
		}
		return true, db.MarkMigrated(ctx, database, migrationTarget, entityType, id)
	}

	if _, err := copyOnce("pipeline", p.ID.String(), func() error {
		return dst.CreatePipeline(ctx, &p)
	}); err != nil {
		return r, err
	}

	for i := range stages {
		st := stages[i]
		copied, err := copyOnce("stage", st.ID.String(), func() error {
			return dst.CreateStage(ctx, &st)
		})
		if err != nil {
			return r, err
		}
		if copied {
			r.Stages++
		}
	}

	for i := range deals {
		d := deals[i]
		copied, err := copyOnce("deal", d.ID.String(), func() error {
			return dst.CreateDeal(ctx, &d)
		})
		if err != nil {
			return r, err
		}
		if copied {
			r.Deals++
			log.WithFields(log.Fields{"deal": d.ID, "title": d.Title}).Debug("deal copied")
		}
	}

	return r, nil
}
