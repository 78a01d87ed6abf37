// ABOUTME: Tests for database opening and shared test helpers
// ABOUTME: Verifies WAL mode, foreign keys and schema creation on disk
package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupPipeline creates a pipeline with Lead/Trial/Won stages.
func setupPipeline(t *testing.T, s *Store) (models.Pipeline, []models.Stage) {
	t.Helper()
	ctx := context.Background()

	p := models.Pipeline{Name: "Sales"}
	require.NoError(t, s.CreatePipeline(ctx, &p))

	var stages []models.Stage
	for i, name := range []string{"Lead", "Trial", "Won"} {
		st := models.Stage{PipelineID: p.ID, Name: name, OrderIndex: (i + 1) * 10, IsWon: name == "Won"}
		require.NoError(t, s.CreateStage(ctx, &st))
		stages = append(stages, st)
	}
	return p, stages
}

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Verify WAL mode
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}
	if fk != 1 {
		t.Error("Expected foreign keys to be enabled")
	}
}
