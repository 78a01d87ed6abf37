// ABOUTME: Database operations for migration_state and migration_log tables
// ABOUTME: Tracks which records have been copied to another backend so reruns skip them
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MigrationState is the last known status of copying data to a target backend.
type MigrationState struct {
	Target       string
	LastRunTime  *time.Time
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetMigrationState returns nil when the target has never been migrated to.
func GetMigrationState(ctx context.Context, db *sql.DB, target string) (*MigrationState, error) {
	var state MigrationState
	var lastRun sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT target, last_run_time, status, error_message, created_at, updated_at
		FROM migration_state
		WHERE target = ?
	`, target).Scan(
		&state.Target,
		&lastRun,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get migration state: %w", err)
	}

	if lastRun.Valid {
		state.LastRunTime = &lastRun.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateMigrationStatus records a status change. A nil errorMsg clears any previous error.
// The "done" status also stamps last_run_time.
func UpdateMigrationStatus(ctx context.Context, db *sql.DB, target, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}
	now := time.Now()
	var lastRun sql.NullTime
	if status == "done" {
		lastRun = sql.NullTime{Time: now, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO migration_state (target, last_run_time, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			last_run_time = COALESCE(excluded.last_run_time, migration_state.last_run_time),
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, target, lastRun, status, errorMsgVal, now, now)

	if err != nil {
		return fmt.Errorf("failed to update migration status: %w", err)
	}

	return nil
}

// WasMigrated reports whether an entity has already been copied to target.
func WasMigrated(ctx context.Context, db *sql.DB, target, entityType, entityID string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM migration_log
		WHERE target = ? AND entity_type = ? AND entity_id = ?
	`, target, entityType, entityID).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check migration log: %w", err)
	}

	return count > 0, nil
}

func MarkMigrated(ctx context.Context, db *sql.DB, target, entityType, entityID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO migration_log (target, entity_type, entity_id, migrated_at)
		VALUES (?, ?, ?, ?)
	`, target, entityType, entityID, time.Now())

	if err != nil {
		return fmt.Errorf("failed to write migration log: %w", err)
	}

	return nil
}
