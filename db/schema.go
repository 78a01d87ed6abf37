// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation for pipelines, stages, deals, tags and migration tracking
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipelines (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_pipelines_name ON pipelines(name);

CREATE TABLE IF NOT EXISTS stages (
	id TEXT PRIMARY KEY,
	pipeline_id TEXT NOT NULL,
	name TEXT NOT NULL,
	color TEXT,
	is_won INTEGER NOT NULL DEFAULT 0,
	is_lost INTEGER NOT NULL DEFAULT 0,
	order_index INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	CHECK (NOT (is_won AND is_lost)),
	FOREIGN KEY (pipeline_id) REFERENCES pipelines(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_stages_pipeline ON stages(pipeline_id, order_index);

CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	pipeline_id TEXT NOT NULL,
	title TEXT NOT NULL,
	stage_id TEXT NOT NULL,
	value TEXT,
	win_probability INTEGER NOT NULL DEFAULT 0 CHECK (win_probability BETWEEN 0 AND 100),
	expected_close_date DATE,
	prospect_name TEXT,
	prospect_email TEXT,
	prospect_phone TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (pipeline_id) REFERENCES pipelines(id) ON DELETE CASCADE,
	FOREIGN KEY (stage_id) REFERENCES stages(id)
);

CREATE INDEX IF NOT EXISTS idx_deals_pipeline ON deals(pipeline_id);
CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage_id);

CREATE TABLE IF NOT EXISTS deal_tags (
	deal_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (deal_id, position),
	FOREIGN KEY (deal_id) REFERENCES deals(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS migration_state (
	target TEXT PRIMARY KEY,
	last_run_time DATETIME,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS migration_log (
	target TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	migrated_at DATETIME NOT NULL,
	PRIMARY KEY (target, entity_type, entity_id)
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
