// ABOUTME: Pipeline and stage database operations
// ABOUTME: Creates and lists pipelines and their ordered stages
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/pipeboard/models"
)

func (s *Store) CreatePipeline(ctx context.Context, p *models.Pipeline) error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipelines (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, p.ID.String(), p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	return nil
}

func (s *Store) ListPipelines(ctx context.Context) ([]models.Pipeline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM pipelines
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipelines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pipelines []models.Pipeline
	for rows.Next() {
		var p models.Pipeline
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, rows.Err()
}

func (s *Store) GetPipeline(ctx context.Context, id uuid.UUID) (*models.Pipeline, error) {
	var p models.Pipeline
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM pipelines WHERE id = ?
	`, id.String()).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound("pipeline", id.String(), err)
	}
	return &p, nil
}

func (s *Store) CreateStage(ctx context.Context, st *models.Stage) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if _, err := s.GetPipeline(ctx, st.PipelineID); err != nil {
		return err
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := time.Now()
	st.CreatedAt = now
	st.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stages (id, pipeline_id, name, color, is_won, is_lost, order_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, st.ID.String(), st.PipelineID.String(), st.Name, st.Color, st.IsWon, st.IsLost, st.OrderIndex, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}
	return nil
}

const stageColumns = `id, pipeline_id, name, color, is_won, is_lost, order_index, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanStage(row scanner) (models.Stage, error) {
	var st models.Stage
	var color *string
	err := row.Scan(&st.ID, &st.PipelineID, &st.Name, &color, &st.IsWon, &st.IsLost, &st.OrderIndex, &st.CreatedAt, &st.UpdatedAt)
	if color != nil {
		st.Color = *color
	}
	return st, err
}

func (s *Store) ListStages(ctx context.Context, pipelineID uuid.UUID) ([]models.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+stageColumns+`
		FROM stages
		WHERE pipeline_id = ?
		ORDER BY order_index, name
	`, pipelineID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stages []models.Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

func (s *Store) GetStage(ctx context.Context, id uuid.UUID) (*models.Stage, error) {
	st, err := scanStage(s.db.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM stages WHERE id = ?`, id.String()))
	if err != nil {
		return nil, notFound("stage", id.String(), err)
	}
	return &st, nil
}
