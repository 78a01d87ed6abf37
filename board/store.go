// ABOUTME: Interfaces for the stage/deal store the board reads from and writes to
// ABOUTME: Implemented by the sqlite and charm KV backends
package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/pipeboard/models"
)

// Mover persists a deal's stage reassignment. It is the board's only write path.
type Mover interface {
	MoveDeal(ctx context.Context, dealID, stageID uuid.UUID) error
}

type Store interface {
	Mover
	ListStages(ctx context.Context, pipelineID uuid.UUID) ([]models.Stage, error)
	ListDeals(ctx context.Context, pipelineID uuid.UUID) ([]models.Deal, error)
}

// Catalog is a Store that can also enumerate pipelines.
type Catalog interface {
	Store
	ListPipelines(ctx context.Context) ([]models.Pipeline, error)
}

// Fetch loads everything a board needs for one pipeline.
func Fetch(ctx context.Context, store Store, pipelineID uuid.UUID) ([]models.Stage, []models.Deal, error) {
	stages, err := store.ListStages(ctx, pipelineID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stages: %w", err)
	}
	deals, err := store.ListDeals(ctx, pipelineID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return stages, deals, nil
}

// FindPipeline resolves ref as an id or a case-insensitive name. An empty ref
// picks the first pipeline.
func FindPipeline(ctx context.Context, catalog Catalog, ref string) (models.Pipeline, error) {
	pipelines, err := catalog.ListPipelines(ctx)
	if err != nil {
		return models.Pipeline{}, fmt.Errorf("failed to list pipelines: %w", err)
	}
	if len(pipelines) == 0 {
		return models.Pipeline{}, fmt.Errorf("no pipelines: %w", models.ErrNotFound)
	}
	if ref == "" {
		return pipelines[0], nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, p := range pipelines {
			if p.ID == id {
				return p, nil
			}
		}
	}
	for _, p := range pipelines {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return models.Pipeline{}, fmt.Errorf("pipeline %q: %w", ref, models.ErrNotFound)
}
