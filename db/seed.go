// ABOUTME: Demo data for a fresh database
// ABOUTME: Creates a gym membership pipeline with stages and a handful of deals
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harperreed/pipeboard/models"
)

const DemoPipelineName = "Gym Memberships"

var demoStages = []models.Stage{
	{Name: "Lead", Color: "#7aa2f7", OrderIndex: 10},
	{Name: "Trial Booked", Color: "#e0af68", OrderIndex: 20},
	{Name: "Trial Done", Color: "#bb9af7", OrderIndex: 30},
	{Name: "Negotiation", Color: "#7dcfff", OrderIndex: 40},
	{Name: "Won", Color: "#9ece6a", OrderIndex: 50, IsWon: true},
	{Name: "Lost", Color: "#f7768e", OrderIndex: 60, IsLost: true},
}

type demoDeal struct {
	title    string
	stage    int
	value    string
	prob     int
	prospect string
	tags     []string
}

var demoDeals = []demoDeal{
	{"Annual membership", 0, "1200", 10, "Maria Lopez", []string{"annual"}},
	{"Family plan", 0, "2400", 15, "The Okafors", []string{"family", "referral"}},
	{"Personal training pack", 1, "600", 35, "Sam Reed", nil},
	{"Corporate wellness", 1, "9800", 30, "Northwind Ltd", []string{"corporate"}},
	{"Student monthly", 2, "45", 60, "Jin Park", []string{"student"}},
	{"Yoga add-on", 3, "180", 75, "Priya Nair", nil},
	{"Annual membership", 4, "1200", 100, "Tom Becker", []string{"annual"}},
	{"Day pass bundle", 5, "90", 0, "Alex Kim", nil},
}

// SeedTarget is the write side shared by the sqlite and charm stores.
type SeedTarget interface {
	ListPipelines(ctx context.Context) ([]models.Pipeline, error)
	CreatePipeline(ctx context.Context, p *models.Pipeline) error
	CreateStage(ctx context.Context, st *models.Stage) error
	CreateDeal(ctx context.Context, deal *models.Deal) error
}

// SeedDemo creates the demo pipeline. It refuses to run twice.
func SeedDemo(ctx context.Context, s SeedTarget) (*models.Pipeline, error) {
	pipelines, err := s.ListPipelines(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pipelines {
		if p.Name == DemoPipelineName {
			return nil, fmt.Errorf("pipeline %q already exists", DemoPipelineName)
		}
	}

	pipeline := &models.Pipeline{Name: DemoPipelineName}
	if err := s.CreatePipeline(ctx, pipeline); err != nil {
		return nil, err
	}

	stages := make([]models.Stage, len(demoStages))
	for i, st := range demoStages {
		st.PipelineID = pipeline.ID
		if err := s.CreateStage(ctx, &st); err != nil {
			return nil, fmt.Errorf("failed to seed stage %s: %w", st.Name, err)
		}
		stages[i] = st
	}

	closeDate := time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	for _, dd := range demoDeals {
		value := decimal.RequireFromString(dd.value)
		deal := &models.Deal{
			PipelineID:        pipeline.ID,
			Title:             dd.title,
			StageID:           stages[dd.stage].ID,
			Value:             &value,
			WinProbability:    dd.prob,
			ExpectedCloseDate: &closeDate,
			Prospect:          &models.ProspectRef{Name: dd.prospect},
			Tags:              dd.tags,
		}
		if err := s.CreateDeal(ctx, deal); err != nil {
			return nil, fmt.Errorf("failed to seed deal %s: %w", dd.title, err)
		}
	}

	return pipeline, nil
}
