// ABOUTME: Shared fixtures for board package tests
// ABOUTME: Provides a three-stage pipeline and a recording fake mover
package board

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harperreed/pipeboard/models"
)

type fixture struct {
	stageA, stageB, stageC models.Stage
	stages                 []models.Stage
}

func newFixture() fixture {
	f := fixture{
		stageA: models.Stage{ID: uuid.New(), Name: "Lead", OrderIndex: 10},
		stageB: models.Stage{ID: uuid.New(), Name: "Trial", OrderIndex: 20},
		stageC: models.Stage{ID: uuid.New(), Name: "Won", OrderIndex: 30, IsWon: true},
	}
	// Deliberately out of order; Build must sort.
	f.stages = []models.Stage{f.stageC, f.stageA, f.stageB}
	return f
}

func deal(title string, stage uuid.UUID, value string, prob int) models.Deal {
	d := models.Deal{ID: uuid.New(), Title: title, StageID: stage, WinProbability: prob}
	if value != "" {
		v := decimal.RequireFromString(value)
		d.Value = &v
	}
	return d
}

type moveCall struct {
	DealID  uuid.UUID
	StageID uuid.UUID
}

type fakeMover struct {
	mu    sync.Mutex
	calls []moveCall
	// errs is consumed one per call; a nil entry or an empty queue succeeds.
	errs []error
}

func (f *fakeMover) MoveDeal(_ context.Context, dealID, stageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, moveCall{DealID: dealID, StageID: stageID})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeMover) Calls() []moveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]moveCall(nil), f.calls...)
}
