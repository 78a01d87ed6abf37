// ABOUTME: Board model that groups deals into ordered stage columns
// ABOUTME: Computes per-stage aggregates fresh on every build
package board

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/models"
)

// Aggregate summarises the deals currently grouped under one stage.
type Aggregate struct {
	Count              int
	TotalValue         decimal.Decimal
	MeanWinProbability float64
}

type Column struct {
	Stage     models.Stage
	Deals     []models.Deal
	Aggregate Aggregate
}

// Board is the render-ready grouping of a pipeline. It is rebuilt whenever the
// underlying stage or deal slices change and is never patched in place.
type Board struct {
	Columns []Column
	// Orphans are deals whose stage is unknown. They are not shown in any column.
	Orphans []models.Deal

	stageIndex map[uuid.UUID]int
	dealStage  map[uuid.UUID]uuid.UUID
}

// Build partitions deals by stage, keeping the relative order of the input
// within each column.
func Build(stages []models.Stage, deals []models.Deal) *Board {
	ordered := append([]models.Stage(nil), stages...)
	models.SortStages(ordered)

	b := &Board{
		Columns:    make([]Column, len(ordered)),
		stageIndex: make(map[uuid.UUID]int, len(ordered)),
		dealStage:  make(map[uuid.UUID]uuid.UUID, len(deals)),
	}
	for i, s := range ordered {
		b.Columns[i] = Column{Stage: s}
		b.stageIndex[s.ID] = i
	}

	for _, d := range deals {
		idx, ok := b.stageIndex[d.StageID]
		if !ok {
			log.WithFields(log.Fields{
				"deal":  d.ID,
				"title": d.Title,
				"stage": d.StageID,
			}).Warn("deal references unknown stage; excluded from board")
			b.Orphans = append(b.Orphans, d)
			continue
		}
		b.Columns[idx].Deals = append(b.Columns[idx].Deals, d)
		b.dealStage[d.ID] = d.StageID
	}

	for i := range b.Columns {
		b.Columns[i].Aggregate = aggregate(b.Columns[i].Deals)
	}
	return b
}

func aggregate(deals []models.Deal) Aggregate {
	agg := Aggregate{Count: len(deals), TotalValue: decimal.Zero}
	if len(deals) == 0 {
		return agg
	}
	probSum := 0
	for _, d := range deals {
		if d.Value != nil {
			agg.TotalValue = agg.TotalValue.Add(*d.Value)
		}
		probSum += d.WinProbability
	}
	agg.MeanWinProbability = float64(probSum) / float64(len(deals))
	return agg
}

// Column returns the column for a stage id.
func (b *Board) Column(stageID uuid.UUID) (*Column, bool) {
	idx, ok := b.stageIndex[stageID]
	if !ok {
		return nil, false
	}
	return &b.Columns[idx], true
}

// ColumnIndex returns the position of a stage on the board.
func (b *Board) ColumnIndex(stageID uuid.UUID) (int, bool) {
	idx, ok := b.stageIndex[stageID]
	return idx, ok
}

func (b *Board) HasStage(stageID uuid.UUID) bool {
	_, ok := b.stageIndex[stageID]
	return ok
}

// StageOf returns the stage a deal is shown under. Orphans are not found.
func (b *Board) StageOf(dealID uuid.UUID) (uuid.UUID, bool) {
	s, ok := b.dealStage[dealID]
	return s, ok
}

// Deal looks a rendered deal up by id.
func (b *Board) Deal(dealID uuid.UUID) (models.Deal, bool) {
	stageID, ok := b.dealStage[dealID]
	if !ok {
		return models.Deal{}, false
	}
	col, _ := b.Column(stageID)
	for _, d := range col.Deals {
		if d.ID == dealID {
			return d, true
		}
	}
	return models.Deal{}, false
}

// Placement maps each shown deal to its stage. Two boards with equal
// placements show the same cards in the same columns.
func (b *Board) Placement() map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(b.dealStage))
	for k, v := range b.dealStage {
		out[k] = v
	}
	return out
}
