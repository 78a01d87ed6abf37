// ABOUTME: Data models for the sales pipeline
// ABOUTME: Defines Pipeline, Stage, Deal and ProspectRef with validation helpers
package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrStageWonAndLost = errors.New("stage cannot be both won and lost")
)

type Pipeline struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Stage struct {
	ID         uuid.UUID `json:"id"`
	PipelineID uuid.UUID `json:"pipeline_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	IsWon      bool      `json:"is_won"`
	IsLost     bool      `json:"is_lost"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks the stage invariants.
func (s Stage) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	if s.IsWon && s.IsLost {
		return ErrStageWonAndLost
	}
	return nil
}

type ProspectRef struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Deal struct {
	ID                uuid.UUID        `json:"id"`
	PipelineID        uuid.UUID        `json:"pipeline_id"`
	Title             string           `json:"title"`
	StageID           uuid.UUID        `json:"stage_id"`
	Value             *decimal.Decimal `json:"value,omitempty"`
	WinProbability    int              `json:"win_probability"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date,omitempty"`
	Prospect          *ProspectRef     `json:"prospect,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Validate checks field ranges. It does not check that StageID exists; that
// needs the stage list and is enforced by the stores.
func (d Deal) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("deal title is required")
	}
	if d.StageID == uuid.Nil {
		return fmt.Errorf("deal %q has no stage", d.Title)
	}
	if d.Value != nil && d.Value.IsNegative() {
		return fmt.Errorf("deal %q has negative value %s", d.Title, d.Value.String())
	}
	if d.WinProbability < 0 || d.WinProbability > 100 {
		return fmt.Errorf("deal %q win probability %d out of range 0-100", d.Title, d.WinProbability)
	}
	return nil
}

// Clone returns a deep copy so optimistic edits never alias store data.
func (d Deal) Clone() Deal {
	out := d
	if d.Value != nil {
		v := *d.Value
		out.Value = &v
	}
	if d.ExpectedCloseDate != nil {
		t := *d.ExpectedCloseDate
		out.ExpectedCloseDate = &t
	}
	if d.Prospect != nil {
		p := *d.Prospect
		out.Prospect = &p
	}
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	return out
}

// SortStages orders stages by OrderIndex. Gaps are fine; equal indexes fall
// back to name and then id so the order is total.
func SortStages(stages []Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		a, b := stages[i], stages[j]
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
}
