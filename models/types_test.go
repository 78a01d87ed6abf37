// ABOUTME: Tests for pipeline data models
// ABOUTME: Covers stage and deal validation, cloning and stage ordering
package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStageValidate(t *testing.T) {
	s := Stage{Name: "Won", IsWon: true}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid stage, got %v", err)
	}

	s.IsLost = true
	if err := s.Validate(); !errors.Is(err, ErrStageWonAndLost) {
		t.Errorf("expected ErrStageWonAndLost, got %v", err)
	}

	if err := (Stage{}).Validate(); err == nil {
		t.Error("expected error for unnamed stage")
	}
}

func TestDealValidate(t *testing.T) {
	neg := decimal.NewFromInt(-5)
	tests := []struct {
		name    string
		deal    Deal
		wantErr bool
	}{
		{"valid", Deal{Title: "Annual", StageID: uuid.New(), WinProbability: 40}, false},
		{"no title", Deal{StageID: uuid.New()}, true},
		{"no stage", Deal{Title: "Annual"}, true},
		{"negative value", Deal{Title: "Annual", StageID: uuid.New(), Value: &neg}, true},
		{"probability too high", Deal{Title: "Annual", StageID: uuid.New(), WinProbability: 101}, true},
		{"probability negative", Deal{Title: "Annual", StageID: uuid.New(), WinProbability: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.deal.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDealCloneDoesNotAlias(t *testing.T) {
	v := decimal.RequireFromString("99.90")
	closeDate := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	d := Deal{
		Title:             "PT pack",
		Value:             &v,
		ExpectedCloseDate: &closeDate,
		Prospect:          &ProspectRef{Name: "Sam"},
		Tags:              []string{"pt", "q4"},
	}

	c := d.Clone()
	c.Tags[0] = "changed"
	c.Prospect.Name = "Alex"
	*c.Value = decimal.NewFromInt(1)

	if d.Tags[0] != "pt" {
		t.Error("tags aliased")
	}
	if d.Prospect.Name != "Sam" {
		t.Error("prospect aliased")
	}
	if !d.Value.Equal(decimal.RequireFromString("99.90")) {
		t.Error("value aliased")
	}
}

func TestSortStages(t *testing.T) {
	stages := []Stage{
		{Name: "Won", OrderIndex: 100},
		{Name: "Trial", OrderIndex: 20},
		{Name: "Lead", OrderIndex: 10},
		{Name: "Booked", OrderIndex: 20},
	}

	SortStages(stages)

	want := []string{"Lead", "Booked", "Trial", "Won"}
	for i, name := range want {
		if stages[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, stages[i].Name)
		}
	}
}
