// ABOUTME: Store decorator that announces committed moves
// ABOUTME: Wraps any board.Catalog and publishes deal.moved after MoveDeal succeeds
package notify

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
)

// Store forwards every call to the wrapped catalog. Publishing is best effort:
// a committed move is never reported as failed because Redis was down.
type Store struct {
	board.Catalog
	pub *Publisher
}

func NewStore(inner board.Catalog, pub *Publisher) *Store {
	return &Store{Catalog: inner, pub: pub}
}

func (s *Store) MoveDeal(ctx context.Context, dealID, stageID uuid.UUID) error {
	if err := s.Catalog.MoveDeal(ctx, dealID, stageID); err != nil {
		return err
	}
	ev := Event{Type: EventDealMoved, DealID: dealID, StageID: stageID}
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.WithError(err).WithField("deal", dealID).Error("unable to publish deal move")
	}
	return nil
}
