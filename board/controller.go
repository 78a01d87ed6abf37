// ABOUTME: Optimistic move controller for dropping deals onto stages
// ABOUTME: Applies moves locally first, persists them, and rolls back on failure
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/models"
)

var (
	ErrUnknownDeal  = errors.New("unknown deal")
	ErrUnknownStage = errors.New("unknown stage")
)

// MoveError is a persistence failure for one optimistic move.
type MoveError struct {
	DealID   uuid.UUID
	StageID  uuid.UUID
	Attempts int
	Err      error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move deal %s to stage %s failed after %d attempt(s): %v", e.DealID, e.StageID, e.Attempts, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// RetryPolicy controls automatic retries of a failed move. MaxAttempts below
// one is treated as one, which leaves retrying to the user.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

type ControllerConfig struct {
	// Timeout bounds each attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration
	Retry   RetryPolicy
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Timeout: 10 * time.Second,
		Retry:   RetryPolicy{MaxAttempts: 1, Backoff: 500 * time.Millisecond},
	}
}

// PendingMove is an optimistic move that has not been settled yet.
type PendingMove struct {
	ID     ulid.ULID
	DealID uuid.UUID
	From   uuid.UUID
	To     uuid.UUID
	seq    uint64
}

type MoveResult struct {
	Move     PendingMove
	Attempts int
	Err      error
}

// Settlement describes what Settle did with a result.
type Settlement struct {
	Move      PendingMove
	Committed bool
	// Reverted is set when the deal was put back in its rollback stage.
	Reverted bool
	// Superseded is set when a newer move of the same deal was still pending,
	// so the local model was left alone.
	Superseded bool
	// Reload is set when the local model could not be reconciled and should be
	// refreshed from the store.
	Reload bool
	Err    error
}

// Controller owns the board's local copy of stages and deals. Everything except
// Persist must be called from the UI event loop.
type Controller struct {
	mover Mover
	cfg   ControllerConfig

	stages []models.Stage
	deals  []models.Deal
	board  *Board

	pending map[ulid.ULID]*PendingMove
	latest  map[uuid.UUID]ulid.ULID
	seq     uint64
	entropy io.Reader
}

func NewController(mover Mover, cfg ControllerConfig) *Controller {
	return &Controller{
		mover:   mover,
		cfg:     cfg,
		board:   Build(nil, nil),
		pending: make(map[ulid.ULID]*PendingMove),
		latest:  make(map[uuid.UUID]ulid.ULID),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Load replaces the local model with fresh store data. Moves still in flight
// are re-applied so a refresh never flickers a card back to its old column.
func (c *Controller) Load(stages []models.Stage, deals []models.Deal) {
	c.stages = append([]models.Stage(nil), stages...)
	c.deals = make([]models.Deal, len(deals))
	for i, d := range deals {
		c.deals[i] = d.Clone()
	}

	known := make(map[uuid.UUID]bool, len(c.stages))
	for _, s := range c.stages {
		known[s.ID] = true
	}
	for dealID, moveID := range c.latest {
		p := c.pending[moveID]
		if idx := c.indexOf(dealID); idx >= 0 && known[p.To] {
			c.deals[idx].StageID = p.To
		}
	}
	c.rebuild()
}

func (c *Controller) Board() *Board {
	return c.board
}

// Pending is the number of moves awaiting a store result.
func (c *Controller) Pending() int {
	return len(c.pending)
}

// Drop applies the optimistic half of a move. A drop onto the deal's current
// stage returns nil and changes nothing.
func (c *Controller) Drop(dealID, target uuid.UUID) (*PendingMove, error) {
	idx := c.indexOf(dealID)
	if idx < 0 {
		return nil, fmt.Errorf("deal %s: %w", dealID, ErrUnknownDeal)
	}
	if _, shown := c.board.StageOf(dealID); !shown {
		return nil, fmt.Errorf("deal %s is not on the board: %w", dealID, ErrUnknownDeal)
	}
	from := c.deals[idx].StageID
	if from == target {
		return nil, nil
	}
	if !c.board.HasStage(target) {
		return nil, fmt.Errorf("stage %s: %w", target, ErrUnknownStage)
	}

	c.seq++
	move := &PendingMove{
		ID:     ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy),
		DealID: dealID,
		From:   from,
		To:     target,
		seq:    c.seq,
	}
	c.pending[move.ID] = move
	c.latest[dealID] = move.ID

	c.deals[idx].StageID = target
	c.rebuild()

	log.WithFields(log.Fields{
		"move": move.ID.String(),
		"deal": dealID,
		"from": from,
		"to":   target,
	}).Debug("optimistic move applied")

	out := *move
	return &out, nil
}

// Persist writes the move to the store, retrying per policy. It touches no
// local state and may run on any goroutine.
func (c *Controller) Persist(ctx context.Context, move PendingMove) MoveResult {
	attempts := c.cfg.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; ; i++ {
		err := c.attempt(ctx, move)
		if err == nil {
			return MoveResult{Move: move, Attempts: i}
		}
		if i >= attempts || errors.Is(err, models.ErrNotFound) || ctx.Err() != nil {
			return MoveResult{Move: move, Attempts: i, Err: &MoveError{DealID: move.DealID, StageID: move.To, Attempts: i, Err: err}}
		}

		log.WithError(err).WithFields(log.Fields{
			"move":    move.ID.String(),
			"attempt": i,
		}).Warn("move failed, retrying")

		select {
		case <-ctx.Done():
			return MoveResult{Move: move, Attempts: i, Err: &MoveError{DealID: move.DealID, StageID: move.To, Attempts: i, Err: ctx.Err()}}
		case <-time.After(c.cfg.Retry.Backoff):
		}
	}
}

func (c *Controller) attempt(ctx context.Context, move PendingMove) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	return c.mover.MoveDeal(ctx, move.DealID, move.To)
}

// Settle reconciles the local model with a persistence result.
func (c *Controller) Settle(res MoveResult) Settlement {
	p, ok := c.pending[res.Move.ID]
	if !ok {
		return Settlement{Move: res.Move, Err: res.Err}
	}
	delete(c.pending, p.ID)
	isLatest := c.latest[p.DealID] == p.ID
	if isLatest {
		delete(c.latest, p.DealID)
		// An older move still in flight now decides what the deal shows. Its
		// own failure must put the deal back where it started.
		if res.Err != nil {
			if prev := c.newestPending(p.DealID); prev != nil {
				c.latest[p.DealID] = prev.ID
			}
		}
	}

	fields := log.Fields{"move": p.ID.String(), "deal": p.DealID, "to": p.To}
	if res.Err == nil {
		log.WithFields(fields).Debug("move committed")
		return Settlement{Move: *p, Committed: true}
	}

	if !isLatest {
		// The newer move must now roll back to where this one started,
		// since this move's target was never committed.
		if next := c.nextPending(p); next != nil {
			next.From = p.From
		}
		log.WithError(res.Err).WithFields(fields).Warn("superseded move failed")
		return Settlement{Move: *p, Superseded: true, Err: res.Err}
	}

	idx := c.indexOf(p.DealID)
	if idx < 0 {
		log.WithError(res.Err).WithFields(fields).Warn("failed move for deal no longer loaded")
		return Settlement{Move: *p, Err: res.Err}
	}
	if !c.board.HasStage(p.From) {
		log.WithError(res.Err).WithFields(fields).Error("rollback stage no longer exists")
		return Settlement{Move: *p, Reload: true, Err: res.Err}
	}

	c.deals[idx].StageID = p.From
	c.rebuild()
	log.WithError(res.Err).WithFields(fields).WithField("restored", p.From).Warn("move failed, reverted")
	return Settlement{Move: *p, Reverted: true, Err: res.Err}
}

func (c *Controller) nextPending(p *PendingMove) *PendingMove {
	var next *PendingMove
	for _, q := range c.pending {
		if q.DealID != p.DealID || q.seq <= p.seq {
			continue
		}
		if next == nil || q.seq < next.seq {
			next = q
		}
	}
	return next
}

func (c *Controller) newestPending(dealID uuid.UUID) *PendingMove {
	var newest *PendingMove
	for _, q := range c.pending {
		if q.DealID == dealID && (newest == nil || q.seq > newest.seq) {
			newest = q
		}
	}
	return newest
}

func (c *Controller) indexOf(dealID uuid.UUID) int {
	for i := range c.deals {
		if c.deals[i].ID == dealID {
			return i
		}
	}
	return -1
}

func (c *Controller) rebuild() {
	c.board = Build(c.stages, c.deals)
}
