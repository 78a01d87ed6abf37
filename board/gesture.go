// ABOUTME: Drag gesture state machine shared by pointer and keyboard input
// ABOUTME: Turns begin/update/release/cancel events into activate, drop or cancel outcomes
package board

import "github.com/google/uuid"

// DefaultDragThreshold is the pointer travel needed before a press becomes a
// drag, in input units.
const DefaultDragThreshold = 8

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseDragging:
		return "dragging"
	}
	return "unknown"
}

type Input int

const (
	InputPointer Input = iota
	InputKeyboard
)

type OutcomeKind int

const (
	// OutcomeNone means the event did not end a gesture.
	OutcomeNone OutcomeKind = iota
	// OutcomeActivated is a press and release that never became a drag.
	OutcomeActivated
	OutcomeDropped
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeActivated:
		return "activated"
	case OutcomeDropped:
		return "dropped"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

type Outcome struct {
	Kind          OutcomeKind
	DealID        uuid.UUID
	OriginStageID uuid.UUID
	// TargetStageID is only set for OutcomeDropped.
	TargetStageID uuid.UUID
}

// Session is everything known about the gesture in progress. It exists from
// Begin until Release or Cancel. Callers only ever get copies of it.
type Session struct {
	DealID        uuid.UUID
	OriginStageID uuid.UUID
	Input         Input
	// Origin is the card's bounds when it was picked up.
	Origin  Rect
	Start   Point
	Pointer Point

	Candidate    Candidate
	HasCandidate bool
}

// Probe is the dragged card's bounds at the current pointer position.
func (s Session) Probe() Rect {
	return s.Origin.Translate(s.Pointer.Sub(s.Start))
}

type GestureConfig struct {
	Threshold float64
	Reach     float64
}

// Recognizer owns at most one drag session. It is not safe for concurrent use;
// every call is expected to come from the UI event loop.
type Recognizer struct {
	cfg      GestureConfig
	resolver Resolver
	regions  []Region
	phase    Phase
	session  *Session
}

func NewRecognizer(cfg GestureConfig) *Recognizer {
	return &Recognizer{
		cfg:      cfg,
		resolver: Resolver{Reach: cfg.Reach},
	}
}

// SetRegions replaces the droppable regions, typically after a re-layout.
// An active drag is re-resolved against the new regions.
func (r *Recognizer) SetRegions(regions []Region) {
	r.regions = regions
	if r.phase == PhaseDragging {
		r.resolve()
	}
}

func (r *Recognizer) Phase() Phase {
	return r.phase
}

// Session returns a copy of the active session.
func (r *Recognizer) Session() (Session, bool) {
	if r.session == nil {
		return Session{}, false
	}
	return *r.session, true
}

// Begin starts a gesture on a card. Keyboard pick-ups skip the movement
// threshold. It returns false, changing nothing, if a gesture is already
// active or the region is not a card.
func (r *Recognizer) Begin(card Region, at Point, input Input) bool {
	if r.phase != PhaseIdle || card.Kind != RegionCard {
		return false
	}
	r.session = &Session{
		DealID:        card.DealID,
		OriginStageID: card.StageID,
		Input:         input,
		Origin:        card.Rect,
		Start:         at,
		Pointer:       at,
	}
	if input == InputKeyboard {
		r.phase = PhaseDragging
		r.resolve()
		return true
	}
	r.phase = PhaseArmed
	return true
}

// Update feeds a new position. While armed it only promotes to dragging once
// the pointer has travelled at least the threshold.
func (r *Recognizer) Update(at Point) {
	if r.session == nil {
		return
	}
	r.session.Pointer = at
	switch r.phase {
	case PhaseArmed:
		if r.session.Start.Dist(at) >= r.cfg.Threshold {
			r.phase = PhaseDragging
			r.resolve()
		}
	case PhaseDragging:
		r.resolve()
	}
}

// Release ends the gesture at the current position.
func (r *Recognizer) Release() Outcome {
	if r.session == nil {
		return Outcome{Kind: OutcomeNone}
	}
	s := *r.session
	out := Outcome{DealID: s.DealID, OriginStageID: s.OriginStageID}
	switch {
	case r.phase == PhaseArmed:
		out.Kind = OutcomeActivated
	case s.HasCandidate:
		out.Kind = OutcomeDropped
		out.TargetStageID = s.Candidate.StageID
	default:
		out.Kind = OutcomeCancelled
	}
	r.reset()
	return out
}

// Cancel abandons the gesture. Nothing about the deal changes.
func (r *Recognizer) Cancel() Outcome {
	if r.session == nil {
		return Outcome{Kind: OutcomeNone}
	}
	out := Outcome{
		Kind:          OutcomeCancelled,
		DealID:        r.session.DealID,
		OriginStageID: r.session.OriginStageID,
	}
	r.reset()
	return out
}

func (r *Recognizer) resolve() {
	c, ok := r.resolver.Resolve(r.session.Probe(), r.session.Pointer, r.regions)
	r.session.Candidate = c
	r.session.HasCandidate = ok
}

func (r *Recognizer) reset() {
	r.session = nil
	r.phase = PhaseIdle
}
