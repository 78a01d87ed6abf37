// ABOUTME: Drop-target resolution for dragged deal cards
// ABOUTME: Picks the stage whose region corners are closest to the dragged card
package board

import "github.com/google/uuid"

type RegionKind int

const (
	RegionColumn RegionKind = iota
	RegionCard
)

// Region is a droppable area on screen. Card regions stand in for the column
// that owns them, so StageID is always set.
type Region struct {
	Kind    RegionKind
	StageID uuid.UUID
	DealID  uuid.UUID
	Rect    Rect
}

// Candidate is a resolved drop target.
type Candidate struct {
	StageID  uuid.UUID
	Region   Region
	Distance float64
	Inside   bool
}

// Resolver implements closest-corners drop resolution.
type Resolver struct {
	// Reach is how far outside a region the pointer may be for the region to
	// still count. Zero means the pointer has to be inside it.
	Reach float64
}

const tieEpsilon = 1e-9

// Resolve returns the best drop target for a dragged card whose current
// bounds are probe, with the pointer at pointer. The boolean is false when no
// region is within reach.
func (r Resolver) Resolve(probe Rect, pointer Point, regions []Region) (Candidate, bool) {
	var best Candidate
	found := false

	for _, region := range regions {
		if region.Rect.DistTo(pointer) > r.Reach {
			continue
		}
		c := Candidate{
			StageID:  region.StageID,
			Region:   region,
			Distance: cornerDistance(probe, region.Rect),
			Inside:   region.Rect.Contains(pointer),
		}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

// better reports whether a beats b. Earlier regions win remaining ties
// because b was seen first.
func better(a, b Candidate) bool {
	if a.Distance < b.Distance-tieEpsilon {
		return true
	}
	if a.Distance > b.Distance+tieEpsilon {
		return false
	}
	if a.Inside != b.Inside {
		return a.Inside
	}
	return a.Region.Kind == RegionCard && b.Region.Kind == RegionColumn
}
