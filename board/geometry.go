// ABOUTME: Plane geometry used by drag gestures and drop resolution
// ABOUTME: Units are whatever the input device reports (pixels or terminal cells)
package board

import "math"

type Point struct {
	X float64
	Y float64
}

// Sub returns p - q as a vector.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist is the euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive so that adjacent rectangles never share a point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Corners returns top-left, top-right, bottom-left, bottom-right.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X, Y: r.Y + r.H},
		{X: r.X + r.W, Y: r.Y + r.H},
	}
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Translate moves r by the vector d.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// DistTo is the shortest distance from p to any point of r, zero when inside.
func (r Rect) DistTo(p Point) float64 {
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-(r.X+r.W))
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-(r.Y+r.H))
	return math.Hypot(dx, dy)
}

// cornerDistance is the mean distance between corresponding corners.
func cornerDistance(a, b Rect) float64 {
	ca, cb := a.Corners(), b.Corners()
	var sum float64
	for i := range ca {
		sum += ca[i].Dist(cb[i])
	}
	return sum / float64(len(ca))
}
