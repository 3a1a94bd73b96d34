package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// View is a read-only window over a cloud's points. It borrows the cloud's
// storage; the cloud must not be mutated while views of it are in use.
// Consumers outside the processing pipeline (renderers, exporters) read
// through views.
type View[P Point] struct {
	points []P
}

// NewView returns a view over the whole cloud.
func NewView[P Point](c *Cloud[P]) View[P] {
	return View[P]{points: c.Points()}
}

// Len returns the number of points in the view.
func (v View[P]) Len() int {
	return len(v.points)
}

// Points returns the viewed points for read-only iteration.
func (v View[P]) Points() []P {
	return v.points
}

// At returns the point at index i, or (zero, false) when out of bounds.
func (v View[P]) At(i int) (P, bool) {
	if i < 0 || i >= len(v.points) {
		var zero P
		return zero, false
	}
	return v.points[i], true
}

// Slice returns a sub-view of the half-open index range [from, to).
func (v View[P]) Slice(from, to int) (View[P], error) {
	if from < 0 || to > len(v.points) || from > to {
		return View[P]{}, errors.Errorf("slice [%d, %d) out of bounds for view of %d points", from, to, len(v.points))
	}
	return View[P]{points: v.points[from:to]}, nil
}

// FindClosest returns the point in the view nearest to the query position by
// linear scan, or (zero, false) for an empty view.
func (v View[P]) FindClosest(query r3.Vector) (P, bool) {
	var best P
	if len(v.points) == 0 {
		return best, false
	}
	bestDistSq := math.Inf(1)
	for _, p := range v.points {
		if d := p.Position().Sub(query).Norm2(); d < bestDistSq {
			bestDistSq = d
			best = p
		}
	}
	return best, true
}

// CountWhere returns the number of points satisfying the predicate.
func (v View[P]) CountWhere(pred func(P) bool) int {
	n := 0
	for _, p := range v.points {
		if pred(p) {
			n++
		}
	}
	return n
}
