// Package search provides in-memory spatial indices over point clouds: a
// k-d tree for nearest-neighbor and radius queries and an octree for
// region queries. Both are built once from a snapshot of points and are
// safe for concurrent reads afterwards.
package search

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/StepfenShawn/ferrum-cloud/utils"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vector
}

// Contains reports whether the position lies inside the box, boundaries
// included.
func (b Box) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the box's center.
func (b Box) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box's per-axis extent.
func (b Box) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// distSqLowerBound returns the squared distance from the position to the
// nearest face of the box, 0 when the position is inside. It lower-bounds
// the distance to any point contained in the box.
func (b Box) distSqLowerBound(p r3.Vector) float64 {
	d := 0.0
	if p.X < b.Min.X {
		d += utils.Square(b.Min.X - p.X)
	} else if p.X > b.Max.X {
		d += utils.Square(p.X - b.Max.X)
	}
	if p.Y < b.Min.Y {
		d += utils.Square(b.Min.Y - p.Y)
	} else if p.Y > b.Max.Y {
		d += utils.Square(p.Y - b.Max.Y)
	}
	if p.Z < b.Min.Z {
		d += utils.Square(b.Min.Z - p.Z)
	} else if p.Z > b.Max.Z {
		d += utils.Square(p.Z - b.Max.Z)
	}
	return d
}

// axisCoord returns the position's coordinate on the given axis
// (0 = x, 1 = y, 2 = z).
func axisCoord(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// boxAround returns the smallest box containing all positions, padded on
// every side so boundary points do not sit exactly on a face.
func boxAround(positions []r3.Vector, padding float64) Box {
	if len(positions) == 0 {
		return Box{Max: r3.Vector{X: 1, Y: 1, Z: 1}}
	}
	min, max := positions[0], positions[0]
	for _, pos := range positions[1:] {
		min.X = math.Min(min.X, pos.X)
		min.Y = math.Min(min.Y, pos.Y)
		min.Z = math.Min(min.Z, pos.Z)
		max.X = math.Max(max.X, pos.X)
		max.Y = math.Max(max.Y, pos.Y)
		max.Z = math.Max(max.Z, pos.Z)
	}
	pad := r3.Vector{X: padding, Y: padding, Z: padding}
	return Box{Min: min.Sub(pad), Max: max.Add(pad)}
}
