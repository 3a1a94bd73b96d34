// Package pointcloud defines the point capability interfaces, the concrete
// point types, and a generic dense point cloud container with parallel bulk
// operations, together with the PCD, PLY and LAS file codecs.
package pointcloud

import (
	"github.com/golang/geo/r3"
)

// Point is the minimal capability of anything stored in a cloud: it has a
// position in 3D space. All spatial algorithms in this module consume points
// through this interface only.
type Point interface {
	Position() r3.Vector
}

// Movable is the capability of producing a copy of the point at a new
// position. Operations that relocate points (voxel centroids, rigid
// transforms) require it. The constraint is self-referential so that the
// returned point keeps its concrete type.
type Movable[P Point] interface {
	Point
	WithPosition(pos r3.Vector) P
}

// Colored is the capability of exposing an RGB color. The color-aware codecs
// and any rendering layer consume points through it.
type Colored interface {
	Point
	RGB255() (uint8, uint8, uint8)
}

// PointXYZ is a plain positional point.
type PointXYZ struct {
	X, Y, Z float64
}

// NewPointXYZ constructs a positional point.
func NewPointXYZ(x, y, z float64) PointXYZ {
	return PointXYZ{X: x, Y: y, Z: z}
}

// Position returns the point's location.
func (p PointXYZ) Position() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// WithPosition returns a copy of the point at the given location.
func (p PointXYZ) WithPosition(pos r3.Vector) PointXYZ {
	return PointXYZ{X: pos.X, Y: pos.Y, Z: pos.Z}
}

// PointXYZRGB is a positional point with an RGB color.
type PointXYZRGB struct {
	X, Y, Z float64
	R, G, B uint8
}

// NewPointXYZRGB constructs a colored point.
func NewPointXYZRGB(x, y, z float64, r, g, b uint8) PointXYZRGB {
	return PointXYZRGB{X: x, Y: y, Z: z, R: r, G: g, B: b}
}

// Position returns the point's location.
func (p PointXYZRGB) Position() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// WithPosition returns a copy of the point at the given location, color kept.
func (p PointXYZRGB) WithPosition(pos r3.Vector) PointXYZRGB {
	p.X, p.Y, p.Z = pos.X, pos.Y, pos.Z
	return p
}

// RGB255 returns the RGB components of the point's color.
func (p PointXYZRGB) RGB255() (uint8, uint8, uint8) {
	return p.R, p.G, p.B
}

// PointXYZRGBNormal is a colored point carrying a surface normal.
type PointXYZRGBNormal struct {
	X, Y, Z float64
	R, G, B uint8
	Normal  r3.Vector
}

// Position returns the point's location.
func (p PointXYZRGBNormal) Position() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// WithPosition returns a copy of the point at the given location, color and
// normal kept.
func (p PointXYZRGBNormal) WithPosition(pos r3.Vector) PointXYZRGBNormal {
	p.X, p.Y, p.Z = pos.X, pos.Y, pos.Z
	return p
}

// RGB255 returns the RGB components of the point's color.
func (p PointXYZRGBNormal) RGB255() (uint8, uint8, uint8) {
	return p.R, p.G, p.B
}

// SquaredDistance returns the squared Euclidean distance between two points.
func SquaredDistance(a, b Point) float64 {
	return a.Position().Sub(b.Position()).Norm2()
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return a.Position().Sub(b.Position()).Norm()
}
