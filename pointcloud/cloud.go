package pointcloud

import (
	"github.com/pkg/errors"
)

// Cloud is a dense, generic point container. It owns its point storage;
// Points hands the backing slice out for read-only iteration.
type Cloud[P Point] struct {
	points []P
	meta   Metadata
}

// New returns an empty unorganized cloud.
func New[P Point]() *Cloud[P] {
	return &Cloud[P]{meta: NewUnorganizedMetadata(0)}
}

// NewWithCapacity returns an empty unorganized cloud with storage
// preallocated for n points.
func NewWithCapacity[P Point](n int) *Cloud[P] {
	return &Cloud[P]{
		points: make([]P, 0, n),
		meta:   NewUnorganizedMetadata(0),
	}
}

// FromPoints returns a cloud owning a copy of the given points, with
// unorganized metadata derived from their count.
func FromPoints[P Point](points []P) *Cloud[P] {
	owned := make([]P, len(points))
	copy(owned, points)
	return &Cloud[P]{points: owned, meta: NewUnorganizedMetadata(len(owned))}
}

// FromPointsAndMetadata returns a cloud owning a copy of the given points
// carrying the given metadata. An organized metadata whose dimensions do not
// match the point count is an error.
func FromPointsAndMetadata[P Point](points []P, meta Metadata) (*Cloud[P], error) {
	if meta.Organized && meta.PointCount() != len(points) {
		return nil, errors.Errorf("organized metadata %dx%d does not match %d points",
			meta.Width, meta.Height, len(points))
	}
	owned := make([]P, len(points))
	copy(owned, points)
	return &Cloud[P]{points: owned, meta: meta}, nil
}

// Len returns the number of points in the cloud.
func (c *Cloud[P]) Len() int {
	return len(c.points)
}

// IsEmpty reports whether the cloud holds no points.
func (c *Cloud[P]) IsEmpty() bool {
	return len(c.points) == 0
}

// Points returns the backing point slice for read-only iteration.
func (c *Cloud[P]) Points() []P {
	return c.points
}

// Metadata returns the cloud's metadata.
func (c *Cloud[P]) Metadata() Metadata {
	return c.meta
}

// SetMetadata replaces the cloud's metadata. An organized metadata whose
// dimensions do not match the point count is an error.
func (c *Cloud[P]) SetMetadata(meta Metadata) error {
	if meta.Organized && meta.PointCount() != len(c.points) {
		return errors.Errorf("organized metadata %dx%d does not match %d points",
			meta.Width, meta.Height, len(c.points))
	}
	c.meta = meta
	return nil
}

// At returns the point at index i, or (zero, false) when out of bounds.
func (c *Cloud[P]) At(i int) (P, bool) {
	if i < 0 || i >= len(c.points) {
		var zero P
		return zero, false
	}
	return c.points[i], true
}

// Push appends a point to the cloud.
func (c *Cloud[P]) Push(p P) {
	c.points = append(c.points, p)
	c.syncDimensions()
}

// Extend appends all given points to the cloud.
func (c *Cloud[P]) Extend(points []P) {
	c.points = append(c.points, points...)
	c.syncDimensions()
}

// Remove deletes and returns the point at index i, preserving the order of
// the remaining points. An out-of-bounds index is an error.
func (c *Cloud[P]) Remove(i int) (P, error) {
	if i < 0 || i >= len(c.points) {
		var zero P
		return zero, errors.Errorf("index %d out of bounds for cloud of %d points", i, len(c.points))
	}
	p := c.points[i]
	c.points = append(c.points[:i], c.points[i+1:]...)
	c.syncDimensions()
	return p, nil
}

// Clear removes all points, keeping allocated capacity.
func (c *Cloud[P]) Clear() {
	c.points = c.points[:0]
	c.syncDimensions()
}

// Clone returns a deep copy of the cloud.
func (c *Cloud[P]) Clone() *Cloud[P] {
	points := make([]P, len(c.points))
	copy(points, c.points)
	return &Cloud[P]{points: points, meta: c.meta.Clone()}
}

// syncDimensions keeps the metadata dimensions consistent with the live
// point count. Mutation breaks any organized grid layout, so a mutated
// organized cloud degrades to unorganized.
func (c *Cloud[P]) syncDimensions() {
	if c.meta.Organized && c.meta.PointCount() != len(c.points) {
		c.meta.Organized = false
		c.meta.Height = 1
	}
	if !c.meta.Organized {
		c.meta.Width = len(c.points)
		c.meta.Height = 1
	}
}
