package search

import (
	"github.com/golang/geo/r3"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
)

const (
	// DefaultMaxDepth bounds octree subdivision depth.
	DefaultMaxDepth = 8
	// DefaultMaxPointsPerNode is the leaf capacity that triggers subdivision.
	DefaultMaxPointsPerNode = 10
	// boundsPadding keeps boundary points strictly inside the derived root box.
	boundsPadding = 0.01
)

// Octree is a region octree over 3D points. Leaves buffer points up to a
// capacity; a full leaf above the depth limit splits into 8 fixed octants
// at its box center. Internal nodes hold no points. Leaves at the depth
// limit accumulate without bound.
type Octree[P pointcloud.Point] struct {
	root             *octreeNode[P]
	maxDepth         int
	maxPointsPerNode int
	size             int
}

type octreeNode[P pointcloud.Point] struct {
	bounds   Box
	children *[8]*octreeNode[P]
	points   []P
}

// NewOctree returns an empty octree over the given bounds. Non-positive
// depth or capacity fall back to the defaults.
func NewOctree[P pointcloud.Point](bounds Box, maxDepth, maxPointsPerNode int) *Octree[P] {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxPointsPerNode <= 0 {
		maxPointsPerNode = DefaultMaxPointsPerNode
	}
	return &Octree[P]{
		root:             &octreeNode[P]{bounds: bounds},
		maxDepth:         maxDepth,
		maxPointsPerNode: maxPointsPerNode,
	}
}

// BuildOctree builds an octree with default parameters over the given
// points, with bounds derived from their extent. Empty input yields an
// empty tree over a unit box.
func BuildOctree[P pointcloud.Point](points []P) *Octree[P] {
	positions := make([]r3.Vector, len(points))
	for i, p := range points {
		positions[i] = p.Position()
	}
	tree := NewOctree[P](boxAround(positions, boundsPadding), DefaultMaxDepth, DefaultMaxPointsPerNode)
	for _, p := range points {
		tree.Insert(p)
	}
	return tree
}

// BuildOctreeFromCloud builds a default-parameter octree over the cloud's
// points.
func BuildOctreeFromCloud[P pointcloud.Point](cloud *pointcloud.Cloud[P]) *Octree[P] {
	return BuildOctree(cloud.Points())
}

// Size returns the number of stored points.
func (t *Octree[P]) Size() int {
	return t.size
}

// Bounds returns the root bounding box.
func (t *Octree[P]) Bounds() Box {
	return t.root.bounds
}

// Insert adds a point to the tree. Points outside the root bounds are
// routed to the nearest octant at each level rather than rejected, but
// region queries only guarantee finding points inside the bounds.
func (t *Octree[P]) Insert(p P) {
	t.root.insert(p, 0, t.maxDepth, t.maxPointsPerNode)
	t.size++
}

func (n *octreeNode[P]) insert(p P, depth, maxDepth, maxPointsPerNode int) {
	if n.children != nil {
		idx := octantIndex(n.bounds.Center(), p.Position())
		n.children[idx].insert(p, depth+1, maxDepth, maxPointsPerNode)
		return
	}
	n.points = append(n.points, p)
	if len(n.points) > maxPointsPerNode && depth < maxDepth {
		n.subdivide()
		buffered := n.points
		n.points = nil
		for _, q := range buffered {
			idx := octantIndex(n.bounds.Center(), q.Position())
			n.children[idx].insert(q, depth+1, maxDepth, maxPointsPerNode)
		}
	}
}

// subdivide splits the node's box into 8 octants at its center. Octant i
// takes the upper half of axis a when bit a of i is set.
func (n *octreeNode[P]) subdivide() {
	center := n.bounds.Center()
	var children [8]*octreeNode[P]
	for i := 0; i < 8; i++ {
		box := n.bounds
		if i&1 != 0 {
			box.Min.X = center.X
		} else {
			box.Max.X = center.X
		}
		if i&2 != 0 {
			box.Min.Y = center.Y
		} else {
			box.Max.Y = center.Y
		}
		if i&4 != 0 {
			box.Min.Z = center.Z
		} else {
			box.Max.Z = center.Z
		}
		children[i] = &octreeNode[P]{bounds: box}
	}
	n.children = &children
}

func octantIndex(center, pos r3.Vector) int {
	idx := 0
	if pos.X >= center.X {
		idx |= 1
	}
	if pos.Y >= center.Y {
		idx |= 2
	}
	if pos.Z >= center.Z {
		idx |= 4
	}
	return idx
}

// RadiusSearch returns every stored point within radius of the query
// position, boundary included. Subtrees whose boxes cannot contain a
// point that close are skipped.
func (t *Octree[P]) RadiusSearch(query r3.Vector, radius float64) []P {
	var out []P
	if radius < 0 {
		return out
	}
	t.root.radiusSearch(query, radius*radius, &out)
	return out
}

func (n *octreeNode[P]) radiusSearch(query r3.Vector, radiusSq float64, out *[]P) {
	if n.bounds.distSqLowerBound(query) > radiusSq {
		return
	}
	if n.children == nil {
		for _, p := range n.points {
			if p.Position().Sub(query).Norm2() <= radiusSq {
				*out = append(*out, p)
			}
		}
		return
	}
	for _, child := range n.children {
		child.radiusSearch(query, radiusSq, out)
	}
}
