package search

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
)

// Neighbor is a point returned from a proximity query together with its
// squared distance to the query position.
type Neighbor[P pointcloud.Point] struct {
	Point  P
	DistSq float64
}

// KdTree is a static 3-dimensional k-d tree. It is built once over a copy
// of its input points and never rebalanced; queries are read-only and safe
// to run concurrently.
type KdTree[P pointcloud.Point] struct {
	root *kdNode[P]
	size int
}

type kdNode[P pointcloud.Point] struct {
	point P
	axis  int
	left  *kdNode[P]
	right *kdNode[P]
}

// BuildKdTree builds a balanced tree over a copy of the given points by
// recursive median splits cycling through the x, y and z axes. Empty input
// yields a valid empty tree.
func BuildKdTree[P pointcloud.Point](points []P) *KdTree[P] {
	owned := make([]P, len(points))
	copy(owned, points)
	return &KdTree[P]{root: buildKdNode(owned, 0), size: len(owned)}
}

// BuildKdTreeFromCloud builds a tree over the cloud's points.
func BuildKdTreeFromCloud[P pointcloud.Point](cloud *pointcloud.Cloud[P]) *KdTree[P] {
	return BuildKdTree(cloud.Points())
}

func buildKdNode[P pointcloud.Point](points []P, depth int) *kdNode[P] {
	if len(points) == 0 {
		return nil
	}
	axis := depth % 3
	sort.SliceStable(points, func(i, j int) bool {
		return axisCoord(points[i].Position(), axis) < axisCoord(points[j].Position(), axis)
	})
	median := len(points) / 2
	return &kdNode[P]{
		point: points[median],
		axis:  axis,
		left:  buildKdNode(points[:median], depth+1),
		right: buildKdNode(points[median+1:], depth+1),
	}
}

// Len returns the number of points in the tree.
func (t *KdTree[P]) Len() int {
	return t.size
}

// NearestNeighbor returns the point closest to the query position. On a
// tie the first point found wins. ok is false for an empty tree.
func (t *KdTree[P]) NearestNeighbor(query r3.Vector) (P, bool) {
	var best P
	if t.root == nil {
		return best, false
	}
	bestDistSq := math.Inf(1)
	t.root.nearest(query, &best, &bestDistSq)
	return best, true
}

func (n *kdNode[P]) nearest(query r3.Vector, best *P, bestDistSq *float64) {
	if n == nil {
		return
	}
	if d := n.point.Position().Sub(query).Norm2(); d < *bestDistSq {
		*bestDistSq = d
		*best = n.point
	}
	diff := axisCoord(query, n.axis) - axisCoord(n.point.Position(), n.axis)
	primary, secondary := n.left, n.right
	if diff >= 0 {
		primary, secondary = n.right, n.left
	}
	primary.nearest(query, best, bestDistSq)
	// The far side can only hold a closer point if the splitting plane is
	// nearer than the current best.
	if diff*diff < *bestDistSq {
		secondary.nearest(query, best, bestDistSq)
	}
}

// RadiusSearch returns every point within radius of the query position,
// boundary included, in tree visitation order.
func (t *KdTree[P]) RadiusSearch(query r3.Vector, radius float64) []Neighbor[P] {
	var results []Neighbor[P]
	if t.root == nil || radius < 0 {
		return results
	}
	t.root.radiusSearch(query, radius, radius*radius, &results)
	return results
}

func (n *kdNode[P]) radiusSearch(query r3.Vector, radius, radiusSq float64, out *[]Neighbor[P]) {
	if n == nil {
		return
	}
	if d := n.point.Position().Sub(query).Norm2(); d <= radiusSq {
		*out = append(*out, Neighbor[P]{Point: n.point, DistSq: d})
	}
	qc := axisCoord(query, n.axis)
	nc := axisCoord(n.point.Position(), n.axis)
	if qc-radius <= nc {
		n.left.radiusSearch(query, radius, radiusSq, out)
	}
	if qc+radius >= nc {
		n.right.radiusSearch(query, radius, radiusSq, out)
	}
}

// KNearest returns the k points closest to the query position in ascending
// distance order, fewer when the tree holds fewer than k points.
func (t *KdTree[P]) KNearest(query r3.Vector, k int) []Neighbor[P] {
	if t.root == nil || k <= 0 {
		return nil
	}
	buf := make([]Neighbor[P], 0, k+1)
	t.root.kNearest(query, k, &buf)
	sortNeighbors(buf)
	if len(buf) > k {
		buf = buf[:k]
	}
	return buf
}

func (n *kdNode[P]) kNearest(query r3.Vector, k int, buf *[]Neighbor[P]) {
	if n == nil {
		return
	}
	d := n.point.Position().Sub(query).Norm2()
	*buf = append(*buf, Neighbor[P]{Point: n.point, DistSq: d})
	if len(*buf) > k {
		sortNeighbors(*buf)
		*buf = (*buf)[:k]
	}

	diff := axisCoord(query, n.axis) - axisCoord(n.point.Position(), n.axis)
	primary, secondary := n.left, n.right
	if diff >= 0 {
		primary, secondary = n.right, n.left
	}
	primary.kNearest(query, k, buf)

	worst := math.Inf(1)
	if len(*buf) >= k {
		worst = 0
		for _, nb := range *buf {
			if nb.DistSq > worst {
				worst = nb.DistSq
			}
		}
	}
	if diff*diff < worst {
		secondary.kNearest(query, k, buf)
	}
}

func sortNeighbors[P pointcloud.Point](ns []Neighbor[P]) {
	sort.Slice(ns, func(i, j int) bool {
		return ns[i].DistSq < ns[j].DistSq
	})
}
