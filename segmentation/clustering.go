package segmentation

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
	"github.com/StepfenShawn/ferrum-cloud/search"
)

func validateClusterParams(tolerance float64, minClusterSize, maxClusterSize int) error {
	if tolerance <= 0 {
		return errors.Errorf("tolerance must be positive, got %f", tolerance)
	}
	if minClusterSize < 1 {
		return errors.Errorf("minClusterSize must be at least 1, got %d", minClusterSize)
	}
	if maxClusterSize < minClusterSize {
		return errors.Errorf("maxClusterSize %d is smaller than minClusterSize %d", maxClusterSize, minClusterSize)
	}
	return nil
}

// EuclideanClusters partitions the cloud into connected components where
// two points connect when they are within tolerance of each other,
// boundary included. Components smaller than minClusterSize or larger than
// maxClusterSize are discarded. Each cluster is a list of point indices
// into the cloud. Neighbor lookup is a full scan per expansion.
func EuclideanClusters[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	tolerance float64,
	minClusterSize, maxClusterSize int,
) ([][]int, error) {
	if err := validateClusterParams(tolerance, minClusterSize, maxClusterSize); err != nil {
		return nil, err
	}
	points := cloud.Points()
	toleranceSq := tolerance * tolerance
	neighbors := func(pos r3.Vector, visited []bool) []int {
		var found []int
		for j, q := range points {
			if !visited[j] && q.Position().Sub(pos).Norm2() <= toleranceSq {
				found = append(found, j)
			}
		}
		return found
	}
	return growClusters(len(points), func(i int) r3.Vector { return points[i].Position() },
		neighbors, minClusterSize, maxClusterSize), nil
}

// indexedPoint carries a point's index in its source cloud through a
// spatial index.
type indexedPoint[P pointcloud.Point] struct {
	point P
	index int
}

func (ip indexedPoint[P]) Position() r3.Vector {
	return ip.point.Position()
}

// EuclideanClustersKd is EuclideanClusters with neighbor lookup served by
// a k-d tree. It produces the same partition; ordering within and among
// clusters may differ.
func EuclideanClustersKd[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	tolerance float64,
	minClusterSize, maxClusterSize int,
) ([][]int, error) {
	if err := validateClusterParams(tolerance, minClusterSize, maxClusterSize); err != nil {
		return nil, err
	}
	points := cloud.Points()
	indexed := make([]indexedPoint[P], len(points))
	for i, p := range points {
		indexed[i] = indexedPoint[P]{point: p, index: i}
	}
	tree := search.BuildKdTree(indexed)
	neighbors := func(pos r3.Vector, visited []bool) []int {
		var found []int
		for _, nb := range tree.RadiusSearch(pos, tolerance) {
			if !visited[nb.Point.index] {
				found = append(found, nb.Point.index)
			}
		}
		return found
	}
	return growClusters(len(points), func(i int) r3.Vector { return points[i].Position() },
		neighbors, minClusterSize, maxClusterSize), nil
}

// growClusters runs the shared flood fill: depth-first expansion from each
// unvisited seed, collecting the connected component, then size-filtering.
func growClusters(
	numPoints int,
	position func(i int) r3.Vector,
	neighbors func(pos r3.Vector, visited []bool) []int,
	minClusterSize, maxClusterSize int,
) [][]int {
	visited := make([]bool, numPoints)
	clusters := [][]int{}
	for seed := 0; seed < numPoints; seed++ {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		cluster := []int{seed}
		stack := []int{seed}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, j := range neighbors(position(current), visited) {
				visited[j] = true
				cluster = append(cluster, j)
				stack = append(stack, j)
			}
		}
		if len(cluster) >= minClusterSize && len(cluster) <= maxClusterSize {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}
