package filtering

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
	"github.com/StepfenShawn/ferrum-cloud/search"
	"github.com/StepfenShawn/ferrum-cloud/utils"
)

// RemoveStatisticalOutliers removes points whose mean distance to their
// kNeighbors nearest neighbors exceeds the global mean of that statistic by
// more than stdDevThreshold standard deviations. Clouds with at most
// kNeighbors points pass through unchanged. Neighbor search is a full scan;
// coincident points do not count as their own neighbors.
func RemoveStatisticalOutliers[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	kNeighbors int,
	stdDevThreshold float64,
) (*pointcloud.Cloud[P], error) {
	if kNeighbors < 1 {
		return nil, errors.Errorf("kNeighbors must be at least 1, got %d", kNeighbors)
	}
	if cloud.Len() <= kNeighbors {
		return cloud.Clone(), nil
	}
	points := cloud.Points()
	meanDists := make([]float64, len(points))
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		len(points),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				pos := points[workNum].Position()
				dists := make([]float64, 0, len(points)-1)
				for j, q := range points {
					if j == workNum {
						continue
					}
					if d := q.Position().Sub(pos).Norm(); d > 0 {
						dists = append(dists, d)
					}
				}
				sort.Float64s(dists)
				if len(dists) > kNeighbors {
					dists = dists[:kNeighbors]
				}
				meanDists[workNum] = meanOrZero(dists)
			}, nil
		},
	)
	return keepBelowThreshold(cloud, meanDists, stdDevThreshold), nil
}

// RemoveStatisticalOutliersKd is RemoveStatisticalOutliers with neighbor
// search served by a k-d tree built over the same points. Results are
// identical as long as the cloud has no coincident points.
func RemoveStatisticalOutliersKd[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	tree *search.KdTree[P],
	kNeighbors int,
	stdDevThreshold float64,
) (*pointcloud.Cloud[P], error) {
	if kNeighbors < 1 {
		return nil, errors.Errorf("kNeighbors must be at least 1, got %d", kNeighbors)
	}
	if cloud.Len() <= kNeighbors {
		return cloud.Clone(), nil
	}
	points := cloud.Points()
	meanDists := make([]float64, len(points))
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		len(points),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				// One extra neighbor because the query point itself comes
				// back at distance zero.
				neighbors := tree.KNearest(points[workNum].Position(), kNeighbors+1)
				dists := make([]float64, 0, kNeighbors)
				for _, nb := range neighbors {
					if nb.DistSq > 0 && len(dists) < kNeighbors {
						dists = append(dists, math.Sqrt(nb.DistSq))
					}
				}
				meanDists[workNum] = meanOrZero(dists)
			}, nil
		},
	)
	return keepBelowThreshold(cloud, meanDists, stdDevThreshold), nil
}

// RemoveRadiusOutliers removes points with fewer than minNeighbors other
// points within radius of them. Neighbor search is a full scan.
func RemoveRadiusOutliers[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	radius float64,
	minNeighbors int,
) (*pointcloud.Cloud[P], error) {
	if radius <= 0 {
		return nil, errors.Errorf("radius must be positive, got %f", radius)
	}
	points := cloud.Points()
	radiusSq := radius * radius
	counts := make([]int, len(points))
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		len(points),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				pos := points[workNum].Position()
				count := 0
				for j, q := range points {
					if j == workNum {
						continue
					}
					if d := q.Position().Sub(pos).Norm2(); d > 0 && d <= radiusSq {
						count++
					}
				}
				counts[workNum] = count
			}, nil
		},
	)
	return keepWhere(cloud, func(i int) bool { return counts[i] >= minNeighbors }), nil
}

// RemoveRadiusOutliersKd is RemoveRadiusOutliers with neighbor search
// served by a k-d tree built over the same points.
func RemoveRadiusOutliersKd[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	tree *search.KdTree[P],
	radius float64,
	minNeighbors int,
) (*pointcloud.Cloud[P], error) {
	if radius <= 0 {
		return nil, errors.Errorf("radius must be positive, got %f", radius)
	}
	points := cloud.Points()
	counts := make([]int, len(points))
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		len(points),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				count := 0
				for _, nb := range tree.RadiusSearch(points[workNum].Position(), radius) {
					if nb.DistSq > 0 {
						count++
					}
				}
				counts[workNum] = count
			}, nil
		},
	)
	return keepWhere(cloud, func(i int) bool { return counts[i] >= minNeighbors }), nil
}

func keepBelowThreshold[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	meanDists []float64,
	stdDevThreshold float64,
) *pointcloud.Cloud[P] {
	mean, stdDev := stat.MeanStdDev(meanDists, nil)
	threshold := mean + stdDevThreshold*stdDev
	return keepWhere(cloud, func(i int) bool { return meanDists[i] <= threshold })
}

func keepWhere[P pointcloud.Point](cloud *pointcloud.Cloud[P], keep func(i int) bool) *pointcloud.Cloud[P] {
	out := pointcloud.NewWithCapacity[P](cloud.Len())
	for i, p := range cloud.Points() {
		if keep(i) {
			out.Push(p)
		}
	}
	return out
}

func meanOrZero(dists []float64) float64 {
	if len(dists) == 0 {
		return 0
	}
	return stat.Mean(dists, nil)
}
