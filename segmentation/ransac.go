package segmentation

import (
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
	"github.com/StepfenShawn/ferrum-cloud/utils"
)

// SegmentPlane finds the plane supported by the most points in the cloud
// with RANSAC: maxIterations random 3-point minimal samples, each scored by
// how many points lie within distanceThreshold of its plane. Degenerate
// samples are skipped without consuming a scored iteration's result. It
// returns the best plane and the indices of its inliers. The random source
// is fixed so runs are reproducible.
func SegmentPlane[P pointcloud.Point](
	cloud *pointcloud.Cloud[P],
	maxIterations int,
	distanceThreshold float64,
	logger golog.Logger,
) (Plane, []int, error) {
	if cloud.Len() < 3 {
		return Plane{}, nil, errors.Errorf("need at least 3 points to segment a plane, got %d", cloud.Len())
	}
	if maxIterations < 1 {
		return Plane{}, nil, errors.Errorf("maxIterations must be at least 1, got %d", maxIterations)
	}
	//nolint:gosec
	r := rand.New(rand.NewSource(1))
	points := cloud.Points()
	nPoints := len(points)

	var bestPlane Plane
	bestInliers := -1

	for i := 0; i < maxIterations; i++ {
		n1 := utils.SampleRandomIntRange(0, nPoints-1, r)
		n2 := utils.SampleRandomIntRange(0, nPoints-1, r)
		n3 := utils.SampleRandomIntRange(0, nPoints-1, r)
		if n1 == n2 || n1 == n3 || n2 == n3 {
			continue
		}
		plane, err := FitPlane(points[n1].Position(), points[n2].Position(), points[n3].Position())
		if err != nil {
			continue
		}

		inliers := 0
		for _, pt := range points {
			if plane.Distance(pt.Position()) <= distanceThreshold {
				inliers++
			}
		}
		if inliers > bestInliers {
			bestInliers = inliers
			bestPlane = plane
		}
	}
	if bestInliers < 0 {
		return Plane{}, nil, errors.New("no non-degenerate plane found; are all points collinear?")
	}

	inlierIndices := make([]int, 0, bestInliers)
	for i, pt := range points {
		if bestPlane.Distance(pt.Position()) <= distanceThreshold {
			inlierIndices = append(inlierIndices, i)
		}
	}
	logger.Debugf("segmented plane with %d of %d points as inliers after %d iterations",
		len(inlierIndices), nPoints, maxIterations)
	return bestPlane, inlierIndices, nil
}
