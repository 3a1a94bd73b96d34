package segmentation

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
	"github.com/StepfenShawn/ferrum-cloud/search"
	"github.com/StepfenShawn/ferrum-cloud/utils"
)

// defaultNormal stands in when a point has too few neighbors for PCA.
var defaultNormal = r3.Vector{Z: 1}

// EstimateNormals computes a surface normal for every point as the
// smallest-eigenvalue eigenvector of the covariance of its neighbors
// within searchRadius, found through a k-d tree. Points with fewer than 3
// neighbors get a +Z normal. All normals are flipped into the +Z
// hemisphere. Points are processed in parallel; the result is indexed like
// the cloud.
func EstimateNormals[P pointcloud.Point](cloud *pointcloud.Cloud[P], searchRadius float64) ([]r3.Vector, error) {
	if searchRadius <= 0 {
		return nil, errors.Errorf("searchRadius must be positive, got %f", searchRadius)
	}
	points := cloud.Points()
	normals := make([]r3.Vector, len(points))
	if len(points) == 0 {
		return normals, nil
	}
	tree := search.BuildKdTree(points)
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		len(points),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				neighbors := tree.RadiusSearch(points[workNum].Position(), searchRadius)
				normals[workNum] = normalFromNeighbors(neighbors)
			}, nil
		},
	)
	return normals, nil
}

func normalFromNeighbors[P pointcloud.Point](neighbors []search.Neighbor[P]) r3.Vector {
	if len(neighbors) < 3 {
		return defaultNormal
	}
	centroid := r3.Vector{}
	for _, nb := range neighbors {
		centroid = centroid.Add(nb.Point.Position())
	}
	centroid = centroid.Mul(1.0 / float64(len(neighbors)))

	var xx, xy, xz, yy, yz, zz float64
	for _, nb := range neighbors {
		d := nb.Point.Position().Sub(centroid)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	cov := mat.NewSymDense(3, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return defaultNormal
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	// Eigenvalues come back in ascending order; the surface normal is the
	// direction of least variance.
	normal := r3.Vector{X: vectors.At(0, 0), Y: vectors.At(1, 0), Z: vectors.At(2, 0)}
	if normal.Norm() < degenerateNormalEps {
		return defaultNormal
	}
	normal = normal.Normalize()
	if normal.Z < 0 {
		normal = normal.Mul(-1)
	}
	return normal
}
