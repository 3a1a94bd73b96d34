// Package registration aligns point clouds with rigid transforms,
// estimated by iterative closest point.
package registration

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
	"github.com/StepfenShawn/ferrum-cloud/search"
)

// RigidTransform is a rotation followed by a translation.
type RigidTransform struct {
	Rotation    *mat.Dense // 3x3
	Translation r3.Vector
}

// IdentityTransform returns the transform that maps every position to
// itself.
func IdentityTransform() RigidTransform {
	return RigidTransform{
		Rotation: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
	}
}

func (t RigidTransform) rotate(v r3.Vector) r3.Vector {
	r := t.Rotation
	return r3.Vector{
		X: r.At(0, 0)*v.X + r.At(0, 1)*v.Y + r.At(0, 2)*v.Z,
		Y: r.At(1, 0)*v.X + r.At(1, 1)*v.Y + r.At(1, 2)*v.Z,
		Z: r.At(2, 0)*v.X + r.At(2, 1)*v.Y + r.At(2, 2)*v.Z,
	}
}

// Apply transforms the position.
func (t RigidTransform) Apply(v r3.Vector) r3.Vector {
	return t.rotate(v).Add(t.Translation)
}

// Compose returns the transform equivalent to applying other first and
// then t.
func (t RigidTransform) Compose(other RigidTransform) RigidTransform {
	var rotation mat.Dense
	rotation.Mul(t.Rotation, other.Rotation)
	return RigidTransform{
		Rotation:    &rotation,
		Translation: t.rotate(other.Translation).Add(t.Translation),
	}
}

// ICPInfo reports how an ICP run went.
type ICPInfo struct {
	Iterations       int
	MeanSquaredError float64
	Converged        bool
}

// ICP estimates the rigid transform aligning the source cloud onto the
// target, given as a prebuilt k-d tree. Each iteration matches every
// source point to its nearest target point, estimates the least-squares
// rigid transform between the matched sets (Kabsch with SVD), and applies
// it. Iteration stops when the mean squared correspondence error improves
// by less than tolerance, or after maxIterations.
func ICP[P pointcloud.Movable[P], Q pointcloud.Point](
	source *pointcloud.Cloud[P],
	target *search.KdTree[Q],
	maxIterations int,
	tolerance float64,
	logger golog.Logger,
) (RigidTransform, ICPInfo, error) {
	if source.IsEmpty() {
		return IdentityTransform(), ICPInfo{}, errors.New("source cloud is empty")
	}
	if target.Len() == 0 {
		return IdentityTransform(), ICPInfo{}, errors.New("target tree is empty")
	}
	if maxIterations < 1 {
		return IdentityTransform(), ICPInfo{}, errors.Errorf("maxIterations must be at least 1, got %d", maxIterations)
	}
	if tolerance < 0 {
		return IdentityTransform(), ICPInfo{}, errors.Errorf("tolerance must not be negative, got %f", tolerance)
	}

	current := make([]r3.Vector, source.Len())
	for i, p := range source.Points() {
		current[i] = p.Position()
	}

	total := IdentityTransform()
	info := ICPInfo{MeanSquaredError: math.Inf(1)}
	prevMSE := math.Inf(1)

	for iteration := 0; iteration < maxIterations; iteration++ {
		matched := make([]r3.Vector, len(current))
		mse := 0.0
		for i, pos := range current {
			nearest, _ := target.NearestNeighbor(pos)
			matched[i] = nearest.Position()
			mse += matched[i].Sub(pos).Norm2()
		}
		mse /= float64(len(current))

		info.Iterations = iteration + 1
		info.MeanSquaredError = mse
		logger.Debugf("icp iteration %d: mse %f", iteration+1, mse)
		if prevMSE-mse < tolerance {
			info.Converged = true
			break
		}
		prevMSE = mse

		delta, err := estimateRigidTransform(current, matched)
		if err != nil {
			return total, info, err
		}
		for i := range current {
			current[i] = delta.Apply(current[i])
		}
		total = delta.Compose(total)
	}
	return total, info, nil
}

// estimateRigidTransform returns the least-squares rigid transform mapping
// the source positions onto their paired target positions (Kabsch
// algorithm). The SVD determinant correction keeps the rotation proper.
func estimateRigidTransform(source, target []r3.Vector) (RigidTransform, error) {
	sourceCentroid := centroid(source)
	targetCentroid := centroid(target)

	cross := mat.NewDense(3, 3, nil)
	for i := range source {
		s := source[i].Sub(sourceCentroid)
		t := target[i].Sub(targetCentroid)
		outer := mat.NewDense(3, 3, []float64{
			s.X * t.X, s.X * t.Y, s.X * t.Z,
			s.Y * t.X, s.Y * t.Y, s.Y * t.Z,
			s.Z * t.X, s.Z * t.Y, s.Z * t.Z,
		})
		cross.Add(cross, outer)
	}

	var svd mat.SVD
	if !svd.Factorize(cross, mat.SVDFull) {
		return IdentityTransform(), errors.New("svd of cross-covariance matrix failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	correction := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, mat.Det(&vut),
	})
	var rotation mat.Dense
	rotation.Product(&v, correction, u.T())

	transform := RigidTransform{Rotation: &rotation}
	transform.Translation = targetCentroid.Sub(transform.rotate(sourceCentroid))
	return transform, nil
}

func centroid(positions []r3.Vector) r3.Vector {
	sum := r3.Vector{}
	for _, pos := range positions {
		sum = sum.Add(pos)
	}
	return sum.Mul(1.0 / float64(len(positions)))
}

// TransformCloud returns a copy of the cloud with the transform applied to
// every point.
func TransformCloud[P pointcloud.Movable[P]](cloud *pointcloud.Cloud[P], t RigidTransform) *pointcloud.Cloud[P] {
	return pointcloud.Map(cloud, func(p P) P {
		return p.WithPosition(t.Apply(p.Position()))
	})
}
