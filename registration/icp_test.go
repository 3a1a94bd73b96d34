package registration

import (
	"math"
	"math/rand"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
	"github.com/StepfenShawn/ferrum-cloud/search"
)

func randomTargetCloud(n int, seed int64) *pointcloud.Cloud[pointcloud.PointXYZ] {
	//nolint:gosec
	r := rand.New(rand.NewSource(seed))
	points := make([]pointcloud.PointXYZ, n)
	for i := range points {
		points[i] = pointcloud.PointXYZ{
			X: r.Float64() * 10,
			Y: r.Float64() * 10,
			Z: r.Float64() * 10,
		}
	}
	return pointcloud.FromPoints(points)
}

func TestRigidTransformBasic(t *testing.T) {
	identity := IdentityTransform()
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, identity.Apply(v), test.ShouldResemble, v)

	// Rotate 90 degrees about z and translate.
	rot := mat.NewDense(3, 3, []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	transform := RigidTransform{Rotation: rot, Translation: r3.Vector{X: 10}}
	got := transform.Apply(r3.Vector{X: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 10)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0)

	// Composition applies right-to-left.
	composed := transform.Compose(identity)
	got = composed.Apply(r3.Vector{X: 1})
	test.That(t, got.Y, test.ShouldAlmostEqual, 1)

	back := RigidTransform{Rotation: mat.NewDense(3, 3, []float64{
		0, 1, 0,
		-1, 0, 0,
		0, 0, 1,
	}), Translation: r3.Vector{}}
	roundTrip := back.Compose(RigidTransform{Rotation: rot, Translation: r3.Vector{}})
	got = roundTrip.Apply(v)
	test.That(t, got.X, test.ShouldAlmostEqual, v.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, v.Y)
}

func TestICPTranslation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	target := randomTargetCloud(100, 60)
	offset := r3.Vector{X: 0.3, Y: -0.2, Z: 0.1}
	source := pointcloud.Map(target, func(p pointcloud.PointXYZ) pointcloud.PointXYZ {
		return p.WithPosition(p.Position().Sub(offset))
	})
	tree := search.BuildKdTreeFromCloud(target)

	transform, info, err := ICP(source, tree, 50, 1e-10, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Converged, test.ShouldBeTrue)
	test.That(t, info.MeanSquaredError, test.ShouldBeLessThan, 1e-6)

	aligned := TransformCloud(source, transform)
	for i, p := range aligned.Points() {
		want := target.Points()[i]
		test.That(t, p.X, test.ShouldAlmostEqual, want.X, 1e-3)
		test.That(t, p.Y, test.ShouldAlmostEqual, want.Y, 1e-3)
		test.That(t, p.Z, test.ShouldAlmostEqual, want.Z, 1e-3)
	}
}

func TestICPAlreadyAligned(t *testing.T) {
	logger := golog.NewTestLogger(t)
	target := randomTargetCloud(50, 61)
	tree := search.BuildKdTreeFromCloud(target)

	transform, info, err := ICP(target.Clone(), tree, 10, 1e-9, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Converged, test.ShouldBeTrue)
	// One iteration to measure, one to observe no further improvement.
	test.That(t, info.Iterations, test.ShouldEqual, 2)
	test.That(t, info.MeanSquaredError, test.ShouldAlmostEqual, 0)

	v := r3.Vector{X: 1, Y: 2, Z: 3}
	got := transform.Apply(v)
	test.That(t, got.X, test.ShouldAlmostEqual, v.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, v.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, v.Z)
}

func TestICPParams(t *testing.T) {
	logger := golog.NewTestLogger(t)
	target := randomTargetCloud(10, 62)
	tree := search.BuildKdTreeFromCloud(target)

	_, _, err := ICP(pointcloud.New[pointcloud.PointXYZ](), tree, 10, 1e-9, logger)
	test.That(t, err, test.ShouldNotBeNil)

	empty := search.BuildKdTree([]pointcloud.PointXYZ{})
	_, _, err = ICP(target, empty, 10, 1e-9, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = ICP(target, tree, 0, 1e-9, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = ICP(target, tree, 10, -1, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEstimateRigidTransformRotation(t *testing.T) {
	// Recover a known rotation about z plus translation from exact pairs.
	angle := math.Pi / 6
	rot := mat.NewDense(3, 3, []float64{
		math.Cos(angle), -math.Sin(angle), 0,
		math.Sin(angle), math.Cos(angle), 0,
		0, 0, 1,
	})
	want := RigidTransform{Rotation: rot, Translation: r3.Vector{X: 1, Y: -2, Z: 3}}

	source := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 2, Y: 3, Z: -1},
	}
	target := make([]r3.Vector, len(source))
	for i, s := range source {
		target[i] = want.Apply(s)
	}

	got, err := estimateRigidTransform(source, target)
	test.That(t, err, test.ShouldBeNil)
	for _, s := range source {
		a, b := got.Apply(s), want.Apply(s)
		test.That(t, a.X, test.ShouldAlmostEqual, b.X)
		test.That(t, a.Y, test.ShouldAlmostEqual, b.Y)
		test.That(t, a.Z, test.ShouldAlmostEqual, b.Z)
	}
	// The recovered rotation is proper (determinant +1).
	test.That(t, mat.Det(got.Rotation), test.ShouldAlmostEqual, 1)
}
