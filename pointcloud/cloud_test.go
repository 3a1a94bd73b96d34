package pointcloud

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func randomCloud(n int, seed int64) *Cloud[PointXYZ] {
	//nolint:gosec
	r := rand.New(rand.NewSource(seed))
	points := make([]PointXYZ, n)
	for i := range points {
		points[i] = PointXYZ{
			X: r.Float64()*20 - 10,
			Y: r.Float64()*20 - 10,
			Z: r.Float64()*20 - 10,
		}
	}
	return FromPoints(points)
}

func TestCloudBasic(t *testing.T) {
	cloud := New[PointXYZ]()
	test.That(t, cloud.Len(), test.ShouldEqual, 0)
	test.That(t, cloud.IsEmpty(), test.ShouldBeTrue)

	cloud.Push(NewPointXYZ(1, 2, 3))
	cloud.Push(NewPointXYZ(4, 5, 6))
	test.That(t, cloud.Len(), test.ShouldEqual, 2)
	test.That(t, cloud.IsEmpty(), test.ShouldBeFalse)
	test.That(t, cloud.Metadata().Width, test.ShouldEqual, 2)
	test.That(t, cloud.Metadata().Height, test.ShouldEqual, 1)

	p, ok := cloud.At(0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, NewPointXYZ(1, 2, 3))
	_, ok = cloud.At(2)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = cloud.At(-1)
	test.That(t, ok, test.ShouldBeFalse)

	cloud.Extend([]PointXYZ{NewPointXYZ(7, 8, 9), NewPointXYZ(10, 11, 12)})
	test.That(t, cloud.Len(), test.ShouldEqual, 4)
	test.That(t, cloud.Metadata().Width, test.ShouldEqual, 4)

	removed, err := cloud.Remove(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldResemble, NewPointXYZ(4, 5, 6))
	test.That(t, cloud.Len(), test.ShouldEqual, 3)
	test.That(t, cloud.Metadata().Width, test.ShouldEqual, 3)
	p, _ = cloud.At(1)
	test.That(t, p, test.ShouldResemble, NewPointXYZ(7, 8, 9))

	_, err = cloud.Remove(17)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "out of bounds")

	cloud.Clear()
	test.That(t, cloud.IsEmpty(), test.ShouldBeTrue)
	test.That(t, cloud.Metadata().Width, test.ShouldEqual, 0)
}

func TestCloudOrganizedMetadata(t *testing.T) {
	points := make([]PointXYZ, 6)
	cloud, err := FromPointsAndMetadata(points, NewOrganizedMetadata(3, 2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Metadata().Organized, test.ShouldBeTrue)
	test.That(t, cloud.Metadata().PointCount(), test.ShouldEqual, 6)

	_, err = FromPointsAndMetadata(points, NewOrganizedMetadata(4, 2))
	test.That(t, err, test.ShouldNotBeNil)

	// Mutation breaks the grid layout.
	cloud.Push(PointXYZ{})
	test.That(t, cloud.Metadata().Organized, test.ShouldBeFalse)
	test.That(t, cloud.Metadata().Width, test.ShouldEqual, 7)
	test.That(t, cloud.Metadata().Height, test.ShouldEqual, 1)
}

func TestCloudFilter(t *testing.T) {
	cloud := randomCloud(500, 11)
	filtered := cloud.Filter(func(p PointXYZ) bool { return p.X > 0 })
	for _, p := range filtered.Points() {
		test.That(t, p.X, test.ShouldBeGreaterThan, 0)
	}
	want := 0
	for _, p := range cloud.Points() {
		if p.X > 0 {
			want++
		}
	}
	test.That(t, filtered.Len(), test.ShouldEqual, want)
	test.That(t, filtered.Metadata().Width, test.ShouldEqual, want)
	// Input untouched.
	test.That(t, cloud.Len(), test.ShouldEqual, 500)

	all := cloud.Filter(func(PointXYZ) bool { return true })
	test.That(t, all.Len(), test.ShouldEqual, cloud.Len())
	none := cloud.Filter(func(PointXYZ) bool { return false })
	test.That(t, none.Len(), test.ShouldEqual, 0)
}

func TestCloudMap(t *testing.T) {
	cloud := randomCloud(100, 12)
	shifted := Map(cloud, func(p PointXYZ) PointXYZ {
		return p.WithPosition(p.Position().Add(r3.Vector{X: 1}))
	})
	test.That(t, shifted.Len(), test.ShouldEqual, cloud.Len())
	for i, p := range shifted.Points() {
		test.That(t, p.X, test.ShouldAlmostEqual, cloud.Points()[i].X+1)
		test.That(t, p.Y, test.ShouldAlmostEqual, cloud.Points()[i].Y)
	}

	colored := Map(cloud, func(p PointXYZ) PointXYZRGB {
		return PointXYZRGB{X: p.X, Y: p.Y, Z: p.Z, R: 255}
	})
	test.That(t, colored.Len(), test.ShouldEqual, cloud.Len())
	r, _, _ := colored.Points()[0].RGB255()
	test.That(t, r, test.ShouldEqual, uint8(255))
}

func TestCloudBoundingBoxAndCentroid(t *testing.T) {
	empty := New[PointXYZ]()
	_, _, ok := empty.BoundingBox()
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = empty.Centroid()
	test.That(t, ok, test.ShouldBeFalse)

	cloud := FromPoints([]PointXYZ{
		NewPointXYZ(10, 100, 1000),
		NewPointXYZ(20, 200, 2000),
		NewPointXYZ(30, 300, 3000),
	})
	min, max, ok := cloud.BoundingBox()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, min, test.ShouldResemble, r3.Vector{X: 10, Y: 100, Z: 1000})
	test.That(t, max, test.ShouldResemble, r3.Vector{X: 30, Y: 300, Z: 3000})

	centroid, ok := cloud.Centroid()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, centroid.X, test.ShouldAlmostEqual, 20)
	test.That(t, centroid.Y, test.ShouldAlmostEqual, 200)
	test.That(t, centroid.Z, test.ShouldAlmostEqual, 2000)

	// Parallel reduction agrees with a straight scan on larger input.
	big := randomCloud(1234, 13)
	min, max, _ = big.BoundingBox()
	wantMin, wantMax := big.Points()[0].Position(), big.Points()[0].Position()
	sum := r3.Vector{}
	for _, p := range big.Points() {
		pos := p.Position()
		if pos.X < wantMin.X {
			wantMin.X = pos.X
		}
		if pos.Y < wantMin.Y {
			wantMin.Y = pos.Y
		}
		if pos.Z < wantMin.Z {
			wantMin.Z = pos.Z
		}
		if pos.X > wantMax.X {
			wantMax.X = pos.X
		}
		if pos.Y > wantMax.Y {
			wantMax.Y = pos.Y
		}
		if pos.Z > wantMax.Z {
			wantMax.Z = pos.Z
		}
		sum = sum.Add(pos)
	}
	test.That(t, min, test.ShouldResemble, wantMin)
	test.That(t, max, test.ShouldResemble, wantMax)
	centroid, _ = big.Centroid()
	test.That(t, centroid.X, test.ShouldAlmostEqual, sum.X/float64(big.Len()))
	test.That(t, centroid.Y, test.ShouldAlmostEqual, sum.Y/float64(big.Len()))
	test.That(t, centroid.Z, test.ShouldAlmostEqual, sum.Z/float64(big.Len()))
}

func TestCloudCrop(t *testing.T) {
	cloud := randomCloud(300, 14)
	min := r3.Vector{X: -5, Y: -5, Z: -5}
	max := r3.Vector{X: 5, Y: 5, Z: 5}
	cropped := cloud.Crop(min, max)
	want := 0
	for _, p := range cloud.Points() {
		pos := p.Position()
		if pos.X >= min.X && pos.X <= max.X &&
			pos.Y >= min.Y && pos.Y <= max.Y &&
			pos.Z >= min.Z && pos.Z <= max.Z {
			want++
		}
	}
	test.That(t, cropped.Len(), test.ShouldEqual, want)
	for _, p := range cropped.Points() {
		test.That(t, p.X, test.ShouldBeBetweenOrEqual, -5, 5)
		test.That(t, p.Y, test.ShouldBeBetweenOrEqual, -5, 5)
		test.That(t, p.Z, test.ShouldBeBetweenOrEqual, -5, 5)
	}
}

func TestDistanceHelpers(t *testing.T) {
	a := NewPointXYZ(0, 0, 0)
	b := NewPointXYZ(3, 4, 0)
	test.That(t, SquaredDistance(a, b), test.ShouldAlmostEqual, 25)
	test.That(t, Distance(a, b), test.ShouldAlmostEqual, 5)
}

func TestMetadataDense(t *testing.T) {
	meta := NewUnorganizedMetadata(0)
	test.That(t, meta.Dense(), test.ShouldBeFalse)
	meta.SetDense(true)
	test.That(t, meta.Dense(), test.ShouldBeTrue)
	meta.SetDense(false)
	test.That(t, meta.Dense(), test.ShouldBeFalse)

	clone := meta.Clone()
	clone.SetDense(true)
	test.That(t, meta.Dense(), test.ShouldBeFalse)
}
