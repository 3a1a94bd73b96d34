package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestViewBasic(t *testing.T) {
	cloud := FromPoints([]PointXYZ{
		NewPointXYZ(0, 0, 0),
		NewPointXYZ(1, 0, 0),
		NewPointXYZ(2, 0, 0),
		NewPointXYZ(3, 0, 0),
	})
	view := NewView(cloud)
	test.That(t, view.Len(), test.ShouldEqual, 4)

	p, ok := view.At(2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, NewPointXYZ(2, 0, 0))
	_, ok = view.At(4)
	test.That(t, ok, test.ShouldBeFalse)

	sub, err := view.Slice(1, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sub.Len(), test.ShouldEqual, 2)
	p, _ = sub.At(0)
	test.That(t, p, test.ShouldResemble, NewPointXYZ(1, 0, 0))

	_, err = view.Slice(3, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = view.Slice(0, 5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestViewFindClosest(t *testing.T) {
	empty := NewView(New[PointXYZ]())
	_, ok := empty.FindClosest(r3.Vector{})
	test.That(t, ok, test.ShouldBeFalse)

	cloud := randomCloud(200, 21)
	view := NewView(cloud)
	query := r3.Vector{X: 1, Y: 2, Z: 3}
	got, ok := view.FindClosest(query)
	test.That(t, ok, test.ShouldBeTrue)

	best := cloud.Points()[0]
	bestDist := best.Position().Sub(query).Norm2()
	for _, p := range cloud.Points() {
		if d := p.Position().Sub(query).Norm2(); d < bestDist {
			best, bestDist = p, d
		}
	}
	test.That(t, got, test.ShouldResemble, best)
}

func TestViewCountWhere(t *testing.T) {
	cloud := randomCloud(100, 22)
	view := NewView(cloud)
	n := view.CountWhere(func(p PointXYZ) bool { return p.Z > 0 })
	want := 0
	for _, p := range cloud.Points() {
		if p.Z > 0 {
			want++
		}
	}
	test.That(t, n, test.ShouldEqual, want)
}

func TestStatistics(t *testing.T) {
	_, ok := Statistics(New[PointXYZ]())
	test.That(t, ok, test.ShouldBeFalse)

	cloud := FromPoints([]PointXYZ{
		NewPointXYZ(1, 10, 100),
		NewPointXYZ(2, 20, 200),
		NewPointXYZ(3, 30, 300),
	})
	stats, ok := Statistics(cloud)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, stats.Count, test.ShouldEqual, 3)
	test.That(t, stats.Mean.X, test.ShouldAlmostEqual, 2)
	test.That(t, stats.Mean.Y, test.ShouldAlmostEqual, 20)
	test.That(t, stats.Mean.Z, test.ShouldAlmostEqual, 200)
	test.That(t, stats.Variance.X, test.ShouldAlmostEqual, 1)
	test.That(t, stats.StdDev.X, test.ShouldAlmostEqual, 1)
	test.That(t, stats.Min, test.ShouldResemble, r3.Vector{X: 1, Y: 10, Z: 100})
	test.That(t, stats.Max, test.ShouldResemble, r3.Vector{X: 3, Y: 30, Z: 300})
}
