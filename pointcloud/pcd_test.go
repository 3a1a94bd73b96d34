package pointcloud

import (
	"bytes"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func pcdTestCloud() *Cloud[PointXYZ] {
	return FromPoints([]PointXYZ{
		NewPointXYZ(-0.5, 1.25, 2.5),
		NewPointXYZ(0, 0, 0),
		NewPointXYZ(3.75, -2.25, 0.5),
	})
}

func TestPCDRoundTrip(t *testing.T) {
	for _, pcdType := range []PCDType{PCDAscii, PCDBinary} {
		cloud := pcdTestCloud()
		var buf bytes.Buffer
		test.That(t, WritePCD(cloud, &buf, pcdType), test.ShouldBeNil)

		got, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Len(), test.ShouldEqual, cloud.Len())
		for i, p := range got.Points() {
			want := cloud.Points()[i]
			test.That(t, p.X, test.ShouldAlmostEqual, want.X, 1e-4)
			test.That(t, p.Y, test.ShouldAlmostEqual, want.Y, 1e-4)
			test.That(t, p.Z, test.ShouldAlmostEqual, want.Z, 1e-4)
		}
	}
}

func TestPCDColorRoundTrip(t *testing.T) {
	for _, pcdType := range []PCDType{PCDAscii, PCDBinary} {
		cloud := FromPoints([]PointXYZRGB{
			NewPointXYZRGB(1, 2, 3, 255, 0, 0),
			NewPointXYZRGB(-1, -2, -3, 0, 128, 255),
		})
		var buf bytes.Buffer
		test.That(t, WritePCDColor(cloud, &buf, pcdType), test.ShouldBeNil)

		got, err := ReadPCDColor(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Len(), test.ShouldEqual, cloud.Len())
		for i, p := range got.Points() {
			want := cloud.Points()[i]
			test.That(t, p.X, test.ShouldAlmostEqual, want.X, 1e-4)
			test.That(t, p.R, test.ShouldEqual, want.R)
			test.That(t, p.G, test.ShouldEqual, want.G)
			test.That(t, p.B, test.ShouldEqual, want.B)
		}
	}
}

func TestPCDViewpointMetadata(t *testing.T) {
	cloud := pcdTestCloud()
	meta := cloud.Metadata()
	meta.SensorOrigin = r3.Vector{X: 1, Y: 2, Z: 3}
	meta.SensorOrientation = quat.Number{Real: 0, Imag: 0, Jmag: 1, Kmag: 0}
	test.That(t, cloud.SetMetadata(meta), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, WritePCD(cloud, &buf, PCDAscii), test.ShouldBeNil)
	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Metadata().SensorOrigin, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, got.Metadata().SensorOrientation, test.ShouldResemble, quat.Number{Jmag: 1})
}

func TestReadPCDColorRequiresRGB(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, WritePCD(pcdTestCloud(), &buf, PCDAscii), test.ShouldBeNil)
	_, err := ReadPCDColor(&buf)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rgb")
}

func TestReadPCDDroppedColor(t *testing.T) {
	cloud := FromPoints([]PointXYZRGB{NewPointXYZRGB(1, 2, 3, 9, 8, 7)})
	var buf bytes.Buffer
	test.That(t, WritePCDColor(cloud, &buf, PCDBinary), test.ShouldBeNil)
	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Len(), test.ShouldEqual, 1)
	test.That(t, got.Points()[0].X, test.ShouldAlmostEqual, 1, 1e-4)
}

func TestPCDCompressedUnsupported(t *testing.T) {
	var buf bytes.Buffer
	err := WritePCD(pcdTestCloud(), &buf, PCDCompressed)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "compressed")
}

func TestReadPCDBadHeader(t *testing.T) {
	_, err := ReadPCD(bytes.NewBufferString("VERSION .6\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(bytes.NewBufferString("FIELDS x y z\n"))
	test.That(t, err, test.ShouldNotBeNil)
}
