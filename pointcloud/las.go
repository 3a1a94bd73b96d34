package pointcloud

import (
	"fmt"

	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// float64 represents integers exactly only inside this range; LAS stores
// scaled integer coordinates, so values outside it may not round-trip.
const (
	maxPreciseFloat64 = float64(1 << 53)
	minPreciseFloat64 = -float64(1 << 53)
)

// ReadLAS reads a LAS file into a colored cloud. Point records without
// color decode as white. If any lossiness of points could occur from
// reading it in, it's reported but is not an error.
func ReadLAS(fn string, logger golog.Logger) (*Cloud[PointXYZRGB], error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(lf.Close)

	cloud := NewWithCapacity[PointXYZRGB](lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()

		x, y, z := data.X, data.Y, data.Z
		if x < minPreciseFloat64 || x > maxPreciseFloat64 ||
			y < minPreciseFloat64 || y > maxPreciseFloat64 ||
			z < minPreciseFloat64 || z > maxPreciseFloat64 {
			logger.Warnf("potential floating point lossiness for LAS point",
				"point", data, "range", fmt.Sprintf("[%f,%f]", minPreciseFloat64, maxPreciseFloat64))
		}

		point := PointXYZRGB{X: x, Y: y, Z: z, R: 255, G: 255, B: 255}
		if lf.Header.PointFormatID == 2 && p.RgbData() != nil {
			point.R = uint8(p.RgbData().Red / 256)
			point.G = uint8(p.RgbData().Green / 256)
			point.B = uint8(p.RgbData().Blue / 256)
		}
		cloud.Push(point)
	}
	return cloud, nil
}

// WriteLAS writes the cloud out to a LAS file with point format 0
// (position only).
func WriteLAS[P Point](cloud *Cloud[P], fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: 0,
	}); err != nil {
		return
	}

	for _, p := range cloud.Points() {
		if err = lf.AddLasPoint(lasPointRecord0(p)); err != nil {
			return
		}
	}
	//nolint:nakedret
	return
}

// WriteLASColor writes the cloud out to a LAS file with point format 2
// (position and color).
func WriteLASColor[P Colored](cloud *Cloud[P], fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: 2,
	}); err != nil {
		return
	}

	for _, p := range cloud.Points() {
		r, g, b := p.RGB255()
		record := &lidario.PointRecord2{
			PointRecord0: lasPointRecord0(p),
			RGB: &lidario.RgbData{
				Red:   uint16(int(r) * 256),
				Green: uint16(int(g) * 256),
				Blue:  uint16(int(b) * 256),
			},
		}
		if err = lf.AddLasPoint(record); err != nil {
			return
		}
	}
	//nolint:nakedret
	return
}

func lasPointRecord0(p Point) *lidario.PointRecord0 {
	pos := p.Position()
	return &lidario.PointRecord0{
		X: pos.X,
		Y: pos.Y,
		Z: pos.Z,
		BitField: lidario.PointBitField{
			Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
		},
		ClassBitField: lidario.ClassificationBitField{
			Value: 0,
		},
		ScanAngle:     0,
		UserData:      0,
		PointSourceID: 1,
	}
}
