package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// PCDType is the data encoding of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed compressed binary format for pcd.
	PCDCompressed PCDType = 2
)

func packPCDColor(r, g, b uint8) int {
	x := 0
	x |= int(r) << 16
	x |= int(g) << 8
	x |= int(b) << 0
	return x
}

func unpackPCDColor(c int) (uint8, uint8, uint8) {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return r, g, b
}

func writePCDHeader(out io.Writer, meta Metadata, numPoints int, hasColor bool, outputType PCDType) error {
	var err error
	if _, err = fmt.Fprintf(out, "VERSION .7\n"); err != nil {
		return err
	}
	if hasColor {
		_, err = fmt.Fprintf(out, "FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(out, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	width, height := numPoints, 1
	if meta.Organized && meta.PointCount() == numPoints {
		width, height = meta.Width, meta.Height
	}
	origin := meta.SensorOrigin
	orientation := meta.SensorOrientation
	if orientation == (quat.Number{}) {
		orientation = quat.Number{Real: 1}
	}
	_, err = fmt.Fprintf(out, "WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT %g %g %g %g %g %g %g\n"+
		"POINTS %d\n",
		width, height,
		origin.X, origin.Y, origin.Z,
		orientation.Real, orientation.Imag, orientation.Jmag, orientation.Kmag,
		numPoints)
	if err != nil {
		return err
	}
	switch outputType {
	case PCDAscii:
		_, err = fmt.Fprintf(out, "DATA ascii\n")
	case PCDBinary:
		_, err = fmt.Fprintf(out, "DATA binary\n")
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown pcd data type %d", outputType)
	}
	return err
}

// WritePCD writes the cloud to out as an x/y/z pcd file.
func WritePCD[P Point](cloud *Cloud[P], out io.Writer, outputType PCDType) error {
	if err := writePCDHeader(out, cloud.Metadata(), cloud.Len(), false, outputType); err != nil {
		return err
	}
	for _, p := range cloud.Points() {
		pos := p.Position()
		var err error
		switch outputType {
		case PCDBinary:
			buf := make([]byte, 12)
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WritePCDColor writes the cloud to out as an x/y/z/rgb pcd file.
func WritePCDColor[P Colored](cloud *Cloud[P], out io.Writer, outputType PCDType) error {
	if err := writePCDHeader(out, cloud.Metadata(), cloud.Len(), true, outputType); err != nil {
		return err
	}
	for _, p := range cloud.Points() {
		pos := p.Position()
		c := packPCDColor(p.RGB255())
		var err error
		switch outputType {
		case PCDBinary:
			buf := make([]byte, 16)
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			binary.LittleEndian.PutUint32(buf[12:], uint32(c))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f %d\n", pos.X, pos.Y, pos.Z, c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type pcdFieldType int

const (
	pcdPointOnly  pcdFieldType = 3
	pcdPointColor pcdFieldType = 4
)

type pcdHeader struct {
	fields      pcdFieldType
	size        []uint64
	typ         []string
	count       []uint64
	width       uint64
	height      uint64
	origin      r3.Vector
	orientation quat.Number
	points      uint64
	data        PCDType
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Split(value, " ")
	if field != name {
		return fmt.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return fmt.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		switch value {
		case "x y z":
			header.fields = pcdPointOnly
		case "x y z rgb":
			header.fields = pcdPointColor
		default:
			return fmt.Errorf("unsupported pcd fields %s", value)
		}
	case "SIZE":
		if len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid SIZE field %s", token)
			}
		}
	case "TYPE":
		if len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in TYPE line")
		}
		header.typ = append([]string{}, tokens...)
	case "COUNT":
		if len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in COUNT line")
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid COUNT field %s: %s", token, err)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid WIDTH field %s: %s", value, err)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid HEIGHT field %s: %s", value, err)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return fmt.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		viewpoint := [7]float64{}
		for i, token := range tokens {
			viewpoint[i], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return fmt.Errorf("invalid VIEWPOINT field %s: %s", token, err)
			}
		}
		header.origin = r3.Vector{X: viewpoint[0], Y: viewpoint[1], Z: viewpoint[2]}
		header.orientation = quat.Number{Real: viewpoint[3], Imag: viewpoint[4], Jmag: viewpoint[5], Kmag: viewpoint[6]}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if points != header.width*header.height {
			return fmt.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return fmt.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

func readPCDHeader(in *bufio.Reader) (pcdHeader, error) {
	header := pcdHeader{}
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return header, fmt.Errorf("error reading header line %d: %s", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return header, err
		}
		headerLineCount++
	}
	return header, nil
}

func (h pcdHeader) metadata() Metadata {
	var meta Metadata
	if h.height > 1 {
		meta = NewOrganizedMetadata(int(h.width), int(h.height))
	} else {
		meta = NewUnorganizedMetadata(int(h.points))
	}
	meta.SensorOrigin = h.origin
	meta.SensorOrientation = h.orientation
	return meta
}

// ReadPCD reads a pcd file into a positional cloud. Color data, when
// present, is dropped.
func ReadPCD(inRaw io.Reader) (*Cloud[PointXYZ], error) {
	in := bufio.NewReader(inRaw)
	header, err := readPCDHeader(in)
	if err != nil {
		return nil, err
	}
	return readPCDPoints(in, header, func(fields []float64) PointXYZ {
		return PointXYZ{X: fields[0], Y: fields[1], Z: fields[2]}
	})
}

// ReadPCDColor reads an x/y/z/rgb pcd file into a colored cloud. A file
// without an rgb field is an error.
func ReadPCDColor(inRaw io.Reader) (*Cloud[PointXYZRGB], error) {
	in := bufio.NewReader(inRaw)
	header, err := readPCDHeader(in)
	if err != nil {
		return nil, err
	}
	if header.fields != pcdPointColor {
		return nil, errors.New("pcd file does not have an rgb field")
	}
	return readPCDPoints(in, header, func(fields []float64) PointXYZRGB {
		r, g, b := unpackPCDColor(int(fields[3]))
		return PointXYZRGB{X: fields[0], Y: fields[1], Z: fields[2], R: r, G: g, B: b}
	})
}

func readPCDPoints[P Point](in *bufio.Reader, header pcdHeader, fromFields func([]float64) P) (*Cloud[P], error) {
	var points []P
	var err error
	switch header.data {
	case PCDAscii:
		points, err = readPCDAscii(in, header, fromFields)
	case PCDBinary:
		points, err = readPCDBinary(in, header, fromFields)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
	if err != nil {
		return nil, err
	}
	return FromPointsAndMetadata(points, header.metadata())
}

func readPCDAscii[P Point](in *bufio.Reader, header pcdHeader, fromFields func([]float64) P) ([]P, error) {
	points := make([]P, 0, header.points)
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		tokens := strings.Fields(line)
		if len(tokens) != int(header.fields) {
			return nil, fmt.Errorf("unexpected number of fields in point %d", i)
		}
		fields := make([]float64, len(tokens))
		for j, token := range tokens {
			fields[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid point %d field %s: %s", i, token, err)
			}
		}
		points = append(points, fromFields(fields))
	}
	return points, nil
}

func readPCDBinary[P Point](in *bufio.Reader, header pcdHeader, fromFields func([]float64) P) ([]P, error) {
	points := make([]P, 0, header.points)
	for i := 0; i < int(header.points); i++ {
		fields := make([]float64, int(header.fields))
		for j := 0; j < int(header.fields); j++ {
			buf := make([]byte, header.size[j])
			if _, err := io.ReadFull(in, buf); err != nil {
				return nil, err
			}
			bits := binary.LittleEndian.Uint32(buf)
			if j < 3 {
				fields[j] = float64(math.Float32frombits(bits))
			} else {
				fields[j] = float64(bits)
			}
		}
		points = append(points, fromFields(fields))
	}
	return points, nil
}
