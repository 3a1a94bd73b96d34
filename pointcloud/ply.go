package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// plyHeader describes the vertex element of an ascii ply file. Only float
// or double x/y/z properties plus optional uchar red/green/blue are
// supported; other elements and properties are rejected.
type plyHeader struct {
	vertexCount int
	hasColor    bool
	properties  []string
}

// WritePLY writes the cloud to out as an ascii ply file of x/y/z vertices.
func WritePLY[P Point](cloud *Cloud[P], out io.Writer) error {
	if err := writePLYHeader(out, cloud.Len(), false); err != nil {
		return err
	}
	for _, p := range cloud.Points() {
		pos := p.Position()
		if _, err := fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z); err != nil {
			return err
		}
	}
	return nil
}

// WritePLYColor writes the cloud to out as an ascii ply file of colored
// x/y/z vertices.
func WritePLYColor[P Colored](cloud *Cloud[P], out io.Writer) error {
	if err := writePLYHeader(out, cloud.Len(), true); err != nil {
		return err
	}
	for _, p := range cloud.Points() {
		pos := p.Position()
		r, g, b := p.RGB255()
		if _, err := fmt.Fprintf(out, "%f %f %f %d %d %d\n", pos.X, pos.Y, pos.Z, r, g, b); err != nil {
			return err
		}
	}
	return nil
}

func writePLYHeader(out io.Writer, numVertices int, hasColor bool) error {
	if _, err := fmt.Fprintf(out, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n",
		numVertices); err != nil {
		return err
	}
	if hasColor {
		if _, err := fmt.Fprintf(out, "property uchar red\n"+
			"property uchar green\n"+
			"property uchar blue\n"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "end_header\n")
	return err
}

func readPLYHeader(in *bufio.Reader) (plyHeader, error) {
	header := plyHeader{vertexCount: -1}
	line, err := in.ReadString('\n')
	if err != nil {
		return header, errors.Wrap(err, "error reading ply magic")
	}
	if strings.TrimSpace(line) != "ply" {
		return header, errors.New("file does not start with ply magic")
	}
	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return header, errors.Wrap(err, "unexpected end of ply header")
		}
		line = strings.TrimSpace(line)
		tokens := strings.Fields(line)
		if len(tokens) == 0 || tokens[0] == "comment" {
			continue
		}
		switch tokens[0] {
		case "format":
			if len(tokens) != 3 || tokens[1] != "ascii" {
				return header, errors.Errorf("unsupported ply format %q", line)
			}
		case "element":
			if len(tokens) != 3 || tokens[1] != "vertex" {
				return header, errors.Errorf("unsupported ply element %q", line)
			}
			header.vertexCount, err = strconv.Atoi(tokens[2])
			if err != nil {
				return header, errors.Errorf("invalid vertex count %q", tokens[2])
			}
		case "property":
			if len(tokens) != 3 {
				return header, errors.Errorf("invalid ply property %q", line)
			}
			switch tokens[2] {
			case "x", "y", "z":
				if tokens[1] != "float" && tokens[1] != "double" {
					return header, errors.Errorf("unsupported type %s for property %s", tokens[1], tokens[2])
				}
			case "red", "green", "blue":
				if tokens[1] != "uchar" {
					return header, errors.Errorf("unsupported type %s for property %s", tokens[1], tokens[2])
				}
				header.hasColor = true
			default:
				return header, errors.Errorf("unsupported ply property %q", tokens[2])
			}
			header.properties = append(header.properties, tokens[2])
		case "end_header":
			if header.vertexCount < 0 {
				return header, errors.New("ply header has no vertex element")
			}
			return header, nil
		default:
			return header, errors.Errorf("unsupported ply header line %q", line)
		}
	}
}

// ReadPLY reads an ascii ply file into a positional cloud. Color data, when
// present, is dropped.
func ReadPLY(inRaw io.Reader) (*Cloud[PointXYZ], error) {
	in := bufio.NewReader(inRaw)
	header, err := readPLYHeader(in)
	if err != nil {
		return nil, err
	}
	return readPLYVertices(in, header, func(fields map[string]float64) PointXYZ {
		return PointXYZ{X: fields["x"], Y: fields["y"], Z: fields["z"]}
	})
}

// ReadPLYColor reads an ascii ply file with red/green/blue vertex
// properties into a colored cloud. A file without color properties is an
// error.
func ReadPLYColor(inRaw io.Reader) (*Cloud[PointXYZRGB], error) {
	in := bufio.NewReader(inRaw)
	header, err := readPLYHeader(in)
	if err != nil {
		return nil, err
	}
	if !header.hasColor {
		return nil, errors.New("ply file does not have color properties")
	}
	return readPLYVertices(in, header, func(fields map[string]float64) PointXYZRGB {
		return PointXYZRGB{
			X: fields["x"], Y: fields["y"], Z: fields["z"],
			R: uint8(fields["red"]), G: uint8(fields["green"]), B: uint8(fields["blue"]),
		}
	})
}

func readPLYVertices[P Point](in *bufio.Reader, header plyHeader, fromFields func(map[string]float64) P) (*Cloud[P], error) {
	cloud := NewWithCapacity[P](header.vertexCount)
	for i := 0; i < header.vertexCount; i++ {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading vertex %d", i)
		}
		tokens := strings.Fields(strings.TrimSpace(line))
		if len(tokens) != len(header.properties) {
			return nil, errors.Errorf("vertex %d has %d values, want %d", i, len(tokens), len(header.properties))
		}
		fields := make(map[string]float64, len(tokens))
		for j, token := range tokens {
			fields[header.properties[j]], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Errorf("invalid vertex %d value %q", i, token)
			}
		}
		cloud.Push(fromFields(fields))
	}
	return cloud, nil
}
