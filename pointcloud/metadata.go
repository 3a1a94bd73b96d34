package pointcloud

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// denseField is the custom-field key marking a cloud as containing no
// invalid (NaN) points.
const denseField = "dense"

// Metadata carries the acquisition context of a cloud: its organized
// dimensions, the sensor pose the points were captured from, and free-form
// custom fields.
type Metadata struct {
	Width  int
	Height int
	// Organized marks a cloud laid out as a Width x Height grid of samples.
	// Unorganized clouds keep Height == 1 and Width equal to the point count.
	Organized bool

	SensorOrigin      r3.Vector
	SensorOrientation quat.Number

	CustomFields map[string]string
}

// NewUnorganizedMetadata returns metadata for an unstructured cloud of the
// given size, with an identity sensor orientation.
func NewUnorganizedMetadata(size int) Metadata {
	return Metadata{
		Width:             size,
		Height:            1,
		Organized:         false,
		SensorOrientation: quat.Number{Real: 1},
		CustomFields:      map[string]string{},
	}
}

// NewOrganizedMetadata returns metadata for a cloud laid out as a
// width x height grid.
func NewOrganizedMetadata(width, height int) Metadata {
	return Metadata{
		Width:             width,
		Height:            height,
		Organized:         true,
		SensorOrientation: quat.Number{Real: 1},
		CustomFields:      map[string]string{},
	}
}

// PointCount returns the number of points the metadata describes.
func (m Metadata) PointCount() int {
	return m.Width * m.Height
}

// Dense reports whether the cloud was marked as containing no invalid points.
func (m Metadata) Dense() bool {
	return m.CustomFields[denseField] == "true"
}

// SetDense marks whether the cloud contains invalid points.
func (m *Metadata) SetDense(dense bool) {
	if m.CustomFields == nil {
		m.CustomFields = map[string]string{}
	}
	if dense {
		m.CustomFields[denseField] = "true"
	} else {
		m.CustomFields[denseField] = "false"
	}
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	out := m
	out.CustomFields = make(map[string]string, len(m.CustomFields))
	for k, v := range m.CustomFields {
		out.CustomFields[k] = v
	}
	return out
}
