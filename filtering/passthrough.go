package filtering

import (
	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
)

// Axis selects a coordinate axis for the pass-through filter.
type Axis int

// The three coordinate axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// PassThrough keeps the points whose coordinate on the given axis lies in
// the inclusive range [min, max].
func PassThrough[P pointcloud.Point](cloud *pointcloud.Cloud[P], axis Axis, min, max float64) *pointcloud.Cloud[P] {
	return cloud.Filter(func(p P) bool {
		pos := p.Position()
		var c float64
		switch axis {
		case AxisX:
			c = pos.X
		case AxisY:
			c = pos.Y
		default:
			c = pos.Z
		}
		return c >= min && c <= max
	})
}
