// Package filtering provides cloud reduction filters: voxel downsampling,
// statistical and radius outlier removal, and axis pass-through cropping.
// Each filter returns a new cloud and leaves its input untouched.
package filtering

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/StepfenShawn/ferrum-cloud/pointcloud"
)

// VoxelKey is the integer grid coordinate of a voxel.
type VoxelKey struct {
	I, J, K int64
}

// keyFor computes the voxel grid coordinate of a position.
func keyFor(pos r3.Vector, voxelSize float64) VoxelKey {
	return VoxelKey{
		I: int64(math.Floor(pos.X / voxelSize)),
		J: int64(math.Floor(pos.Y / voxelSize)),
		K: int64(math.Floor(pos.Z / voxelSize)),
	}
}

type voxelAccumulator[P pointcloud.Point] struct {
	first P
	sum   r3.Vector
	count int
}

// VoxelDownsample reduces the cloud to one representative point per voxel
// of the given edge length. The representative is the voxel's first point
// moved to the centroid of all points that fell into the voxel; non-spatial
// attributes (color, normal) follow the first point. Voxels appear in
// first-seen order. A non-positive voxel size returns the input unchanged.
func VoxelDownsample[P pointcloud.Movable[P]](cloud *pointcloud.Cloud[P], voxelSize float64) *pointcloud.Cloud[P] {
	if voxelSize <= 0 {
		return cloud
	}
	voxels := make(map[VoxelKey]*voxelAccumulator[P])
	order := make([]VoxelKey, 0)
	for _, p := range cloud.Points() {
		pos := p.Position()
		key := keyFor(pos, voxelSize)
		acc, ok := voxels[key]
		if !ok {
			acc = &voxelAccumulator[P]{first: p}
			voxels[key] = acc
			order = append(order, key)
		}
		acc.sum = acc.sum.Add(pos)
		acc.count++
	}
	out := pointcloud.NewWithCapacity[P](len(order))
	for _, key := range order {
		acc := voxels[key]
		centroid := acc.sum.Mul(1.0 / float64(acc.count))
		out.Push(acc.first.WithPosition(centroid))
	}
	return out
}
