package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"
)

// CloudStatistics summarizes the per-axis distribution of a cloud's
// positions.
type CloudStatistics struct {
	Count    int
	Mean     r3.Vector
	Variance r3.Vector
	StdDev   r3.Vector
	Min      r3.Vector
	Max      r3.Vector
}

// Statistics computes per-axis summary statistics over the cloud. Variance
// is the unbiased sample variance. ok is false for an empty cloud.
func Statistics[P Point](c *Cloud[P]) (CloudStatistics, bool) {
	if c.IsEmpty() {
		return CloudStatistics{}, false
	}
	n := c.Len()
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i, p := range c.Points() {
		pos := p.Position()
		xs[i], ys[i], zs[i] = pos.X, pos.Y, pos.Z
	}

	meanX, varX := stat.MeanVariance(xs, nil)
	meanY, varY := stat.MeanVariance(ys, nil)
	meanZ, varZ := stat.MeanVariance(zs, nil)

	min, max, _ := c.BoundingBox()
	return CloudStatistics{
		Count:    n,
		Mean:     r3.Vector{X: meanX, Y: meanY, Z: meanZ},
		Variance: r3.Vector{X: varX, Y: varY, Z: varZ},
		StdDev:   r3.Vector{X: math.Sqrt(varX), Y: math.Sqrt(varY), Z: math.Sqrt(varZ)},
		Min:      min,
		Max:      max,
	}, true
}
