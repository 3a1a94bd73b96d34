package pointcloud

import (
	"context"
	"math"

	"github.com/golang/geo/r3"

	"github.com/StepfenShawn/ferrum-cloud/utils"
)

// Filter returns a new cloud containing the points the predicate keeps. The
// predicate runs in parallel over disjoint index ranges and must be pure;
// survivor order follows input order within each range.
func (c *Cloud[P]) Filter(pred func(P) bool) *Cloud[P] {
	var kept [][]P
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		c.Len(),
		func(numGroups int) {
			kept = make([][]P, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			buf := make([]P, 0, groupSize)
			return func(memberNum, workNum int) {
					p := c.points[workNum]
					if pred(p) {
						buf = append(buf, p)
					}
				}, func() {
					kept[groupNum] = buf
				}
		},
	)
	total := 0
	for _, group := range kept {
		total += len(group)
	}
	out := NewWithCapacity[P](total)
	for _, group := range kept {
		out.points = append(out.points, group...)
	}
	out.syncDimensions()
	return out
}

// Map applies f to every point in parallel and returns the resulting cloud.
// The output has the same length and metadata as the input; f must be pure.
// It is a free function because the output point type may differ from the
// input's.
func Map[P, Q Point](c *Cloud[P], f func(P) Q) *Cloud[Q] {
	out := make([]Q, c.Len())
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		c.Len(),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				out[workNum] = f(c.points[workNum])
			}, nil
		},
	)
	return &Cloud[Q]{points: out, meta: c.meta.Clone()}
}

// BoundingBox returns the axis-aligned bounds of the cloud as per-axis
// minima and maxima, computed in parallel. ok is false for an empty cloud.
func (c *Cloud[P]) BoundingBox() (min, max r3.Vector, ok bool) {
	if c.IsEmpty() {
		return r3.Vector{}, r3.Vector{}, false
	}
	var mins, maxs []r3.Vector
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		c.Len(),
		func(numGroups int) {
			mins = make([]r3.Vector, numGroups)
			maxs = make([]r3.Vector, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			groupMin := c.points[from].Position()
			groupMax := groupMin
			return func(memberNum, workNum int) {
					pos := c.points[workNum].Position()
					groupMin.X = math.Min(groupMin.X, pos.X)
					groupMin.Y = math.Min(groupMin.Y, pos.Y)
					groupMin.Z = math.Min(groupMin.Z, pos.Z)
					groupMax.X = math.Max(groupMax.X, pos.X)
					groupMax.Y = math.Max(groupMax.Y, pos.Y)
					groupMax.Z = math.Max(groupMax.Z, pos.Z)
				}, func() {
					mins[groupNum] = groupMin
					maxs[groupNum] = groupMax
				}
		},
	)
	min, max = mins[0], maxs[0]
	for i := 1; i < len(mins); i++ {
		min.X = math.Min(min.X, mins[i].X)
		min.Y = math.Min(min.Y, mins[i].Y)
		min.Z = math.Min(min.Z, mins[i].Z)
		max.X = math.Max(max.X, maxs[i].X)
		max.Y = math.Max(max.Y, maxs[i].Y)
		max.Z = math.Max(max.Z, maxs[i].Z)
	}
	return min, max, true
}

// Centroid returns the arithmetic mean position of the cloud, computed in
// parallel. ok is false for an empty cloud.
func (c *Cloud[P]) Centroid() (r3.Vector, bool) {
	if c.IsEmpty() {
		return r3.Vector{}, false
	}
	var sums []r3.Vector
	//nolint:errcheck
	utils.GroupWorkParallel(
		context.Background(),
		c.Len(),
		func(numGroups int) {
			sums = make([]r3.Vector, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			sum := r3.Vector{}
			return func(memberNum, workNum int) {
					sum = sum.Add(c.points[workNum].Position())
				}, func() {
					sums[groupNum] = sum
				}
		},
	)
	total := r3.Vector{}
	for _, sum := range sums {
		total = total.Add(sum)
	}
	return total.Mul(1.0 / float64(c.Len())), true
}

// Crop returns the points whose positions fall inside the inclusive
// per-axis range [min, max].
func (c *Cloud[P]) Crop(min, max r3.Vector) *Cloud[P] {
	return c.Filter(func(p P) bool {
		pos := p.Position()
		return pos.X >= min.X && pos.X <= max.X &&
			pos.Y >= min.Y && pos.Y <= max.Y &&
			pos.Z >= min.Z && pos.Z <= max.Z
	})
}
