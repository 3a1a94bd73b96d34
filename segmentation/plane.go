// Package segmentation implements point cloud segmentation algorithms:
// Euclidean cluster extraction, RANSAC plane fitting, and PCA surface
// normal estimation.
package segmentation

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// degenerateNormalEps rejects plane fits whose defining points are
// collinear or coincident.
const degenerateNormalEps = 1e-9

// Plane is a plane in Hessian normal form: Normal·p + Offset = 0 with a
// unit Normal.
type Plane struct {
	Normal r3.Vector
	Offset float64
}

// Equation returns the plane coefficients [a b c d] of
// a*x + b*y + c*z + d = 0.
func (p Plane) Equation() [4]float64 {
	return [4]float64{p.Normal.X, p.Normal.Y, p.Normal.Z, p.Offset}
}

// Distance returns the absolute distance from the position to the plane.
func (p Plane) Distance(pt r3.Vector) float64 {
	return math.Abs(p.Normal.Dot(pt) + p.Offset)
}

// FitPlane returns the plane through three points. Coincident or collinear
// points are an error.
func FitPlane(p1, p2, p3 r3.Vector) (Plane, error) {
	cross := p2.Sub(p1).Cross(p3.Sub(p1))
	if cross.Norm() < degenerateNormalEps {
		return Plane{}, errors.New("cannot fit plane: points are collinear or coincident")
	}
	normal := cross.Normalize()
	return Plane{Normal: normal, Offset: -normal.Dot(p1)}, nil
}
