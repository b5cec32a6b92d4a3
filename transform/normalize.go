package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// NormalizePoints normalizes points as described in Multiple View Geometry, Alg 4.2:
// the centroid is moved to the origin and the points are isotropically scaled so their
// mean distance from it is sqrt(2). It returns the normalized points and the 3x3
// transform T that performs the normalization.
func NormalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	nPoints := len(pts)
	// compute centroid of points
	mu := r2.Point{}
	for _, pt := range pts {
		mu.X += pt.X
		mu.Y += pt.Y
	}
	mu = mu.Mul(1. / float64(nPoints))
	// compute scale factor
	d := 0.0
	for _, pt := range pts {
		x2 := (pt.X - mu.X) * (pt.X - mu.X)
		y2 := (pt.Y - mu.Y) * (pt.Y - mu.Y)
		d += math.Sqrt(x2+y2) / float64(nPoints)
	}
	scale := 1.0
	if d > 0 {
		scale = math.Sqrt(2) / d
	}
	T := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	})
	// apply transform to points
	pointsTransformed := make([]r2.Point, nPoints)
	for i := range pointsTransformed {
		pointsTransformed[i] = r2.Point{X: scale * (pts[i].X - mu.X), Y: scale * (pts[i].Y - mu.Y)}
	}
	return pointsTransformed, T
}

// Denormalize maps a transform fitted on normalized coordinates back to the original
// pixel coordinates, as T2^-1 * H * T1 (see Multiple View Geometry, page 109). T1 and
// T2 are the normalizing transforms of the first and second point sets.
func Denormalize(t1, t2, h *mat.Dense) (*mat.Dense, error) {
	t2Inv, err := Invert(t2)
	if err != nil {
		return nil, err
	}
	return Mul(t2Inv, Mul(h, t1)), nil
}
