// Package transform implements 2D planar transforms and camera projection
// matrix factorizations used for image registration and calibration.
package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateProjection is returned when a mapped point has a zero (or numerically
// zero) homogeneous coordinate and cannot be converted back to Euclidean coordinates.
var ErrDegenerateProjection = errors.New("degenerate projection: homogeneous coordinate is zero")

// ErrFailedDecomposition is returned when a matrix expected to be invertible is singular.
var ErrFailedDecomposition = errors.New("failed decomposition: matrix is singular")

// homogeneous coordinates below this magnitude are treated as zero.
const epsHomogeneous = 1e-12

// Identity returns the 3x3 identity matrix.
func Identity() *mat.Dense {
	return eye(3)
}

// eye creates an identity matrix of size nxn.
func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// transposeDense returns the transpose of m as a new dense matrix.
func transposeDense(m *mat.Dense) *mat.Dense {
	nRows, nCols := m.Dims()
	m2 := mat.NewDense(nCols, nRows, nil)
	m2.Copy(m.T())
	return m2
}

// ApplyToPoint maps a 2D point through a 3x3 homogeneous transform and converts the
// result back to Euclidean coordinates.
func ApplyToPoint(h mat.Matrix, pt r2.Point) (r2.Point, error) {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	w := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	if math.Abs(w) < epsHomogeneous {
		return r2.Point{}, errors.Wrapf(ErrDegenerateProjection, "point (%v, %v)", pt.X, pt.Y)
	}
	return r2.Point{X: x / w, Y: y / w}, nil
}

// Invert returns the inverse of a transform, or ErrFailedDecomposition if the
// matrix is singular.
func Invert(h mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(h); err != nil {
		return nil, errors.Wrap(ErrFailedDecomposition, err.Error())
	}
	return &inv, nil
}

// Mul returns the product a*b of two 3x3 transforms as a new matrix.
func Mul(a, b mat.Matrix) *mat.Dense {
	out := mat.NewDense(3, 3, nil)
	out.Mul(a, b)
	return out
}
