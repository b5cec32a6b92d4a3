package estimation

import (
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/Ashwinning/libmv/transform"
)

// AsymmetricError measures the squared Euclidean distance between x2 and x1 mapped
// through the transform. Residuals are distributed as chi-squared with k = 2 for
// Gaussian noise.
type AsymmetricError struct{}

// Error implements ErrorMetric.
func (AsymmetricError) Error(h *mat.Dense, x1, x2 r2.Point) (float64, error) {
	est, err := transform.ApplyToPoint(h, x1)
	if err != nil {
		return 0, err
	}
	diff := x2.Sub(est)
	return diff.Dot(diff), nil
}

// Threshold implements ErrorMetric.
func (AsymmetricError) Threshold(maxError float64) float64 {
	return maxError * maxError
}

// SymmetricError sums the forward and backward squared transfer distances, for use
// when neither image should be privileged. Residuals are distributed as chi-squared
// with k = 4. The transform must be invertible; a singular fit propagates
// transform.ErrFailedDecomposition.
type SymmetricError struct{}

// Error implements ErrorMetric.
func (SymmetricError) Error(h *mat.Dense, x1, x2 r2.Point) (float64, error) {
	hInv, err := transform.Invert(h)
	if err != nil {
		return 0, err
	}
	forward, err := AsymmetricError{}.Error(h, x1, x2)
	if err != nil {
		return 0, err
	}
	backward, err := AsymmetricError{}.Error(hInv, x2, x1)
	if err != nil {
		return 0, err
	}
	return forward + backward, nil
}

// Threshold implements ErrorMetric.
func (SymmetricError) Threshold(maxError float64) float64 {
	return 2 * maxError * maxError
}
