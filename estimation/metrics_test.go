package estimation

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/Ashwinning/libmv/transform"
)

func TestAsymmetricError(t *testing.T) {
	h := transform.Identity()
	residual, err := AsymmetricError{}.Error(h, r2.Point{X: 1, Y: 2}, r2.Point{X: 4, Y: 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, residual, test.ShouldAlmostEqual, 25) // 3^2 + 4^2

	test.That(t, AsymmetricError{}.Threshold(2), test.ShouldAlmostEqual, 4)
}

func TestSymmetricError(t *testing.T) {
	// pure translation: forward and backward residuals are equal
	h := mat.NewDense(3, 3, []float64{
		1, 0, 10,
		0, 1, 0,
		0, 0, 1,
	})
	x1 := r2.Point{X: 0, Y: 0}
	x2 := r2.Point{X: 11, Y: 0} // 1 pixel off the mapped position

	forward, err := AsymmetricError{}.Error(h, x1, x2)
	test.That(t, err, test.ShouldBeNil)
	both, err := SymmetricError{}.Error(h, x1, x2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, both, test.ShouldAlmostEqual, 2*forward)

	test.That(t, SymmetricError{}.Threshold(2), test.ShouldAlmostEqual, 8)
}

func TestSymmetricErrorSingularTransform(t *testing.T) {
	singular := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		2, 0, 0,
		0, 0, 1,
	})
	_, err := SymmetricError{}.Error(singular, r2.Point{X: 1, Y: 1}, r2.Point{X: 1, Y: 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, transform.ErrFailedDecomposition), test.ShouldBeTrue)
}
