package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingularCalibration is returned when the leading 3x3 block of a projection
// matrix is singular and cannot be decomposed into calibration and pose.
var ErrSingularCalibration = errors.New("singular calibration: leading 3x3 block of P is not invertible")

// ErrNotPositiveDefinite is returned when a matrix expected to be symmetric positive
// definite is not.
var ErrNotPositiveDefinite = errors.New("matrix is not positive definite")

// Compose builds the 3x4 projection matrix P = K*[R|t] from the intrinsic matrix K,
// the rotation R and the translation t.
func Compose(k, r *mat.Dense, t r3.Vector) *mat.Dense {
	rt := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt.Set(i, j, r.At(i, j))
		}
	}
	rt.Set(0, 3, t.X)
	rt.Set(1, 3, t.Y)
	rt.Set(2, 3, t.Z)
	p := mat.NewDense(3, 4, nil)
	p.Mul(k, rt)
	return p
}

// Decompose factors a 3x4 projection matrix P into an upper-triangular intrinsic
// matrix K with K(2,2) = 1 and positive focal entries, a rotation R with det(R) = +1,
// and a translation t, such that P = K*[R|t] up to an overall scale.
// It uses the RQ decomposition of Multiple View Geometry, A4.1.1 (page 579), computed
// with three Givens rotations.
func Decompose(p *mat.Dense) (*mat.Dense, *mat.Dense, r3.Vector, error) {
	k := mat.DenseCopyOf(p.Slice(0, 3, 0, 3))
	if math.Abs(mat.Det(k)) < 1e-15 {
		return nil, nil, r3.Vector{}, ErrSingularCalibration
	}
	q := eye(3)

	// Set K(2,1) to zero.
	if k.At(2, 1) != 0 {
		c, s := givens(-k.At(2, 2), k.At(2, 1))
		qx := mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, c, -s,
			0, s, c,
		})
		k.Mul(k, qx)
		q.Mul(transposeDense(qx), q)
	}
	// Set K(2,0) to zero.
	if k.At(2, 0) != 0 {
		c, s := givens(k.At(2, 2), k.At(2, 0))
		qy := mat.NewDense(3, 3, []float64{
			c, 0, s,
			0, 1, 0,
			-s, 0, c,
		})
		k.Mul(k, qy)
		q.Mul(transposeDense(qy), q)
	}
	// Set K(1,0) to zero.
	if k.At(1, 0) != 0 {
		c, s := givens(-k.At(1, 1), k.At(1, 0))
		qz := mat.NewDense(3, 3, []float64{
			c, -s, 0,
			s, c, 0,
			0, 0, 1,
		})
		k.Mul(k, qz)
		q.Mul(transposeDense(qz), q)
	}

	r := q

	// Resolve sign ambiguities so that K(2,2) > 0 and the focal entries are positive,
	// preserving the product K*R.
	if k.At(2, 2) < 0 {
		k.Scale(-1, k)
		r.Scale(-1, r)
	}
	if k.At(1, 1) < 0 {
		flipColumnRow(k, r, 1)
	}
	if k.At(0, 0) < 0 {
		flipColumnRow(k, r, 0)
	}

	// Force a proper rotation. Negating both R and t only changes P by scale.
	tSign := 1.0
	if mat.Det(r) < 0 {
		r.Scale(-1, r)
		tSign = -1
	}

	// Recover the translation by solving K*t = p4.
	p4 := mat.NewVecDense(3, []float64{p.At(0, 3), p.At(1, 3), p.At(2, 3)})
	var tVec mat.VecDense
	if err := tVec.SolveVec(k, p4); err != nil {
		return nil, nil, r3.Vector{}, errors.Wrap(ErrSingularCalibration, err.Error())
	}
	t := r3.Vector{X: tSign * tVec.AtVec(0), Y: tSign * tVec.AtVec(1), Z: tSign * tVec.AtVec(2)}

	// Scale K so that K(2,2) = 1.
	k.Scale(1/k.At(2, 2), k)

	return k, r, t, nil
}

// givens returns the cosine and sine of the rotation combining a and b.
func givens(a, b float64) (float64, float64) {
	l := math.Hypot(a, b)
	return a / l, b / l
}

// flipColumnRow negates column i of K and row i of R, which leaves K*R unchanged.
func flipColumnRow(k, r *mat.Dense, i int) {
	for j := 0; j < 3; j++ {
		k.Set(j, i, -k.At(j, i))
		r.Set(i, j, -r.At(i, j))
	}
}

// IntrinsicsFromAbsoluteConic computes the intrinsic matrix K from the image of the
// absolute conic W. The upper-triangular Cholesky factor is obtained by flipping the
// indices of W^-1, computing the lower-triangular Cholesky factor, and unflipping the
// result, matching the convention used by Decompose.
func IntrinsicsFromAbsoluteConic(w *mat.Dense) (*mat.Dense, error) {
	dual, err := Invert(w)
	if err != nil {
		return nil, err
	}
	flipped := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			flipped.SetSym(i, j, dual.At(2-i, 2-j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(flipped); !ok {
		return nil, errors.Wrap(ErrNotPositiveDefinite, "inverse of absolute conic")
	}
	var l mat.TriDense
	chol.LTo(&l)

	k := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k.Set(i, j, l.At(2-i, 2-j))
		}
	}
	return k, nil
}
