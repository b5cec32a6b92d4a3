package transform

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// ErrDegenerateInput is returned when a parameterization round trip hits a zero
// denominator or a decomposition that does not converge.
var ErrDegenerateInput = errors.New("degenerate input to parameterization")

// Rank2Params parameterizes a 3x3 matrix of exact rank 2 with 9 unconstrained
// values, for use inside iterative refinement of a fundamental matrix. The matrix is
// factored as F = U*S*V^T where U and V^T are rotations held as unnormalized
// quaternions and S = diag(1, 1/(1+s^2), 0), which keeps the singular values ordered
// and non-negative. The first singular value is pinned to 1; a fundamental matrix is
// scale free, so no generality is lost.
//
// The vector breaks down into
//
//	u  - p[0..3]
//	s  - p[4]
//	vt - p[5..8]
type Rank2Params [9]float64

// Matrix builds the rank-2 matrix U*S*V^T from the parameters. The quaternions are
// normalized before conversion, so any parameter vector yields a valid factorization.
func (p Rank2Params) Matrix() *mat.Dense {
	u := quatToRotationMatrix(quat.Number{Real: p[0], Imag: p[1], Jmag: p[2], Kmag: p[3]})
	vt := quatToRotationMatrix(quat.Number{Real: p[5], Imag: p[6], Jmag: p[7], Kmag: p[8]})

	// 1/(1+s^2) prevents negative singular values and keeps the ordering fixed.
	sigma := 1.0 / (1.0 + p[4]*p[4])
	s := mat.NewDense(3, 3, nil)
	s.Set(0, 0, 1)
	s.Set(1, 1, sigma)

	return Mul(u, Mul(s, vt))
}

// Rank2ParamsFromMatrix recovers the 9 parameters from a 3x3 matrix. The third
// singular value is discarded: for a near-rank-2 input this yields the closest rank-2
// matrix in the Frobenius sense, not an error. It fails with ErrDegenerateInput if
// the SVD does not converge or the second singular value is zero.
func Rank2ParamsFromMatrix(f *mat.Dense) (Rank2Params, error) {
	var svd mat.SVD
	if ok := svd.Factorize(f, mat.SVDFull); !ok {
		return Rank2Params{}, errors.Wrap(ErrDegenerateInput, "SVD did not converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vt := transposeDense(&v)
	values := svd.Values(nil)
	if values[1] == 0 {
		return Rank2Params{}, errors.Wrap(ErrDegenerateInput, "second singular value is zero")
	}

	// U and V are either rotations or reflections. The matrix is invariant to scale
	// changes, so force both to rotations by flipping signs.
	if mat.Det(&u) < 0 {
		u.Scale(-1, &u)
	}
	if mat.Det(vt) < 0 {
		vt.Scale(-1, vt)
	}
	qu := normalizeQuat(rotationMatrixToQuat(&u))
	qvt := normalizeQuat(rotationMatrixToQuat(vt))

	s := math.Sqrt(values[0]/values[1] - 1.0)

	return Rank2Params{
		qu.Real, qu.Imag, qu.Jmag, qu.Kmag,
		s,
		qvt.Real, qvt.Imag, qvt.Jmag, qvt.Kmag,
	}, nil
}

// normalizeQuat scales q to unit norm. A zero quaternion maps to the identity
// rotation.
func normalizeQuat(q quat.Number) quat.Number {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// quatToRotationMatrix normalizes q and converts it to a 3x3 rotation matrix.
func quatToRotationMatrix(q quat.Number) *mat.Dense {
	q = normalizeQuat(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
}

// rotationMatrixToQuat converts a proper rotation matrix to a quaternion, branching
// on the largest diagonal term for numerical stability.
func rotationMatrixToQuat(m *mat.Dense) quat.Number {
	tr := m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1.0) * 2
		return quat.Number{
			Real: 0.25 * s,
			Imag: (m.At(2, 1) - m.At(1, 2)) / s,
			Jmag: (m.At(0, 2) - m.At(2, 0)) / s,
			Kmag: (m.At(1, 0) - m.At(0, 1)) / s,
		}
	case m.At(0, 0) > m.At(1, 1) && m.At(0, 0) > m.At(2, 2):
		s := math.Sqrt(1.0+m.At(0, 0)-m.At(1, 1)-m.At(2, 2)) * 2
		return quat.Number{
			Real: (m.At(2, 1) - m.At(1, 2)) / s,
			Imag: 0.25 * s,
			Jmag: (m.At(0, 1) + m.At(1, 0)) / s,
			Kmag: (m.At(0, 2) + m.At(2, 0)) / s,
		}
	case m.At(1, 1) > m.At(2, 2):
		s := math.Sqrt(1.0+m.At(1, 1)-m.At(0, 0)-m.At(2, 2)) * 2
		return quat.Number{
			Real: (m.At(0, 2) - m.At(2, 0)) / s,
			Imag: (m.At(0, 1) + m.At(1, 0)) / s,
			Jmag: 0.25 * s,
			Kmag: (m.At(1, 2) + m.At(2, 1)) / s,
		}
	default:
		s := math.Sqrt(1.0+m.At(2, 2)-m.At(0, 0)-m.At(1, 1)) * 2
		return quat.Number{
			Real: (m.At(1, 0) - m.At(0, 1)) / s,
			Imag: (m.At(0, 2) + m.At(2, 0)) / s,
			Jmag: (m.At(1, 2) + m.At(2, 1)) / s,
			Kmag: 0.25 * s,
		}
	}
}
