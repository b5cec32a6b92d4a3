package estimation

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// HomographySolver fits a general planar homography (8 dof). The minimal sample is
// four correspondences, solved by the direct linear transform.
type HomographySolver struct{}

// MinimumSamples implements ModelSolver.
func (HomographySolver) MinimumSamples() int { return 4 }

// Solve implements ModelSolver.
func (HomographySolver) Solve(x1, x2 []r2.Point) ([]*mat.Dense, error) {
	if len(x1) != 4 || len(x2) != 4 {
		return nil, errors.Errorf("homography minimal sample needs 4 correspondences, got %d", len(x1))
	}
	h, err := homographyDLT(x1, x2)
	if err != nil || h == nil {
		return nil, err
	}
	return []*mat.Dense{h}, nil
}

// Refit implements Refitter: a DLT fit over all given correspondences.
func (HomographySolver) Refit(x1, x2 []r2.Point) (*mat.Dense, error) {
	if len(x1) < 4 {
		return nil, errors.Wrapf(ErrInsufficientCorrespondences, "homography refit needs 4, got %d", len(x1))
	}
	h, err := homographyDLT(x1, x2)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.New("homography refit: degenerate point configuration")
	}
	return h, nil
}

// homographyDLT solves the homogeneous system built from the transfer constraints
// x2 x (H*x1) = 0 for the null vector of smallest singular value. It returns nil for
// a degenerate point configuration (singular H or a non-converging decomposition).
func homographyDLT(x1, x2 []r2.Point) (*mat.Dense, error) {
	n := len(x1)
	m := mat.NewDense(2*n, 9, nil)
	for i := range x1 {
		x, y := x1[i].X, x1[i].Y
		u, v := x2[i].X, x2[i].Y
		m.SetRow(2*i, []float64{
			-x, -y, -1,
			0, 0, 0,
			u * x, u * y, u,
		})
		m.SetRow(2*i+1, []float64{
			0, 0, 0,
			-x, -y, -1,
			v * x, v * y, v,
		})
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, nil
	}
	var vMat mat.Dense
	svd.VTo(&vMat)
	nullVec := vMat.ColView(8)

	data := make([]float64, 9)
	for i := range data {
		data[i] = nullVec.AtVec(i)
	}
	h := mat.NewDense(3, 3, data)
	if math.Abs(mat.Det(h)) < 1e-12 {
		return nil, nil
	}
	// fix the free scale when possible
	if w := h.At(2, 2); math.Abs(w) > 1e-12 {
		h.Scale(1/w, h)
	}
	return h, nil
}
