package estimation

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// AffineSolver fits an affine transform (bottom row [0 0 1]). The minimal sample is
// two correspondences, which determine the 4-dof similarity subgroup (rotation,
// uniform scale, translation) in closed form; the full 6-dof affine model is
// recovered by the least-squares refit over the consensus set.
type AffineSolver struct{}

// MinimumSamples implements ModelSolver.
func (AffineSolver) MinimumSamples() int { return 2 }

// Solve implements ModelSolver. Treating the plane as complex numbers, the
// similarity z -> (a+ib)z + t follows from the two difference vectors.
func (AffineSolver) Solve(x1, x2 []r2.Point) ([]*mat.Dense, error) {
	if len(x1) != 2 || len(x2) != 2 {
		return nil, errors.Errorf("affine minimal sample needs 2 correspondences, got %d", len(x1))
	}
	d := x1[1].Sub(x1[0])
	dPrime := x2[1].Sub(x2[0])
	denom := d.Dot(d)
	if denom == 0 {
		// coincident sample points
		return nil, nil
	}
	a := (dPrime.X*d.X + dPrime.Y*d.Y) / denom
	b := (dPrime.Y*d.X - dPrime.X*d.Y) / denom
	tx := x2[0].X - (a*x1[0].X - b*x1[0].Y)
	ty := x2[0].Y - (b*x1[0].X + a*x1[0].Y)
	h := mat.NewDense(3, 3, []float64{
		a, -b, tx,
		b, a, ty,
		0, 0, 1,
	})
	return []*mat.Dense{h}, nil
}

// Refit implements Refitter: a linear least-squares fit of all 6 affine parameters
// over the given correspondences. At least 3 correspondences are required.
func (AffineSolver) Refit(x1, x2 []r2.Point) (*mat.Dense, error) {
	n := len(x1)
	if n < 3 {
		return nil, errors.Wrapf(ErrInsufficientCorrespondences, "affine refit needs 3, got %d", n)
	}
	a := mat.NewDense(2*n, 6, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := range x1 {
		a.SetRow(2*i, []float64{x1[i].X, x1[i].Y, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, x1[i].X, x1[i].Y, 1})
		b.SetVec(2*i, x2[i].X)
		b.SetVec(2*i+1, x2[i].Y)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil, errors.Wrap(err, "affine refit")
	}
	h := mat.NewDense(3, 3, []float64{
		sol.AtVec(0), sol.AtVec(1), sol.AtVec(2),
		sol.AtVec(3), sol.AtVec(4), sol.AtVec(5),
		0, 0, 1,
	})
	return h, nil
}
