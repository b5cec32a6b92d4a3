package estimation

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Ashwinning/libmv/transform"
)

// PanoramicSolver fits a homography restricted to a purely rotating camera with a
// single unknown focal length, H = K*R*K^-1 with K = diag(f, f, 1), following the
// 2-point minimal solution of Brown, Hartley and Nister (CVPR 2007).
//
// Correspondences must be expressed relative to the principal point, and Hartley
// normalization must stay disabled on the estimator, since both would move the
// optical axis. The minimal sample is two correspondences; up to three focal length
// candidates arise from a cubic, each yielding one homography.
type PanoramicSolver struct{}

// MinimumSamples implements ModelSolver.
func (PanoramicSolver) MinimumSamples() int { return 2 }

// Solve implements ModelSolver.
func (PanoramicSolver) Solve(x1, x2 []r2.Point) ([]*mat.Dense, error) {
	if len(x1) != 2 || len(x2) != 2 {
		return nil, errors.Errorf("panoramic minimal sample needs 2 correspondences, got %d", len(x1))
	}
	var candidates []*mat.Dense
	for _, f := range focalsFromCorrespondences(x1, x2) {
		r, ok := rotationFixedCenter(x1, x2, f)
		if !ok {
			continue
		}
		k := mat.NewDense(3, 3, []float64{f, 0, 0, 0, f, 0, 0, 0, 1})
		kInv := mat.NewDense(3, 3, []float64{1 / f, 0, 0, 0, 1 / f, 0, 0, 0, 1})
		candidates = append(candidates, transform.Mul(k, transform.Mul(r, kInv)))
	}
	return candidates, nil
}

// focalsFromCorrespondences solves for the focal lengths under which the angle
// between the two bearing rays is the same in both images. Squaring the equality of
// the cosines gives a cubic in z = f^2 (the quartic terms cancel); positive real
// roots yield focal candidates.
func focalsFromCorrespondences(x1, x2 []r2.Point) []float64 {
	u := x1[0].Dot(x1[1])
	pR := x1[0].Dot(x1[0]) + x1[1].Dot(x1[1])
	qR := x1[0].Dot(x1[0]) * x1[1].Dot(x1[1])
	uPrime := x2[0].Dot(x2[1])
	pL := x2[0].Dot(x2[0]) + x2[1].Dot(x2[1])
	qL := x2[0].Dot(x2[0]) * x2[1].Dot(x2[1])

	// (u+z)^2 (z^2 + pL z + qL) - (u'+z)^2 (z^2 + pR z + qR) = 0
	c3 := (pL + 2*u) - (pR + 2*uPrime)
	c2 := (qL + 2*u*pL + u*u) - (qR + 2*uPrime*pR + uPrime*uPrime)
	c1 := (2*u*qL + u*u*pL) - (2*uPrime*qR + uPrime*uPrime*pR)
	c0 := u*u*qL - uPrime*uPrime*qR

	var focals []float64
	for _, z := range realPositiveRoots(c3, c2, c1, c0) {
		focals = append(focals, math.Sqrt(z))
	}
	return focals
}

// realPositiveRoots returns the positive real roots of c3 z^3 + c2 z^2 + c1 z + c0,
// lowering the degree when leading coefficients vanish. Cubic roots are computed as
// the eigenvalues of the companion matrix.
func realPositiveRoots(c3, c2, c1, c0 float64) []float64 {
	const eps = 1e-12
	scale := math.Max(math.Max(math.Abs(c3), math.Abs(c2)), math.Max(math.Abs(c1), math.Abs(c0)))
	if scale == 0 {
		return nil
	}
	var roots []float64
	keep := func(z complex128) {
		if math.Abs(imag(z)) < 1e-8*(1+math.Abs(real(z))) && real(z) > eps {
			roots = append(roots, real(z))
		}
	}
	switch {
	case math.Abs(c3) > eps*scale:
		companion := mat.NewDense(3, 3, []float64{
			0, 0, -c0 / c3,
			1, 0, -c1 / c3,
			0, 1, -c2 / c3,
		})
		var eig mat.Eigen
		if ok := eig.Factorize(companion, mat.EigenNone); !ok {
			return nil
		}
		for _, z := range eig.Values(nil) {
			keep(z)
		}
	case math.Abs(c2) > eps*scale:
		disc := c1*c1 - 4*c2*c0
		if disc < 0 {
			return nil
		}
		sq := math.Sqrt(disc)
		keep(complex((-c1+sq)/(2*c2), 0))
		keep(complex((-c1-sq)/(2*c2), 0))
	case math.Abs(c1) > eps*scale:
		keep(complex(-c0/c1, 0))
	}
	return roots
}

// rotationFixedCenter recovers the rotation aligning the image-1 bearing rays with
// the image-2 bearing rays for the focal length f, polished to a proper rotation by
// orthogonal Procrustes.
func rotationFixedCenter(x1, x2 []r2.Point, f float64) (*mat.Dense, bool) {
	a1 := r3.Vector{X: x1[0].X, Y: x1[0].Y, Z: f}.Normalize()
	a2 := r3.Vector{X: x1[1].X, Y: x1[1].Y, Z: f}.Normalize()
	b1 := r3.Vector{X: x2[0].X, Y: x2[0].Y, Z: f}.Normalize()
	b2 := r3.Vector{X: x2[1].X, Y: x2[1].Y, Z: f}.Normalize()

	aCross := a1.Cross(a2)
	bCross := b1.Cross(b2)
	if aCross.Norm() < 1e-12 || bCross.Norm() < 1e-12 {
		return nil, false
	}
	aCross = aCross.Normalize()
	bCross = bCross.Normalize()

	x := mat.NewDense(3, 3, []float64{
		a1.X, a2.X, aCross.X,
		a1.Y, a2.Y, aCross.Y,
		a1.Z, a2.Z, aCross.Z,
	})
	y := mat.NewDense(3, 3, []float64{
		b1.X, b2.X, bCross.X,
		b1.Y, b2.Y, bCross.Y,
		b1.Z, b2.Z, bCross.Z,
	})
	xInv, err := transform.Invert(x)
	if err != nil {
		return nil, false
	}
	g := transform.Mul(y, xInv)

	// project onto the rotation group
	var svd mat.SVD
	if ok := svd.Factorize(g, mat.SVDFull); !ok {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r := transform.Mul(&u, mat.DenseCopyOf(v.T()))
	if mat.Det(r) < 0 {
		d := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, -1})
		r = transform.Mul(&u, transform.Mul(d, mat.DenseCopyOf(v.T())))
	}
	return r, true
}
