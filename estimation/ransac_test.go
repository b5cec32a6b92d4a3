package estimation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Ashwinning/libmv/utils"
)

func TestEstimateTranslation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := mat.NewDense(3, 3, []float64{
		1, 0, 12,
		0, 1, -7,
		0, 0, 1,
	})
	x1 := make([]r2.Point, 0, 20)
	for i := 0; i < 20; i++ {
		x1 = append(x1, r2.Point{X: float64(i * 13 % 100), Y: float64(i * 29 % 100)})
	}
	x2 := applyAll(t, truth, x1)

	est := NewEstimator(AffineSolver{}, AsymmetricError{})
	res, err := est.Estimate(x1, x2, rand.New(rand.NewSource(42)), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(res.Inliers), test.ShouldEqual, len(x1))
	test.That(t, res.InlierRatio(len(x1)), test.ShouldAlmostEqual, 1)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, res.Transform.At(i, j), test.ShouldAlmostEqual, truth.At(i, j), 1e-6)
		}
	}
}

func TestEstimateInsufficientCorrespondences(t *testing.T) {
	logger := golog.NewTestLogger(t)
	est := NewEstimator(AffineSolver{}, AsymmetricError{})
	_, err := est.Estimate(
		[]r2.Point{{X: 1, Y: 1}},
		[]r2.Point{{X: 2, Y: 2}},
		rand.New(rand.NewSource(0)), logger,
	)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)

	_, err = est.Estimate(
		[]r2.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
		[]r2.Point{{X: 2, Y: 2}},
		rand.New(rand.NewSource(0)), logger,
	)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEstimateNoConsensus(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// no similarity maps more than two of these pairs within a pixel, so the
	// consensus never reaches the minimum viable size of four
	x1 := []r2.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}}
	x2 := []r2.Point{{X: 10, Y: 7}, {X: -40, Y: 33}, {X: 205, Y: -111}, {X: 99, Y: 250}}

	est := NewEstimator(AffineSolver{}, AsymmetricError{})
	est.MaxIterations = 500
	_, err := est.Estimate(x1, x2, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNoConsensus), test.ShouldBeTrue)
}

func TestEstimateWithNoiseAndOutliers(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// similarity: rotation 0.1 rad, scale 1.05, translation (12, -7)
	theta := 0.1
	a := 1.05 * math.Cos(theta)
	b := 1.05 * math.Sin(theta)
	truth := mat.NewDense(3, 3, []float64{
		a, -b, 12,
		b, a, -7,
		0, 0, 1,
	})

	n := 60
	x1 := make([]r2.Point, 0, n)
	for i := 0; i < n; i++ {
		x1 = append(x1, r2.Point{X: float64(i*83%500) + 1, Y: float64(i*131%500) + 1})
	}
	x2 := applyAll(t, truth, x1)

	noise := distuv.Normal{Mu: 0, Sigma: 0.3, Src: xrand.NewSource(7)}
	for i := range x2 {
		x2[i] = x2[i].Add(r2.Point{X: noise.Rand(), Y: noise.Rand()})
	}
	// corrupt roughly 30% of the correspondences
	for i, idx := range utils.SampleNIntegersUniform(18, 0, float64(n-1), 99) {
		x2[idx] = x2[idx].Add(r2.Point{X: 50 + float64(3*i), Y: -40 - float64(2*i)})
	}

	est := NewEstimator(AffineSolver{}, AsymmetricError{})
	est.MaxError = 2.0
	res, err := est.Estimate(x1, x2, rand.New(rand.NewSource(17)), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.InlierRatio(n), test.ShouldBeGreaterThan, 0.6)

	// the refit over the consensus set should land within the noise level
	for _, probe := range []r2.Point{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 250, Y: 500}} {
		want := applyAll(t, truth, []r2.Point{probe})[0]
		got := applyAll(t, res.Transform, []r2.Point{probe})[0]
		test.That(t, got.Sub(want).Norm(), test.ShouldBeLessThan, 1.0)
	}
}

func TestEstimateSymmetricMetric(t *testing.T) {
	logger := golog.NewTestLogger(t)
	truth := mat.NewDense(3, 3, []float64{
		1, 0, 30,
		0, 1, 15,
		0, 0, 1,
	})
	x1 := make([]r2.Point, 0, 12)
	for i := 0; i < 12; i++ {
		x1 = append(x1, r2.Point{X: float64(i*37%200) + 5, Y: float64(i*53%200) + 5})
	}
	x2 := applyAll(t, truth, x1)

	est := NewEstimator(HomographySolver{}, SymmetricError{})
	res, err := est.Estimate(x1, x2, rand.New(rand.NewSource(3)), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(res.Inliers), test.ShouldEqual, len(x1))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, res.Transform.At(i, j), test.ShouldAlmostEqual, truth.At(i, j), 1e-5)
		}
	}
}

func TestRequiredIterations(t *testing.T) {
	// all inliers: a single sample suffices
	test.That(t, requiredIterations(0.01, 1, 2, 2000), test.ShouldEqual, 1)
	// hopeless ratios fall back to the cap
	test.That(t, requiredIterations(0.01, 0, 2, 2000), test.ShouldEqual, 2000)
	test.That(t, requiredIterations(0, 0.5, 2, 2000), test.ShouldEqual, 2000)
	// ceil(log(0.01) / log(1 - 0.5^2)) = 17
	test.That(t, requiredIterations(0.01, 0.5, 2, 2000), test.ShouldEqual, 17)
	// the bound never exceeds the cap
	test.That(t, requiredIterations(0.01, 0.1, 4, 50), test.ShouldEqual, 50)
}
