// Package estimation implements robust fitting of planar 2D transforms from
// outlier-contaminated point correspondences.
package estimation

import (
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Ashwinning/libmv/transform"
	"github.com/Ashwinning/libmv/utils"
)

// ErrInsufficientCorrespondences is returned when fewer correspondences are available
// than the solver's minimal sample size.
var ErrInsufficientCorrespondences = errors.New("not enough correspondences for a minimal sample")

// ErrNoConsensus is returned when no candidate transform ever reached the minimum
// viable inlier count.
var ErrNoConsensus = errors.New("no consensus found among correspondences")

// ModelSolver computes candidate transforms from a minimal sample of correspondences.
type ModelSolver interface {
	// MinimumSamples is the number of correspondences a minimal sample requires.
	MinimumSamples() int
	// Solve returns zero or more candidate 3x3 transforms mapping points of x1 onto
	// points of x2. A degenerate sample yields zero candidates, not an error.
	Solve(x1, x2 []r2.Point) ([]*mat.Dense, error)
}

// Refitter is implemented by solvers that can refit a transform over all inliers by
// least squares once a consensus set is known.
type Refitter interface {
	Refit(x1, x2 []r2.Point) (*mat.Dense, error)
}

// ErrorMetric scores one correspondence against a candidate transform.
type ErrorMetric interface {
	// Error returns a non-negative residual for the correspondence (x1, x2) under h.
	Error(h *mat.Dense, x1, x2 r2.Point) (float64, error)
	// Threshold converts a maximum 2D residual in pixels into the bound the metric's
	// residuals are compared against.
	Threshold(maxError float64) float64
}

// Estimator fits a parametric 2D transform to correspondences that may contain
// outliers, using random minimal samples and consensus scoring. The iteration count
// adapts to the observed inlier ratio and is bounded by MaxIterations.
type Estimator struct {
	Solver ModelSolver
	Metric ErrorMetric
	// OutlierProbability is the acceptable probability of never drawing an
	// all-inlier minimal sample, in [0, 1).
	OutlierProbability float64
	// MaxError is the maximum acceptable 2D residual in pixels for an inlier.
	MaxError float64
	// MaxIterations caps the sampling loop regardless of the adaptive bound.
	MaxIterations int
	// MinInliers is the minimum consensus size for a fit to be accepted. Zero
	// selects max(MinimumSamples+1, 4).
	MinInliers int
	// Normalize rescales correspondences to a canonical range before solving, which
	// improves conditioning. Inliers are always scored in pixel units.
	Normalize bool
}

const defaultMaxIterations = 2000

// NewEstimator returns an estimator with the solver and metric given and the usual
// defaults: 1% outlier probability, 1 pixel maximum error, normalization on.
func NewEstimator(solver ModelSolver, metric ErrorMetric) *Estimator {
	return &Estimator{
		Solver:             solver,
		Metric:             metric,
		OutlierProbability: 1e-2,
		MaxError:           1.0,
		MaxIterations:      defaultMaxIterations,
		Normalize:          true,
	}
}

// Result is a successful robust fit.
type Result struct {
	// Transform maps points of the first image onto the second.
	Transform *mat.Dense
	// Inliers holds the indices of the correspondences consistent with Transform.
	Inliers []int
}

// InlierRatio is the fraction of correspondences classified as inliers, given the
// total correspondence count n.
func (res *Result) InlierRatio(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(len(res.Inliers)) / float64(n)
}

// Estimate runs the consensus loop over the correspondences x1[i] <-> x2[i]. The
// random source drives minimal-sample selection and must not be shared across
// concurrent calls.
func (e *Estimator) Estimate(x1, x2 []r2.Point, r *rand.Rand, logger golog.Logger) (*Result, error) {
	if len(x1) != len(x2) {
		return nil, errors.Errorf("correspondence sets differ in length: %d vs %d", len(x1), len(x2))
	}
	n := len(x1)
	k := e.Solver.MinimumSamples()
	if n < k {
		return nil, errors.Wrapf(ErrInsufficientCorrespondences, "have %d, need %d", n, k)
	}

	pts1, pts2 := x1, x2
	var t1, t2 *mat.Dense
	if e.Normalize {
		pts1, t1 = transform.NormalizePoints(x1)
		pts2, t2 = transform.NormalizePoints(x2)
	}

	threshold := e.Metric.Threshold(e.MaxError)
	sample1 := make([]r2.Point, k)
	sample2 := make([]r2.Point, k)

	var best *mat.Dense
	bestCount := 0
	required := e.MaxIterations
	iter := 0
	for ; iter < required; iter++ {
		for i, idx := range utils.SampleDistinctInts(n, k, r) {
			sample1[i] = pts1[idx]
			sample2[i] = pts2[idx]
		}
		candidates, err := e.Solver.Solve(sample1, sample2)
		if err != nil {
			return nil, err
		}
		for _, h := range candidates {
			if e.Normalize {
				if h, err = transform.Denormalize(t1, t2, h); err != nil {
					continue
				}
			}
			count, err := e.countInliers(h, x1, x2, threshold)
			if err != nil {
				continue
			}
			if count > bestCount {
				best, bestCount = h, count
				required = requiredIterations(e.OutlierProbability, float64(count)/float64(n), k, e.MaxIterations)
			}
		}
	}

	minViable := e.MinInliers
	if minViable == 0 {
		minViable = k + 1
		if minViable < 4 {
			minViable = 4
		}
	}
	if minViable > n {
		minViable = n
	}
	if bestCount < minViable {
		return nil, errors.Wrapf(ErrNoConsensus, "best consensus %d of %d after %d iterations", bestCount, n, iter)
	}

	inliers, err := e.collectInliers(best, x1, x2, threshold)
	if err != nil {
		return nil, err
	}
	res := &Result{Transform: best, Inliers: inliers}
	e.refit(res, x1, x2, pts1, pts2, t1, t2, threshold)
	logger.Debugf("robust fit converged after %d iterations with %d/%d inliers", iter, len(res.Inliers), n)
	return res, nil
}

// refit replaces the consensus transform with a least-squares fit over all inliers
// when the solver supports it and the refit does not shrink the consensus set.
func (e *Estimator) refit(res *Result, x1, x2, pts1, pts2 []r2.Point, t1, t2 *mat.Dense, threshold float64) {
	refitter, ok := e.Solver.(Refitter)
	if !ok || len(res.Inliers) <= e.Solver.MinimumSamples() {
		return
	}
	in1 := make([]r2.Point, len(res.Inliers))
	in2 := make([]r2.Point, len(res.Inliers))
	for i, idx := range res.Inliers {
		in1[i] = pts1[idx]
		in2[i] = pts2[idx]
	}
	h, err := refitter.Refit(in1, in2)
	if err != nil {
		return
	}
	if e.Normalize {
		if h, err = transform.Denormalize(t1, t2, h); err != nil {
			return
		}
	}
	inliers, err := e.collectInliers(h, x1, x2, threshold)
	if err != nil || len(inliers) < len(res.Inliers) {
		return
	}
	res.Transform = h
	res.Inliers = inliers
}

// countInliers scores h against every correspondence. A correspondence whose metric
// evaluation degenerates counts as an outlier; a metric error about the transform
// itself (e.g. a singular fit under a symmetric metric) invalidates the candidate.
func (e *Estimator) countInliers(h *mat.Dense, x1, x2 []r2.Point, threshold float64) (int, error) {
	count := 0
	for i := range x1 {
		residual, err := e.Metric.Error(h, x1[i], x2[i])
		if err != nil {
			if errors.Is(err, transform.ErrFailedDecomposition) {
				return 0, err
			}
			continue
		}
		if residual < threshold {
			count++
		}
	}
	return count, nil
}

func (e *Estimator) collectInliers(h *mat.Dense, x1, x2 []r2.Point, threshold float64) ([]int, error) {
	var inliers []int
	for i := range x1 {
		residual, err := e.Metric.Error(h, x1[i], x2[i])
		if err != nil {
			if errors.Is(err, transform.ErrFailedDecomposition) {
				return nil, err
			}
			continue
		}
		if residual < threshold {
			inliers = append(inliers, i)
		}
	}
	return inliers, nil
}

// requiredIterations returns the number of minimal samples needed so that the
// probability of never drawing an all-inlier sample of size k falls below p, given
// the observed inlier ratio w: N = log(p) / log(1 - w^k), clamped to [1, maxIter].
func requiredIterations(p, w float64, k, maxIter int) int {
	if p <= 0 || w <= 0 {
		return maxIter
	}
	wk := math.Pow(w, float64(k))
	if wk >= 1 {
		return 1
	}
	needed := math.Log(p) / math.Log(1-wk)
	if math.IsNaN(needed) || needed > float64(maxIter) {
		return maxIter
	}
	if needed < 1 {
		return 1
	}
	return int(math.Ceil(needed))
}
