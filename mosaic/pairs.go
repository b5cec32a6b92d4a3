package mosaic

import (
	"context"
	"math/rand"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	viamutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// CorrespondenceProvider yields the matched point locations between two images. The
// two slices are ordered consistently: point i of the first slice depicts the same
// feature as point i of the second.
type CorrespondenceProvider interface {
	Correspondences(imageA, imageB string) ([]r2.Point, []r2.Point, error)
}

// ImageSizer reports the pixel dimensions of an image.
type ImageSizer interface {
	ImageSize(image string) (width, height int, err error)
}

// PairResult is the outcome of estimating the relative transform of one adjacent
// image pair. Exactly one of Transform and Err is set; a pair that cannot be fit is
// never silently dropped, so callers always see one result per pair.
type PairResult struct {
	ImageA, ImageB string
	// Transform maps ImageA coordinates into ImageB's frame.
	Transform *mat.Dense
	// Inliers indexes the correspondences consistent with Transform.
	Inliers []int
	Err     error
}

// PairResults holds one result per adjacent image pair, in sequence order.
type PairResults []PairResult

// Err combines the failures of all pairs, or returns nil if every pair was fit.
func (rs PairResults) Err() error {
	var err error
	for _, res := range rs {
		if res.Err != nil {
			err = multierr.Append(err, errors.Wrapf(res.Err, "pair %q -> %q", res.ImageA, res.ImageB))
		}
	}
	return err
}

// Transforms returns the relative transforms in sequence order. It fails if any pair
// could not be fit; substituting for a failed pair is an explicit caller decision,
// not a default.
func (rs PairResults) Transforms() ([]*mat.Dense, error) {
	if err := rs.Err(); err != nil {
		return nil, err
	}
	hs := make([]*mat.Dense, len(rs))
	for i, res := range rs {
		hs[i] = res.Transform
	}
	return hs, nil
}

// ComputeRelativeTransforms estimates one relative transform per adjacent image pair
// of the sequence. Pairs are estimated in parallel; each estimation gets its own
// random source seeded from the configured seed and the pair index, so results are
// reproducible regardless of scheduling.
func ComputeRelativeTransforms(
	ctx context.Context,
	provider CorrespondenceProvider,
	images []string,
	cfg *Config,
	logger golog.Logger,
) (PairResults, error) {
	if len(images) < 2 {
		return nil, errors.Errorf("need at least 2 images, got %d", len(images))
	}
	est, err := cfg.estimator()
	if err != nil {
		return nil, err
	}

	results := make(PairResults, len(images)-1)
	var wg sync.WaitGroup
	wg.Add(len(results))
	for i := range results {
		pairNum := i
		viamutils.PanicCapturingGo(func() {
			defer wg.Done()
			res := &results[pairNum]
			res.ImageA, res.ImageB = images[pairNum], images[pairNum+1]
			if err := ctx.Err(); err != nil {
				res.Err = err
				return
			}
			x1, x2, err := provider.Correspondences(res.ImageA, res.ImageB)
			if err != nil {
				res.Err = err
				return
			}
			r := rand.New(rand.NewSource(cfg.Seed + int64(pairNum)))
			fit, err := est.Estimate(x1, x2, r, logger)
			if err != nil {
				res.Err = err
				return
			}
			res.Transform = fit.Transform
			res.Inliers = fit.Inliers
		})
	}
	wg.Wait()

	if err := results.Err(); err != nil {
		logger.Warnw("some image pairs could not be fit", "error", err)
	}
	return results, nil
}
