package mosaic

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Ashwinning/libmv/transform"
)

// BoundingBox is an axis-aligned integer pixel region in the frame of the first
// image of a sequence.
type BoundingBox struct {
	XMin, XMax, YMin, YMax int
}

// Width is the horizontal extent of the box.
func (b BoundingBox) Width() int { return b.XMax - b.XMin }

// Height is the vertical extent of the box.
func (b BoundingBox) Height() int { return b.YMax - b.YMin }

// AbsoluteTransforms chains N-1 relative transforms into one absolute transform per
// image. Relative transform k maps image-k coordinates into image-(k+1)'s frame
// (q_2 = H_1 * q_1), so the absolute transform of image k is the left-to-right
// product H_{k-1} * ... * H_1, with the identity for the first image.
func AbsoluteTransforms(relative []*mat.Dense) []*mat.Dense {
	absolute := make([]*mat.Dense, len(relative)+1)
	absolute[0] = transform.Identity()
	for k := 1; k < len(absolute); k++ {
		absolute[k] = transform.Mul(relative[k-1], absolute[k-1])
	}
	return absolute
}

// GlobalBoundingBox computes the smallest axis-aligned bounding box covering every
// image of the sequence once mapped by its absolute transform. Corners are rounded
// outward with the ceiling so integer pixel coverage is guaranteed. A corner whose
// homogeneous coordinate vanishes reports transform.ErrDegenerateProjection.
func GlobalBoundingBox(relative []*mat.Dense, images []string, sizer ImageSizer) (BoundingBox, error) {
	if len(images) != len(relative)+1 {
		return BoundingBox{}, errors.Errorf("got %d images but %d relative transforms", len(images), len(relative))
	}
	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)

	h := transform.Identity()
	for k, img := range images {
		if k > 0 {
			h = transform.Mul(relative[k-1], h)
		}
		width, height, err := sizer.ImageSize(img)
		if err != nil {
			return BoundingBox{}, err
		}
		w, ht := float64(width), float64(height)
		corners := []r2.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: ht}, {X: 0, Y: ht}}
		for _, corner := range corners {
			q, err := transform.ApplyToPoint(h, corner)
			if err != nil {
				return BoundingBox{}, errors.Wrapf(err, "image %q", img)
			}
			x, y := math.Ceil(q.X), math.Ceil(q.Y)
			xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
			yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
		}
	}

	if xMin > xMax || yMin > yMax {
		return BoundingBox{}, errors.New("internal: bounding box inverted")
	}
	return BoundingBox{
		XMin: int(xMin), XMax: int(xMax),
		YMin: int(yMin), YMax: int(yMax),
	}, nil
}

// RegistrationTransform returns the translation registering the sequence inside the
// bounding box, so the minimum mapped coordinates become (0, 0). A renderer applies
// it on the left of every absolute transform.
func RegistrationTransform(b BoundingBox) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, -float64(b.XMin),
		0, 1, -float64(b.YMin),
		0, 0, 1,
	})
}
