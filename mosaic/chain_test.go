package mosaic

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/Ashwinning/libmv/transform"
)

func translation(dx, dy float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, dx,
		0, 1, dy,
		0, 0, 1,
	})
}

// fixedSizer reports the same dimensions for every image.
type fixedSizer struct {
	width, height int
	err           error
}

func (s fixedSizer) ImageSize(string) (int, int, error) {
	return s.width, s.height, s.err
}

func TestAbsoluteTransforms(t *testing.T) {
	h1 := translation(10, 0)
	h2 := translation(0, 5)
	absolute := AbsoluteTransforms([]*mat.Dense{h1, h2})
	test.That(t, len(absolute), test.ShouldEqual, 3)

	identity := transform.Identity()
	expected := []*mat.Dense{identity, h1, transform.Mul(h2, h1)}
	for k := range absolute {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				test.That(t, absolute[k].At(i, j), test.ShouldAlmostEqual, expected[k].At(i, j))
			}
		}
	}
}

func TestGlobalBoundingBoxIdentityChain(t *testing.T) {
	relative := []*mat.Dense{transform.Identity(), transform.Identity()}
	images := []string{"a", "b", "c"}
	box, err := GlobalBoundingBox(relative, images, fixedSizer{width: 640, height: 480})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box, test.ShouldResemble, BoundingBox{XMin: 0, XMax: 640, YMin: 0, YMax: 480})
	test.That(t, box.Width(), test.ShouldEqual, 640)
	test.That(t, box.Height(), test.ShouldEqual, 480)
}

func TestGlobalBoundingBoxTranslationChain(t *testing.T) {
	relative := []*mat.Dense{translation(50, 20)}
	images := []string{"a", "b"}
	box, err := GlobalBoundingBox(relative, images, fixedSizer{width: 100, height: 100})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box, test.ShouldResemble, BoundingBox{XMin: 0, XMax: 150, YMin: 0, YMax: 120})
}

func TestGlobalBoundingBoxCeilRounding(t *testing.T) {
	// fractional corners round outward toward the next integer
	relative := []*mat.Dense{translation(-0.25, 0.75)}
	images := []string{"a", "b"}
	box, err := GlobalBoundingBox(relative, images, fixedSizer{width: 10, height: 10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.XMin, test.ShouldEqual, 0) // ceil(-0.25) = 0
	test.That(t, box.XMax, test.ShouldEqual, 10)
	test.That(t, box.YMin, test.ShouldEqual, 0)
	test.That(t, box.YMax, test.ShouldEqual, 11) // ceil(10.75) = 11
}

func TestGlobalBoundingBoxDegenerate(t *testing.T) {
	// a zero bottom row sends corners to the line at infinity
	degenerate := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})
	_, err := GlobalBoundingBox([]*mat.Dense{degenerate}, []string{"a", "b"}, fixedSizer{width: 10, height: 10})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, transform.ErrDegenerateProjection), test.ShouldBeTrue)
}

func TestGlobalBoundingBoxLengthMismatch(t *testing.T) {
	_, err := GlobalBoundingBox(nil, []string{"a", "b"}, fixedSizer{width: 10, height: 10})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGlobalBoundingBoxSizerError(t *testing.T) {
	sizerErr := errors.New("image not found")
	_, err := GlobalBoundingBox(nil, []string{"a"}, fixedSizer{err: sizerErr})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, sizerErr), test.ShouldBeTrue)
}

func TestRegistrationTransform(t *testing.T) {
	reg := RegistrationTransform(BoundingBox{XMin: -30, XMax: 100, YMin: 12, YMax: 50})
	test.That(t, reg.At(0, 2), test.ShouldAlmostEqual, 30)
	test.That(t, reg.At(1, 2), test.ShouldAlmostEqual, -12)
	test.That(t, reg.At(0, 0), test.ShouldAlmostEqual, 1)
	test.That(t, reg.At(1, 1), test.ShouldAlmostEqual, 1)
}
