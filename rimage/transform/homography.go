package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrTooFewPoints is returned when a homography is requested from fewer than four correspondences.
var ErrTooFewPoints = errors.New("a homography needs at least 4 point correspondences")

// homographyEpsilon keeps the H22 normalization finite when H22 is close to zero.
const homographyEpsilon = 1e-12

// Homography is a 3x3 matrix used to transform a plane from the perspective of a 2D
// camera to the perspective of another 2D camera, or from a planar target to an image.
type Homography struct {
	matrix *mat.Dense
}

// NewHomography creates a Homography from a slice of 9 row-major values.
func NewHomography(vals []float64) (*Homography, error) {
	if len(vals) != 9 {
		return nil, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	data := make([]float64, 9)
	copy(data, vals)
	return &Homography{mat.NewDense(3, 3, data)}, nil
}

// At returns the value of the homography at the specified indices.
func (h *Homography) At(row, col int) float64 {
	return h.matrix.At(row, col)
}

// Matrix returns a copy of the homography as a 3x3 matrix.
func (h *Homography) Matrix() *mat.Dense {
	return mat.DenseCopyOf(h.matrix)
}

// Apply will transform the input point according to the homography.
func (h *Homography) Apply(pt r2.Point) r2.Point {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	z := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	return r2.Point{X: x / z, Y: y / z}
}

// Inverse inverts the homography. If homography went from color -> depth, Inverse makes it point
// from depth -> color.
func (h *Homography) Inverse() (*Homography, error) {
	var hInv mat.Dense
	if err := hInv.Inverse(h.matrix); err != nil {
		return nil, errors.Wrap(err, "homography is not invertible")
	}
	return &Homography{&hInv}, nil
}

// EstimateHomography computes, with the direct linear transform, the homography H such that
// s·[u v 1]ᵗ = H·[X Y 1]ᵗ for every correspondence of plane point (X, Y) to pixel (u, v).
// The result is scaled so that H22 is 1. When normalize is true both point sets are first
// conditioned as in Hartley's normalized DLT. Degenerate configurations (e.g. collinear points)
// are not detected: the least-squares null vector is returned as is. Non-finite input yields
// an all-NaN homography.
func EstimateHomography(plane, pixels []r2.Point, normalize bool) (*Homography, error) {
	if len(plane) != len(pixels) {
		return nil, errors.Errorf("plane and pixel point sets differ in size: %d != %d", len(plane), len(pixels))
	}
	if len(plane) < 4 {
		return nil, errors.Wrapf(ErrTooFewPoints, "got %d", len(plane))
	}
	src, dst := plane, pixels
	var tSrc, tDst *mat.Dense
	if normalize {
		src, tSrc = normalizePoints(plane)
		dst, tDst = normalizePoints(pixels)
	}

	a := mat.NewDense(2*len(src), 9, nil)
	for i := range src {
		X, Y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{X, Y, 1, 0, 0, 0, -u * X, -u * Y, -u})
		a.SetRow(2*i+1, []float64{0, 0, 0, X, Y, 1, -v * X, -v * Y, -v})
	}

	// the SVD does not converge on non-finite entries
	for _, x := range a.RawMatrix().Data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &Homography{nanMatrix(3, 3)}, nil
		}
	}

	h := mat.NewDense(3, 3, nil)
	mats := performSVD(a)
	if mats == nil {
		return &Homography{nanMatrix(3, 3)}, nil
	}
	// the right singular vector of the smallest singular value
	null := mats.V.ColView(8)
	for i := 0; i < 9; i++ {
		h.Set(i/3, i%3, null.AtVec(i))
	}

	if normalize {
		// H = T_dst⁻¹ · Ĥ · T_src
		var tDstInv mat.Dense
		if err := tDstInv.Inverse(tDst); err != nil {
			return &Homography{nanMatrix(3, 3)}, nil
		}
		var tmp, denorm mat.Dense
		tmp.Mul(&tDstInv, h)
		denorm.Mul(&tmp, tSrc)
		h = &denorm
	}

	h.Scale(1/(h.At(2, 2)+homographyEpsilon), h)
	return &Homography{h}, nil
}

func nanMatrix(r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = math.NaN()
	}
	return mat.NewDense(r, c, data)
}
