// Package spatialmath defines rigid transforms on top of proper rotation matrices.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Transform is a rigid transform x -> R·x + t. Rotations are always proper, so the inverse never needs a
// general matrix inverse.
type Transform struct {
	rotation    *RotationMatrix
	translation r3.Vector
}

// NewTransform creates a transform from a rotation and a translation.
func NewTransform(rotation *RotationMatrix, translation r3.Vector) *Transform {
	if rotation == nil {
		rotation = IdentityRotation()
	}
	return &Transform{rotation: rotation, translation: translation}
}

// NewIdentityTransform returns the transform that maps every point to itself.
func NewIdentityTransform() *Transform {
	return NewTransform(IdentityRotation(), r3.Vector{})
}

// NewTransformFromMatrix parses a 4x4 homogeneous matrix. The bottom row must be [0 0 0 1] and the
// top-left block a proper rotation.
func NewTransformFromMatrix(m mat.Matrix) (*Transform, error) {
	if r, c := m.Dims(); r != 4 || c != 4 {
		return nil, errors.Errorf("homogeneous transform must be 4x4, got %dx%d", r, c)
	}
	for j, want := range []float64{0, 0, 0, 1} {
		if got := m.At(3, j); math.Abs(got-want) > rotationTolerance {
			return nil, errors.Errorf("bottom row of homogeneous transform must be [0 0 0 1], got %v at column %d", got, j)
		}
	}
	data := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data = append(data, m.At(i, j))
		}
	}
	rot, err := NewRotationMatrix(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid rotation block")
	}
	return NewTransform(rot, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}), nil
}

// Rotation returns the rotation part.
func (t *Transform) Rotation() *RotationMatrix {
	return t.rotation
}

// Translation returns the translation part.
func (t *Transform) Translation() r3.Vector {
	return t.translation
}

// Apply maps a point through the transform.
func (t *Transform) Apply(p r3.Vector) r3.Vector {
	return t.rotation.Apply(p).Add(t.translation)
}

// Inverse returns the transform (Rᵗ, -Rᵗt).
func (t *Transform) Inverse() *Transform {
	rt := t.rotation.Transpose()
	return NewTransform(rt, rt.Apply(t.translation).Mul(-1))
}

// Compose returns a∘b, the transform that applies b first and then a.
func Compose(a, b *Transform) *Transform {
	return NewTransform(a.rotation.Mul(b.rotation), a.rotation.Apply(b.translation).Add(a.translation))
}

// Matrix returns the 4x4 homogeneous form of the transform.
func (t *Transform) Matrix() *mat.Dense {
	data := make([]float64, 0, 16)
	for _, row := range t.RowMajor() {
		data = append(data, row[:]...)
	}
	return mat.NewDense(4, 4, data)
}

// RowMajor returns the 4x4 homogeneous form as nested arrays, row by row.
func (t *Transform) RowMajor() [4][4]float64 {
	var out [4][4]float64
	tr := [3]float64{t.translation.X, t.translation.Y, t.translation.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = t.rotation.At(i, j)
		}
		out[i][3] = tr[i]
	}
	out[3][3] = 1
	return out
}

// InvertMatrix inverts a 4x4 homogeneous rigid transform using the transpose of its rotation block.
func InvertMatrix(m mat.Matrix) (*mat.Dense, error) {
	t, err := NewTransformFromMatrix(m)
	if err != nil {
		return nil, err
	}
	return t.Inverse().Matrix(), nil
}

// TransformAlmostEqual reports whether two transforms agree within the given tolerances.
func TransformAlmostEqual(a, b *Transform, angleTol, translationTol float64) bool {
	return AngleBetween(a.rotation, b.rotation) <= angleTol &&
		a.translation.Sub(b.translation).Norm() <= translationTol
}
