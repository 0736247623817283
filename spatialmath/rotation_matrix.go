package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// rotationTolerance bounds the Frobenius norm of RᵗR - I, and |det(R) - 1|, that NewRotationMatrix accepts.
const rotationTolerance = 1e-6

// RotationMatrix is a 3x3 proper rotation (orthonormal, determinant +1) stored in row-major order.
// The zero value is not a rotation; use IdentityRotation, NewRotationMatrix, or NearestRotation.
type RotationMatrix struct {
	mat [9]float64
}

// IdentityRotation returns the rotation that does nothing.
func IdentityRotation() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewRotationMatrix creates a rotation from nine row-major values. The values must already describe a
// proper rotation; noisy matrices should go through NearestRotation instead.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	if e := OrthonormalityError(rm); !(e < rotationTolerance) {
		return nil, errors.Errorf("matrix is not orthonormal, ||RᵗR - I|| = %g", e)
	}
	if d := rm.Det(); !(math.Abs(d-1) < rotationTolerance) {
		return nil, errors.Errorf("matrix is not a proper rotation, det = %g", d)
	}
	return rm, nil
}

// NearestRotation projects a 3x3 matrix onto the closest proper rotation in the Frobenius sense.
// With m = UΣVᵗ the result is UVᵗ; if that has a negative determinant the last column of U is
// negated first. Input that cannot be factorized (NaN, Inf) yields a rotation full of NaN so that
// the degeneracy stays visible downstream.
func NearestRotation(m mat.Matrix) *RotationMatrix {
	if r, c := m.Dims(); r != 3 || c != 3 {
		panic(errors.Errorf("NearestRotation needs a 3x3 matrix, got %dx%d", r, c))
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nanRotation()
			}
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nanRotation()
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		r.Mul(&u, v.T())
	}
	rm := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rm.mat[3*i+j] = r.At(i, j)
		}
	}
	return rm
}

func nanRotation() *RotationMatrix {
	rm := &RotationMatrix{}
	for i := range rm.mat {
		rm.mat[i] = math.NaN()
	}
	return rm
}

// At returns the value at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the given row as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the given column as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Data returns a copy of the nine row-major values.
func (rm *RotationMatrix) Data() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Dense returns the rotation as a 3x3 gonum matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, rm.Data())
}

// Transpose returns the inverse rotation.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	t := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.mat[3*j+i] = rm.mat[3*i+j]
		}
	}
	return t
}

// Mul returns the product rm * other, i.e. other is applied first.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[3*i+j] = rm.Row(i).Dot(other.Col(j))
		}
	}
	return out
}

// Apply rotates a vector.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Row(0).Dot(v), Y: rm.Row(1).Dot(v), Z: rm.Row(2).Dot(v)}
}

// Det returns the determinant, which is +1 for every valid rotation.
func (rm *RotationMatrix) Det() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// EulerAngles returns the roll, pitch, and yaw of the rotation such that R = Rz(yaw)·Ry(pitch)·Rx(roll).
// Near pitch = ±90° roll and yaw are not separable; yaw is then fixed to zero and roll absorbs the rest.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	sy := math.Hypot(rm.At(0, 0), rm.At(1, 0))
	if sy < gimbalLockEpsilon {
		return &EulerAngles{
			Roll:  math.Atan2(-rm.At(1, 2), rm.At(1, 1)),
			Pitch: math.Atan2(-rm.At(2, 0), sy),
			Yaw:   0,
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(rm.At(2, 1), rm.At(2, 2)),
		Pitch: math.Atan2(-rm.At(2, 0), sy),
		Yaw:   math.Atan2(rm.At(1, 0), rm.At(0, 0)),
	}
}

// Quaternion returns the unit quaternion of the rotation, with a non-negative real part.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := func(i, j int) float64 { return rm.At(i, j) }
	var q quat.Number
	tr := m(0, 0) + m(1, 1) + m(2, 2)
	switch {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1.0)
		q = quat.Number{Real: 0.25 / s, Imag: (m(2, 1) - m(1, 2)) * s, Jmag: (m(0, 2) - m(2, 0)) * s, Kmag: (m(1, 0) - m(0, 1)) * s}
	case m(0, 0) > m(1, 1) && m(0, 0) > m(2, 2):
		s := 2.0 * math.Sqrt(1.0+m(0, 0)-m(1, 1)-m(2, 2))
		q = quat.Number{Real: (m(2, 1) - m(1, 2)) / s, Imag: 0.25 * s, Jmag: (m(0, 1) + m(1, 0)) / s, Kmag: (m(0, 2) + m(2, 0)) / s}
	case m(1, 1) > m(2, 2):
		s := 2.0 * math.Sqrt(1.0+m(1, 1)-m(0, 0)-m(2, 2))
		q = quat.Number{Real: (m(0, 2) - m(2, 0)) / s, Imag: (m(0, 1) + m(1, 0)) / s, Jmag: 0.25 * s, Kmag: (m(1, 2) + m(2, 1)) / s}
	default:
		s := 2.0 * math.Sqrt(1.0+m(2, 2)-m(0, 0)-m(1, 1))
		q = quat.Number{Real: (m(1, 0) - m(0, 1)) / s, Imag: (m(0, 2) + m(2, 0)) / s, Jmag: (m(1, 2) + m(2, 1)) / s, Kmag: 0.25 * s}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// OrthonormalityError returns the Frobenius norm of RᵗR - I.
func OrthonormalityError(rm *RotationMatrix) float64 {
	sum := 0.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := rm.Col(i).Dot(rm.Col(j))
			if i == j {
				d--
			}
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

// AngleBetween returns the angle in radians of the rotation that takes a to b. It is computed from
// both the trace and the skew-symmetric part, so it stays accurate for tiny angles.
func AngleBetween(a, b *RotationMatrix) float64 {
	rel := a.Transpose().Mul(b)
	cos := (rel.At(0, 0) + rel.At(1, 1) + rel.At(2, 2) - 1) / 2
	sin := r3.Vector{
		X: rel.At(2, 1) - rel.At(1, 2),
		Y: rel.At(0, 2) - rel.At(2, 0),
		Z: rel.At(1, 0) - rel.At(0, 1),
	}.Norm() / 2
	return math.Atan2(sin, cos)
}
