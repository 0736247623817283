package spatialmath

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestNewRotationMatrix(t *testing.T) {
	rm, err := NewRotationMatrix([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.Apply(r3.Vector{X: 1}), test.ShouldResemble, r3.Vector{Y: 1})

	_, err = NewRotationMatrix([]float64{1, 0, 0, 0, 1, 0, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "need exactly 9")

	_, err = NewRotationMatrix([]float64{2, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not orthonormal")

	// a reflection is orthonormal but not a rotation
	_, err = NewRotationMatrix([]float64{1, 0, 0, 0, 1, 0, 0, 0, -1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not a proper rotation")

	_, err = NewRotationMatrix([]float64{math.NaN(), 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNearestRotationClosure(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 200; i++ {
		data := make([]float64, 9)
		for j := range data {
			data[j] = rng.NormFloat64()
		}
		rm := NearestRotation(mat.NewDense(3, 3, data))
		test.That(t, OrthonormalityError(rm), test.ShouldBeLessThan, 1e-9)
		test.That(t, rm.Det(), test.ShouldAlmostEqual, 1, 1e-9)
	}

	// an already proper rotation is a fixed point
	want := (&EulerAngles{Roll: 0.3, Pitch: -0.2, Yaw: 1.1}).RotationMatrix()
	got := NearestRotation(want.Dense())
	test.That(t, AngleBetween(got, want), test.ShouldBeLessThan, 1e-12)

	// a reflection is mapped to a proper rotation
	got = NearestRotation(mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, -1}))
	test.That(t, got.Det(), test.ShouldAlmostEqual, 1, 1e-12)
}

func TestNearestRotationNoisy(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 1))
	want := (&EulerAngles{Roll: -0.4, Pitch: 0.1, Yaw: 2.5}).RotationMatrix()
	data := want.Data()
	for j := range data {
		data[j] += 0.01 * rng.NormFloat64()
	}
	got := NearestRotation(mat.NewDense(3, 3, data))
	test.That(t, OrthonormalityError(got), test.ShouldBeLessThan, 1e-9)
	test.That(t, AngleBetween(got, want), test.ShouldBeLessThan, 0.05)
}

func TestNearestRotationDegenerate(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		m := mat.NewDense(3, 3, []float64{1, 0, 0, 0, bad, 0, 0, 0, 1})
		rm := NearestRotation(m)
		for _, v := range rm.Data() {
			test.That(t, math.IsNaN(v), test.ShouldBeTrue)
		}
	}

	// a rank deficient matrix still factorizes and lands on the manifold
	rm := NearestRotation(mat.NewDense(3, 3, nil))
	test.That(t, rm.Det(), test.ShouldAlmostEqual, 1, 1e-12)

	test.That(t, func() { NearestRotation(mat.NewDense(2, 2, nil)) }, test.ShouldPanic)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	for _, ea := range []EulerAngles{
		{},
		{Roll: 0.1},
		{Pitch: -0.7},
		{Yaw: 3.0},
		{Roll: -2.9, Pitch: 1.2, Yaw: -1.4},
		{Roll: 1, Pitch: -1.5, Yaw: 0.25},
	} {
		got := ea.RotationMatrix().EulerAngles()
		test.That(t, got.Roll, test.ShouldAlmostEqual, ea.Roll, 1e-12)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, ea.Pitch, 1e-12)
		test.That(t, got.Yaw, test.ShouldAlmostEqual, ea.Yaw, 1e-12)
	}
}

func TestEulerAnglesGimbalLock(t *testing.T) {
	for _, pitch := range []float64{math.Pi / 2, -math.Pi / 2} {
		ea := EulerAngles{Roll: 0.3, Pitch: pitch, Yaw: 0.5}
		rm := ea.RotationMatrix()
		got := rm.EulerAngles()
		test.That(t, got.Yaw, test.ShouldEqual, 0.)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, pitch, 1e-9)
		// roll absorbs yaw, and the decomposition still describes the same rotation
		test.That(t, AngleBetween(got.RotationMatrix(), rm), test.ShouldBeLessThan, 1e-9)
	}
}

func TestEulerAnglesMatchMathgl(t *testing.T) {
	ea := EulerAngles{Roll: 0.2, Pitch: -0.35, Yaw: 1.3}
	want := mgl64.Rotate3DZ(ea.Yaw).Mul3(mgl64.Rotate3DY(ea.Pitch)).Mul3(mgl64.Rotate3DX(ea.Roll))
	got := ea.RotationMatrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, got.At(i, j), test.ShouldAlmostEqual, want.At(i, j), 1e-12)
		}
	}

	deg := ea.Degrees()
	test.That(t, deg[0], test.ShouldAlmostEqual, mgl64.RadToDeg(0.2), 1e-12)
	test.That(t, deg[2], test.ShouldAlmostEqual, mgl64.RadToDeg(1.3), 1e-12)
}

func TestRotationAlgebra(t *testing.T) {
	a := (&EulerAngles{Roll: 0.1, Pitch: 0.2, Yaw: 0.3}).RotationMatrix()
	b := (&EulerAngles{Roll: -0.5, Yaw: 1}).RotationMatrix()

	test.That(t, AngleBetween(a.Mul(a.Transpose()), IdentityRotation()), test.ShouldBeLessThan, 1e-12)
	test.That(t, AngleBetween(a.Transpose().Transpose(), a), test.ShouldBeLessThan, 1e-14)

	v := r3.Vector{X: 1, Y: -2, Z: 0.5}
	test.That(t, a.Mul(b).Apply(v).Sub(a.Apply(b.Apply(v))).Norm(), test.ShouldBeLessThan, 1e-12)
	test.That(t, a.Apply(v).Norm(), test.ShouldAlmostEqual, v.Norm(), 1e-12)

	test.That(t, a.Row(1), test.ShouldResemble, r3.Vector{X: a.At(1, 0), Y: a.At(1, 1), Z: a.At(1, 2)})
	test.That(t, a.Col(2), test.ShouldResemble, r3.Vector{X: a.At(0, 2), Y: a.At(1, 2), Z: a.At(2, 2)})

	test.That(t, AngleBetween(a, a), test.ShouldBeLessThan, 1e-14)
	yaw := (&EulerAngles{Yaw: 0.7}).RotationMatrix()
	test.That(t, AngleBetween(IdentityRotation(), yaw), test.ShouldAlmostEqual, 0.7, 1e-12)
}

func TestQuaternion(t *testing.T) {
	rm := (&EulerAngles{Yaw: math.Pi / 2}).RotationMatrix()
	q := rm.Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Sqrt2/2, 1e-12)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sqrt2/2, 1e-12)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 0, 1e-12)

	// every branch of the conversion goes back to the same rotation
	for _, ea := range []EulerAngles{
		{Roll: 3.1},
		{Pitch: 3.1, Roll: 0.01},
		{Yaw: 3.1, Pitch: 0.02},
		{Roll: 0.4, Pitch: 0.3, Yaw: -0.2},
	} {
		rm := ea.RotationMatrix()
		q := rm.Quaternion()
		test.That(t, q.Real, test.ShouldBeGreaterThanOrEqualTo, 0.)
		test.That(t, AngleBetween(QuatToRotationMatrix(q), rm), test.ShouldBeLessThan, 1e-9)
	}
}

func TestEulerAnglesDegreesNoNegativeZero(t *testing.T) {
	// atan2(-0, 1) is -0
	ea := IdentityRotation().EulerAngles()
	test.That(t, math.Signbit(ea.Pitch), test.ShouldBeTrue)
	for _, v := range ea.Degrees() {
		test.That(t, v, test.ShouldEqual, 0.)
		test.That(t, math.Signbit(v), test.ShouldBeFalse)
	}

	deg := (&EulerAngles{Roll: -0.5, Pitch: math.Copysign(0, -1), Yaw: 0.25}).Degrees()
	test.That(t, deg[0], test.ShouldAlmostEqual, -28.64788975654116, 1e-12)
	test.That(t, math.Signbit(deg[1]), test.ShouldBeFalse)
}
