package transform

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/tagcal/spatialmath"
)

// scaleEpsilon keeps the homography scale factor finite when both rotation columns vanish.
const scaleEpsilon = 1e-12

// CamPose stores the rotation and translation that take points of a planar target's frame into the
// camera frame (camera-from-target).
type CamPose struct {
	Rotation    *spatialmath.RotationMatrix
	Translation r3.Vector
}

// Pose creates a spatialmath.Transform from a CamPose.
func (cp *CamPose) Pose() *spatialmath.Transform {
	return spatialmath.NewTransform(cp.Rotation, cp.Translation)
}

// PoseFromHomography recovers the metric pose of a Z=0 planar target relative to a camera from the
// target-to-image homography and the camera intrinsics. With B = K⁻¹H, the first two columns of B are
// the first two rotation columns and the third is the translation, all up to the common scale
// λ = 1 / mean(‖b1‖, ‖b2‖). The assembled rotation is re-projected onto the nearest proper rotation,
// since noise leaves it only approximately orthonormal.
func PoseFromHomography(h *Homography, intrinsics *PinholeCameraIntrinsics) *CamPose {
	var b mat.Dense
	b.Mul(intrinsics.GetInverseCameraMatrix(), h.matrix)

	col := func(j int) r3.Vector {
		return r3.Vector{X: b.At(0, j), Y: b.At(1, j), Z: b.At(2, j)}
	}
	b1, b2, b3 := col(0), col(1), col(2)

	lambda := 1.0 / (0.5*(b1.Norm()+b2.Norm()) + scaleEpsilon)
	r1 := b1.Mul(lambda)
	r2 := b2.Mul(lambda)
	r3col := r1.Cross(r2)

	candidate := mat.NewDense(3, 3, []float64{
		r1.X, r2.X, r3col.X,
		r1.Y, r2.Y, r3col.Y,
		r1.Z, r2.Z, r3col.Z,
	})
	return &CamPose{
		Rotation:    spatialmath.NearestRotation(candidate),
		Translation: b3.Mul(lambda),
	}
}
