package transform

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/tagcal/spatialmath"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
// Lens distortion is not modeled.
type PinholeCameraIntrinsics struct {
	Fx  float64 `json:"fx"`
	Fy  float64 `json:"fy"`
	Ppx float64 `json:"cx"`
	Ppy float64 `json:"cy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if !(params.Fx > 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if !(params.Fy > 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if !(params.Ppx >= 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if !(params.Ppy >= 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// GetInverseCameraMatrix returns the inverse of the camera matrix, computed in closed form.
func (params *PinholeCameraIntrinsics) GetInverseCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	return mat.NewDense(3, 3, []float64{
		1 / params.Fx, 0, -params.Ppx / params.Fx,
		0, 1 / params.Fy, -params.Ppy / params.Fy,
		0, 0, 1,
	})
}

// PointToPixel projects a 3D point in the camera frame to a pixel. Points at zero or negative depth are
// not filtered, so the result can be mirrored, NaN, or infinite.
func (params *PinholeCameraIntrinsics) PointToPixel(pt r3.Vector) r2.Point {
	// K·p = (fx·x + ppx·z, fy·y + ppy·z, z)
	w := pt.Z
	return r2.Point{
		X: (params.Fx*pt.X + params.Ppx*w) / w,
		Y: (params.Fy*pt.Y + params.Ppy*w) / w,
	}
}

// ProjectPlanePoints projects points of the Z=0 plane of a frame into pixels, given the pose
// (rotation, translation) that takes that frame into the camera frame.
func (params *PinholeCameraIntrinsics) ProjectPlanePoints(
	rotation *spatialmath.RotationMatrix,
	translation r3.Vector,
	pts []r2.Point,
) []r2.Point {
	pose := spatialmath.NewTransform(rotation, translation)
	pixels := make([]r2.Point, len(pts))
	for i, pt := range pts {
		pixels[i] = params.PointToPixel(pose.Apply(r3.Vector{X: pt.X, Y: pt.Y, Z: 0}))
	}
	return pixels
}
