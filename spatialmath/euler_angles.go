package spatialmath

import (
	"math"

	"go.viam.com/tagcal/utils"
)

// Below this value of sqrt(R00² + R10²) the pitch is treated as ±90° and yaw is not recoverable.
const gimbalLockEpsilon = 1e-8

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space.
// The rotation is applied about the fixed x axis (Roll) first, then y (Pitch), then z (Yaw):
// R = Rz(Yaw)·Ry(Pitch)·Rx(Roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// RotationMatrix returns Rz(Yaw)·Ry(Pitch)·Rx(Roll).
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	cr, sr := math.Cos(ea.Roll), math.Sin(ea.Roll)
	cp, sp := math.Cos(ea.Pitch), math.Sin(ea.Pitch)
	cy, sy := math.Cos(ea.Yaw), math.Sin(ea.Yaw)
	return &RotationMatrix{[9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}}
}

// Degrees returns roll, pitch, and yaw converted to degrees. Negative zeros come back as zero.
func (ea *EulerAngles) Degrees() [3]float64 {
	return [3]float64{degrees(ea.Roll), degrees(ea.Pitch), degrees(ea.Yaw)}
}

func degrees(rad float64) float64 {
	deg := utils.RadToDeg(rad)
	if deg == 0 {
		return 0
	}
	return deg
}
