// Package calibration estimates the rigid transform between two cameras that both observe a planar
// fiducial tag. Each detection is turned into a camera-from-tag pose with a DLT homography, frames seen
// by both cameras at the same timestamp are paired and gated on reprojection error, and the relative
// transforms of all accepted pairs are averaged on SE(3).
package calibration

import (
	"github.com/golang/geo/r2"
)

// TagCorners returns the corners of a square tag of side sizeM centered on the origin of the tag's
// Z=0 plane, counter-clockwise from the (-,-) corner. Detections must list their pixel corners in
// this same order.
func TagCorners(sizeM float64) []r2.Point {
	h := sizeM / 2
	return []r2.Point{
		{X: -h, Y: -h},
		{X: h, Y: -h},
		{X: h, Y: h},
		{X: -h, Y: h},
	}
}
