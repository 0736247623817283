package calibration

import (
	"github.com/golang/geo/r2"

	"go.viam.com/tagcal/spatialmath"
)

// Detection is the four pixel corners of one tag seen by one camera at one instant. Corners follow
// the order of TagCorners.
type Detection struct {
	TimestampNs int64
	CameraID    string
	TagID       int
	Corners     [4]r2.Point
}

// FramePose is the pose of the tag in one camera frame, recovered from a Detection, together with the
// reprojection RMSE in pixels of the tag corners under that pose.
type FramePose struct {
	TimestampNs   int64
	CameraID      string
	TagID         int
	CameraFromTag *spatialmath.Transform
	RMSE          float64
}

// PairResidual describes one pair of frames accepted into the average.
type PairResidual struct {
	TimestampNs   int64   `json:"ts_ns"`
	ReferenceRMSE float64 `json:"reference_rmse_px"`
	TargetRMSE    float64 `json:"target_rmse_px"`
}
