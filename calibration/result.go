package calibration

import (
	"go.viam.com/tagcal/spatialmath"
)

// Result is the calibrated transform from the reference camera frame to the target camera frame.
type Result struct {
	Transform *spatialmath.Transform `json:"-"`
	// Matrix is Transform in 4x4 homogeneous form, row by row.
	Matrix [4][4]float64 `json:"T_cam2_cam1_matrix"`
	// RPYDeg is roll, pitch and yaw of the rotation in degrees, for R = Rz(yaw)·Ry(pitch)·Rx(roll).
	RPYDeg [3]float64 `json:"rpy_deg"`
	// XYZ is the translation in meters.
	XYZ [3]float64 `json:"xyz_m"`
	// ReprojRMSE is the mean per-frame RMSE over both frames of every accepted pair. It is nil when no
	// pair was accepted.
	ReprojRMSE *float64 `json:"reproj_rmse_px"`
	PairsUsed  int      `json:"pairs_used"`

	// Pairs lists the accepted pairs in timestamp order.
	Pairs []PairResidual `json:"-"`
	// Candidates is the number of timestamps seen by both cameras, before gating.
	Candidates int `json:"-"`
}

func newResult(t *spatialmath.Transform, reprojRMSE *float64, pairs []PairResidual, candidates int) *Result {
	trans := t.Translation()
	return &Result{
		Transform:  t,
		Matrix:     t.RowMajor(),
		RPYDeg:     t.Rotation().EulerAngles().Degrees(),
		XYZ:        [3]float64{trans.X, trans.Y, trans.Z},
		ReprojRMSE: reprojRMSE,
		PairsUsed:  len(pairs),
		Pairs:      pairs,
		Candidates: candidates,
	}
}
