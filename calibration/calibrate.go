package calibration

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/tagcal/logging"
	"go.viam.com/tagcal/rimage/transform"
)

// Calibrate estimates every detection's pose and fuses the reference and target camera frames into
// a single transform.
func Calibrate(
	ctx context.Context,
	intrinsics map[string]*transform.PinholeCameraIntrinsics,
	tagSizeM float64,
	dets []Detection,
	cfg Config,
	logger logging.Logger,
) (*Result, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid calibration config")
	}
	estimator, err := NewEstimator(intrinsics, tagSizeM, cfg, logger.Sublogger("estimator"))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	poses, err := estimator.EstimateFramePoses(ctx, dets)
	if err != nil {
		return nil, err
	}
	logger.Debugw("estimated frame poses", "frames", len(poses), "elapsed", time.Since(start))

	result, err := Fuse(poses, cfg, logger.Sublogger("fusion"))
	if err != nil {
		return nil, err
	}
	logger.Infow("calibrated",
		"reference", cfg.ReferenceCamera,
		"target", cfg.TargetCamera,
		"pairs_used", result.PairsUsed,
		"candidates", result.Candidates)
	return result, nil
}
