package calibration_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.viam.com/test"

	"go.viam.com/tagcal/calibration"
	"go.viam.com/tagcal/logging"
	"go.viam.com/tagcal/spatialmath"
	"go.viam.com/tagcal/synthetic"
	"go.viam.com/tagcal/utils"
)

func TestCalibrateSyntheticNoiseFree(t *testing.T) {
	cfg := synthetic.DefaultConfig()
	cfg.NoisePx = 0
	cfg.PixelDecimals = -1
	ds, err := synthetic.Generate(cfg)
	test.That(t, err, test.ShouldBeNil)

	res, err := calibration.Calibrate(context.Background(), ds.Intrinsics, ds.TagSizeM, ds.Detections,
		calibration.DefaultConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.PairsUsed, test.ShouldEqual, cfg.Frames)
	test.That(t, *res.ReprojRMSE, test.ShouldBeLessThan, 1e-6)
	test.That(t, spatialmath.TransformAlmostEqual(res.Transform, ds.GroundTruth, 1e-6, 1e-8), test.ShouldBeTrue)

	// +0.10 m along X and +3 degrees of yaw
	test.That(t, cmp.Equal(res.XYZ, [3]float64{0.10, 0, 0}, cmpopts.EquateApprox(0, 1e-8)), test.ShouldBeTrue)
	test.That(t, cmp.Equal(res.RPYDeg, [3]float64{0, 0, 3}, cmpopts.EquateApprox(0, 1e-5)), test.ShouldBeTrue)
}

func TestCalibrateSyntheticNoisy(t *testing.T) {
	ds, err := synthetic.Generate(synthetic.DefaultConfig())
	test.That(t, err, test.ShouldBeNil)

	logger := logging.NewTestLogger(t)
	sequential, err := calibration.Calibrate(context.Background(), ds.Intrinsics, ds.TagSizeM, ds.Detections,
		calibration.DefaultConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sequential.PairsUsed, test.ShouldEqual, 40)
	test.That(t, *sequential.ReprojRMSE, test.ShouldBeLessThan, 1.5)

	angleErr := spatialmath.AngleBetween(sequential.Transform.Rotation(), ds.GroundTruth.Rotation())
	test.That(t, utils.RadToDeg(angleErr), test.ShouldBeLessThan, 2.)
	test.That(t, sequential.Transform.Translation().Sub(ds.GroundTruth.Translation()).Norm(), test.ShouldBeLessThan, 0.05)
	test.That(t, spatialmath.OrthonormalityError(sequential.Transform.Rotation()), test.ShouldBeLessThan, 1e-9)

	cfg := calibration.DefaultConfig()
	cfg.Parallel = true
	parallel, err := calibration.Calibrate(context.Background(), ds.Intrinsics, ds.TagSizeM, ds.Detections, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parallel.Matrix, test.ShouldResemble, sequential.Matrix)
	test.That(t, *parallel.ReprojRMSE, test.ShouldEqual, *sequential.ReprojRMSE)
}

func TestCalibrateReorderedCornersAreGated(t *testing.T) {
	cfg := synthetic.DefaultConfig()
	cfg.NoisePx = 0
	ds, err := synthetic.Generate(cfg)
	test.That(t, err, test.ShouldBeNil)

	// the target camera swaps two neighbouring corners for the first ten frames
	for i := range ds.Detections[:20] {
		det := &ds.Detections[i]
		if det.CameraID != cfg.TargetCamera {
			continue
		}
		det.Corners[0], det.Corners[1] = det.Corners[1], det.Corners[0]
	}

	res, err := calibration.Calibrate(context.Background(), ds.Intrinsics, ds.TagSizeM, ds.Detections,
		calibration.DefaultConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Candidates, test.ShouldEqual, 40)
	test.That(t, res.PairsUsed, test.ShouldEqual, 30)
	test.That(t, spatialmath.TransformAlmostEqual(res.Transform, ds.GroundTruth, 1e-4, 1e-4), test.ShouldBeTrue)
}
