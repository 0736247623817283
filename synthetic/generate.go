// Package synthetic generates two-camera tag detections with a known extrinsic transform.
//
// The tag sits at the origin of the world frame, in its Z=0 plane. The reference camera looks at it
// from a depth that sweeps from FarDepthM to NearDepthM while yawing through ±YawSweepDeg, and the
// target camera is rigidly attached to it by the ground-truth transform. Corners are projected with
// each camera's intrinsics and perturbed with Gaussian pixel noise.
package synthetic

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/tagcal/calibration"
	"go.viam.com/tagcal/rimage/transform"
	"go.viam.com/tagcal/spatialmath"
	"go.viam.com/tagcal/utils"
)

// Config describes the generated sequence.
type Config struct {
	Frames  int     `json:"frames"`
	NoisePx float64 `json:"noise_px"`
	// PixelDecimals rounds every pixel coordinate to this many decimals. Negative keeps full precision.
	PixelDecimals int     `json:"pixel_decimals"`
	TagSizeM      float64 `json:"tag_size_m"`
	TagID         int     `json:"tag_id"`
	StartNs       int64   `json:"start_ns"`
	IntervalNs    int64   `json:"interval_ns"`
	FarDepthM     float64 `json:"far_depth_m"`
	NearDepthM    float64 `json:"near_depth_m"`
	YawSweepDeg   float64 `json:"yaw_sweep_deg"`
	// BaselineXYZ and BaselineRPYDeg define the ground-truth target_from_reference transform.
	BaselineXYZ    [3]float64 `json:"baseline_xyz_m"`
	BaselineRPYDeg [3]float64 `json:"baseline_rpy_deg"`
	Seed           uint64     `json:"seed"`

	ReferenceCamera     string                            `json:"reference_camera"`
	TargetCamera        string                            `json:"target_camera"`
	ReferenceIntrinsics transform.PinholeCameraIntrinsics `json:"reference_intrinsics"`
	TargetIntrinsics    transform.PinholeCameraIntrinsics `json:"target_intrinsics"`
}

// DefaultConfig is a 40 frame sequence with 0.7 px of noise and a rig whose target camera sits 10 cm
// along X of the reference camera, yawed by 3 degrees.
func DefaultConfig() Config {
	return Config{
		Frames:          40,
		NoisePx:         0.7,
		PixelDecimals:   3,
		TagSizeM:        0.12,
		TagID:           5,
		StartNs:         1710000000000,
		IntervalNs:      100,
		FarDepthM:       1.5,
		NearDepthM:      0.5,
		YawSweepDeg:     5,
		BaselineXYZ:     [3]float64{0.10, 0, 0},
		BaselineRPYDeg:  [3]float64{0, 0, 3},
		Seed:            1,
		ReferenceCamera: "cam1",
		TargetCamera:    "cam2",
		ReferenceIntrinsics: transform.PinholeCameraIntrinsics{
			Fx: 920, Fy: 918, Ppx: 640, Ppy: 360,
		},
		TargetIntrinsics: transform.PinholeCameraIntrinsics{
			Fx: 915, Fy: 917, Ppx: 640, Ppy: 360,
		},
	}
}

// CheckValid returns every problem with the config, combined.
func (cfg Config) CheckValid() error {
	var errs error
	if cfg.Frames < 1 {
		errs = multierr.Append(errs, errors.Errorf("need at least one frame, got %d", cfg.Frames))
	}
	if !(cfg.NoisePx >= 0) {
		errs = multierr.Append(errs, errors.Errorf("noise must be non-negative, got %v", cfg.NoisePx))
	}
	if !(cfg.TagSizeM > 0) {
		errs = multierr.Append(errs, errors.Errorf("tag size must be positive, got %v", cfg.TagSizeM))
	}
	if !(cfg.NearDepthM > 0 && cfg.FarDepthM > 0) {
		errs = multierr.Append(errs, errors.Errorf("depths must put the tag in front of the camera, got %v..%v",
			cfg.FarDepthM, cfg.NearDepthM))
	}
	if cfg.ReferenceCamera == "" || cfg.TargetCamera == "" || cfg.ReferenceCamera == cfg.TargetCamera {
		errs = multierr.Append(errs, errors.Errorf("need two distinct camera ids, got %q and %q",
			cfg.ReferenceCamera, cfg.TargetCamera))
	}
	if err := cfg.ReferenceIntrinsics.CheckValid(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "reference camera"))
	}
	if err := cfg.TargetIntrinsics.CheckValid(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "target camera"))
	}
	return errs
}

// GroundTruth returns the target_from_reference transform the config describes.
func (cfg Config) GroundTruth() *spatialmath.Transform {
	rpy := cfg.BaselineRPYDeg
	rot := rotationFromMgl(mgl64.Rotate3DZ(utils.DegToRad(rpy[2])).
		Mul3(mgl64.Rotate3DY(utils.DegToRad(rpy[1]))).
		Mul3(mgl64.Rotate3DX(utils.DegToRad(rpy[0]))))
	return spatialmath.NewTransform(rot, r3.Vector{X: cfg.BaselineXYZ[0], Y: cfg.BaselineXYZ[1], Z: cfg.BaselineXYZ[2]})
}

// Dataset is a generated sequence together with the inputs needed to calibrate it.
type Dataset struct {
	Intrinsics  map[string]*transform.PinholeCameraIntrinsics
	TagSizeM    float64
	Detections  []calibration.Detection
	GroundTruth *spatialmath.Transform
}

// Generate produces one detection per camera per frame, reference camera first. The same config
// always produces the same dataset.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid synthetic config")
	}
	refK := cfg.ReferenceIntrinsics
	targetK := cfg.TargetIntrinsics
	gt := cfg.GroundTruth()
	tag := calibration.TagCorners(cfg.TagSizeM)
	noise := distuv.Normal{Mu: 0, Sigma: cfg.NoisePx, Src: rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)}

	dets := make([]calibration.Detection, 0, 2*cfg.Frames)
	for i := 0; i < cfg.Frames; i++ {
		frac := 0.0
		if cfg.Frames > 1 {
			frac = float64(i) / float64(cfg.Frames-1)
		}
		depth := cfg.FarDepthM + frac*(cfg.NearDepthM-cfg.FarDepthM)
		yaw := utils.DegToRad(-cfg.YawSweepDeg + 2*cfg.YawSweepDeg*frac)

		refFromTag := spatialmath.NewTransform(rotationFromMgl(mgl64.Rotate3DZ(yaw)), r3.Vector{Z: depth})
		targetFromTag := spatialmath.Compose(gt, refFromTag)
		ts := cfg.StartNs + int64(i)*cfg.IntervalNs

		for _, cam := range []struct {
			id   string
			k    *transform.PinholeCameraIntrinsics
			pose *spatialmath.Transform
		}{
			{cfg.ReferenceCamera, &refK, refFromTag},
			{cfg.TargetCamera, &targetK, targetFromTag},
		} {
			pixels := cam.k.ProjectPlanePoints(cam.pose.Rotation(), cam.pose.Translation(), tag)
			det := calibration.Detection{TimestampNs: ts, CameraID: cam.id, TagID: cfg.TagID}
			for j, px := range pixels {
				det.Corners[j] = perturb(px, noise, cfg.NoisePx, cfg.PixelDecimals)
			}
			dets = append(dets, det)
		}
	}

	return &Dataset{
		Intrinsics: map[string]*transform.PinholeCameraIntrinsics{
			cfg.ReferenceCamera: &refK,
			cfg.TargetCamera:    &targetK,
		},
		TagSizeM:    cfg.TagSizeM,
		Detections:  dets,
		GroundTruth: gt,
	}, nil
}

func perturb(px r2.Point, noise distuv.Normal, sigma float64, decimals int) r2.Point {
	if sigma > 0 {
		px.X += noise.Rand()
		px.Y += noise.Rand()
	}
	if decimals >= 0 {
		scale := math.Pow(10, float64(decimals))
		px.X = math.Round(px.X*scale) / scale
		px.Y = math.Round(px.Y*scale) / scale
	}
	return px
}

// rotationFromMgl converts a mathgl rotation, which is stored column-major.
func rotationFromMgl(m mgl64.Mat3) *spatialmath.RotationMatrix {
	// the backing array of the transpose is m in row-major order
	rowMajor := m.Transpose()
	return spatialmath.NearestRotation(mat.NewDense(3, 3, rowMajor[:]))
}
