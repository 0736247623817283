package calibration

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/tagcal/logging"
	"go.viam.com/tagcal/rimage/transform"
	"go.viam.com/tagcal/utils"
)

var (
	// ErrUnknownCamera is returned when a detection names a camera without intrinsics.
	ErrUnknownCamera = errors.New("no intrinsics for camera")
	// ErrTooFewPoints is returned when a homography is requested from fewer than four correspondences.
	ErrTooFewPoints = transform.ErrTooFewPoints
)

// Estimator recovers per-frame tag poses for a fixed set of cameras and tag size.
type Estimator struct {
	intrinsics map[string]*transform.PinholeCameraIntrinsics
	tag        []r2.Point
	cfg        Config
	logger     logging.Logger
}

// NewEstimator validates the intrinsics of every camera and the tag size, and returns an estimator
// for them. The intrinsics map is copied.
func NewEstimator(
	intrinsics map[string]*transform.PinholeCameraIntrinsics,
	tagSizeM float64,
	cfg Config,
	logger logging.Logger,
) (*Estimator, error) {
	var errs error
	if len(intrinsics) == 0 {
		errs = multierr.Append(errs, transform.NewNoIntrinsicsError("no cameras given"))
	}
	owned := make(map[string]*transform.PinholeCameraIntrinsics, len(intrinsics))
	for id, k := range intrinsics {
		if err := k.CheckValid(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "camera %q", id))
			continue
		}
		kCopy := *k
		owned[id] = &kCopy
	}
	if !(tagSizeM > 0) || math.IsInf(tagSizeM, 1) {
		errs = multierr.Append(errs, errors.Errorf("tag size must be a positive finite length in meters, got %v", tagSizeM))
	}
	if errs != nil {
		return nil, errs
	}
	return &Estimator{
		intrinsics: owned,
		tag:        TagCorners(tagSizeM),
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// EstimateFramePose recovers the camera-from-tag pose of a single detection and its reprojection RMSE.
// A degenerate detection is not an error: its pose and RMSE come out non-finite or large.
func (e *Estimator) EstimateFramePose(det Detection) (FramePose, error) {
	k, ok := e.intrinsics[det.CameraID]
	if !ok {
		return FramePose{}, errors.Wrapf(ErrUnknownCamera, "%q", det.CameraID)
	}
	pixels := det.Corners[:]
	h, err := transform.EstimateHomography(e.tag, pixels, e.cfg.NormalizeHomography)
	if err != nil {
		return FramePose{}, err
	}
	camPose := transform.PoseFromHomography(h, k)
	rmse := reprojectionRMSE(k.ProjectPlanePoints(camPose.Rotation, camPose.Translation, e.tag), pixels)

	return FramePose{
		TimestampNs:   det.TimestampNs,
		CameraID:      det.CameraID,
		TagID:         det.TagID,
		CameraFromTag: camPose.Pose(),
		RMSE:          rmse,
	}, nil
}

// EstimateFramePoses estimates every detection, in order. All camera ids are checked before any work
// starts. With Config.Parallel the detections are spread over worker goroutines; the output is
// still in input order.
func (e *Estimator) EstimateFramePoses(ctx context.Context, dets []Detection) ([]FramePose, error) {
	for i, det := range dets {
		if _, ok := e.intrinsics[det.CameraID]; !ok {
			return nil, errors.Wrapf(ErrUnknownCamera, "%q in detection %d (ts_ns %d)", det.CameraID, i, det.TimestampNs)
		}
	}

	poses := make([]FramePose, len(dets))
	if !e.cfg.Parallel {
		for i, det := range dets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pose, err := e.EstimateFramePose(det)
			if err != nil {
				return nil, err
			}
			poses[i] = pose
		}
		return poses, nil
	}

	err := utils.GroupWorkParallel(ctx, len(dets), func(groupNum, groupSize, from, to int) utils.MemberWorkFunc {
		e.logger.Debugw("estimating frame poses", "group", groupNum, "from", from, "to", to)
		return func(memberNum, workNum int) error {
			pose, err := e.EstimateFramePose(dets[workNum])
			if err != nil {
				return err
			}
			poses[workNum] = pose
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return poses, nil
}

// reprojectionRMSE is sqrt(mean(|projected - observed|²)) over corresponding points.
func reprojectionRMSE(projected, observed []r2.Point) float64 {
	sq := make([]float64, len(projected))
	for i := range projected {
		d := projected[i].Sub(observed[i])
		sq[i] = utils.Square(d.X) + utils.Square(d.Y)
	}
	return math.Sqrt(floats.Sum(sq) / float64(len(sq)))
}
