package calibration

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/tagcal/logging"
	"go.viam.com/tagcal/spatialmath"
)

// pairSlot holds the frames of both cameras that share one timestamp.
type pairSlot struct {
	reference *FramePose
	target    *FramePose
}

// Fuse pairs the reference and target camera frames by exact timestamp, keeps the pairs whose RMSE is
// within the threshold on both sides, and averages target_from_tag ∘ (reference_from_tag)⁻¹ over them.
// The result maps points from the reference camera frame into the target camera frame. Frames of
// other cameras are ignored. When no pair survives, the result is the identity with PairsUsed = 0 and
// no reprojection RMSE. Fuse only fails on an invalid config.
func Fuse(poses []FramePose, cfg Config, logger logging.Logger) (*Result, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid calibration config")
	}

	byCamera := lo.GroupBy(poses, func(p FramePose) string {
		return p.CameraID
	})
	slots := make(map[int64]*pairSlot)
	addFrames(slots, byCamera[cfg.ReferenceCamera], func(s *pairSlot) **FramePose { return &s.reference }, logger)
	addFrames(slots, byCamera[cfg.TargetCamera], func(s *pairSlot) **FramePose { return &s.target }, logger)

	timestamps := lo.Keys(slots)
	slices.Sort(timestamps)

	var (
		samples  []*spatialmath.Transform
		pairs    []PairResidual
		matched  int
		rejected int
	)
	for _, ts := range timestamps {
		slot := slots[ts]
		if slot.reference == nil || slot.target == nil {
			continue
		}
		matched++
		// NaN never compares as <=, so degenerate frames drop out here.
		if !(slot.reference.RMSE <= cfg.RMSEThresholdPx && slot.target.RMSE <= cfg.RMSEThresholdPx) {
			rejected++
			continue
		}
		relative := spatialmath.Compose(slot.target.CameraFromTag, slot.reference.CameraFromTag.Inverse())
		samples = append(samples, relative)
		pairs = append(pairs, PairResidual{
			TimestampNs:   ts,
			ReferenceRMSE: slot.reference.RMSE,
			TargetRMSE:    slot.target.RMSE,
		})
	}
	logger.Debugw("paired frames",
		"matched", matched,
		"accepted", len(samples),
		"rejected", rejected,
		"threshold_px", cfg.RMSEThresholdPx)

	if len(samples) == 0 {
		logger.Infow("no frame pair passed the reprojection gate, returning the identity transform",
			"reference", cfg.ReferenceCamera, "target", cfg.TargetCamera, "matched", matched)
		return newResult(spatialmath.NewIdentityTransform(), nil, nil, matched), nil
	}

	var rmseSum float64
	for _, p := range pairs {
		rmseSum += p.ReferenceRMSE + p.TargetRMSE
	}
	rmse := rmseSum / float64(2*len(pairs))
	return newResult(spatialmath.AverageTransforms(samples), &rmse, pairs, matched), nil
}

// addFrames places each frame into the slot of its timestamp on the side chosen by side. A second
// frame for an already filled (camera, timestamp) is dropped with a warning.
func addFrames(slots map[int64]*pairSlot, frames []FramePose, side func(*pairSlot) **FramePose, logger logging.Logger) {
	for i := range frames {
		frame := &frames[i]
		slot, ok := slots[frame.TimestampNs]
		if !ok {
			slot = &pairSlot{}
			slots[frame.TimestampNs] = slot
		}
		dst := side(slot)
		if *dst != nil {
			logger.Warnw("duplicate frame for camera and timestamp, keeping the first",
				"camera", frame.CameraID, "ts_ns", frame.TimestampNs)
			continue
		}
		*dst = frame
	}
}
