package calibration

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Config controls pairing, gating and per-frame estimation.
type Config struct {
	// RMSEThresholdPx is the largest per-frame reprojection RMSE, in pixels, a pair may have on
	// both sides to be used.
	RMSEThresholdPx float64 `json:"rmse_threshold_px" jsonschema:"minimum=0,exclusiveMinimum=true,default=5"`
	// ReferenceCamera is the camera the result maps from.
	ReferenceCamera string `json:"reference_camera" jsonschema:"default=cam1"`
	// TargetCamera is the camera the result maps into.
	TargetCamera string `json:"target_camera" jsonschema:"default=cam2"`
	// Parallel spreads per-frame estimation over the available cores.
	Parallel bool `json:"parallel,omitempty"`
	// NormalizeHomography conditions the DLT with Hartley normalization.
	NormalizeHomography bool `json:"normalize_homography,omitempty"`
}

// DefaultConfig returns the configuration used when nothing else is specified.
func DefaultConfig() Config {
	return Config{
		RMSEThresholdPx: 5.0,
		ReferenceCamera: "cam1",
		TargetCamera:    "cam2",
	}
}

// CheckValid returns every problem with the config, combined.
func (cfg Config) CheckValid() error {
	var errs error
	if !(cfg.RMSEThresholdPx > 0) || math.IsInf(cfg.RMSEThresholdPx, 1) {
		errs = multierr.Append(errs, errors.Errorf("rmse threshold must be a positive finite number of pixels, got %v", cfg.RMSEThresholdPx))
	}
	if cfg.ReferenceCamera == "" {
		errs = multierr.Append(errs, errors.New("reference camera id is required"))
	}
	if cfg.TargetCamera == "" {
		errs = multierr.Append(errs, errors.New("target camera id is required"))
	}
	if cfg.ReferenceCamera != "" && cfg.ReferenceCamera == cfg.TargetCamera {
		errs = multierr.Append(errs, errors.Errorf("reference and target camera are both %q", cfg.ReferenceCamera))
	}
	return errs
}
