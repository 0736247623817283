package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/tagcal/calibration"
	"go.viam.com/tagcal/dataset"
	"go.viam.com/tagcal/utils"
)

// SolveAction calibrates the target camera against the reference camera and writes results.json.
func SolveAction(c *cli.Context) (err error) {
	logger, closeLogger := newLogger(c, "tagcal")
	defer func() {
		err = multierr.Combine(err, closeLogger())
	}()

	cfg, err := solveConfig(c)
	if err != nil {
		return err
	}
	cams, err := dataset.ReadCameraSet(c.Path(solveFlagCams))
	if err != nil {
		return err
	}
	for _, id := range []string{cfg.ReferenceCamera, cfg.TargetCamera} {
		if _, ok := cams.Intrinsics[id]; !ok {
			return errors.Wrapf(calibration.ErrUnknownCamera, "%q is not in %s", id, c.Path(solveFlagCams))
		}
	}
	dets, err := dataset.ReadDetectionsFile(c.Path(solveFlagDetections))
	if err != nil {
		return err
	}
	logger.Debugw("loaded dataset", "cameras", len(cams.Intrinsics), "detections", len(dets), "tag_size_m", cams.TagSizeM)

	res, err := calibration.Calibrate(c.Context, cams.Intrinsics, cams.TagSizeM, dets, cfg, logger)
	if err != nil {
		return err
	}
	if err := dataset.WriteResult(c.Path(solveFlagOut), res); err != nil {
		return err
	}

	var gt *dataset.GroundTruth
	if path := c.Path(solveFlagGroundTruth); path != "" {
		if gt, err = dataset.ReadGroundTruth(path); err != nil {
			return err
		}
	}
	if err := printResult(c.App.Writer, cfg, res, gt); err != nil {
		return err
	}
	if res.PairsUsed == 0 {
		warningf(c.App.ErrWriter, "no frame pair had both RMSEs within %.3g px; the result is the identity", cfg.RMSEThresholdPx)
	}

	if path := c.Path(solveFlagPlot); path != "" {
		if err := plotResiduals(path, res, cfg.RMSEThresholdPx); err != nil {
			return errors.Wrap(err, "plotting residuals")
		}
		printf(c.App.Writer, "residual plot saved to %s", path)
	}
	printf(c.App.Writer, "result written to %s", c.Path(solveFlagOut))
	return nil
}

// solveConfig starts from the defaults, overlays --config and then any flag given explicitly.
func solveConfig(c *cli.Context) (calibration.Config, error) {
	cfg := calibration.DefaultConfig()
	if path := c.Path(generalFlagConfig); path != "" {
		if err := loadJSONFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if c.IsSet(solveFlagThreshold) {
		cfg.RMSEThresholdPx = c.Float64(solveFlagThreshold)
	}
	if c.IsSet(solveFlagRefCam) {
		cfg.ReferenceCamera = c.String(solveFlagRefCam)
	}
	if c.IsSet(solveFlagTargetCam) {
		cfg.TargetCamera = c.String(solveFlagTargetCam)
	}
	if c.IsSet(solveFlagParallel) {
		cfg.Parallel = c.Bool(solveFlagParallel)
	}
	if c.IsSet(solveFlagNormalize) {
		cfg.NormalizeHomography = c.Bool(solveFlagNormalize)
	}
	return cfg, cfg.CheckValid()
}

func printResult(w io.Writer, cfg calibration.Config, res *calibration.Result, gt *dataset.GroundTruth) error {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("T_%s_%s", cfg.TargetCamera, cfg.ReferenceCamera))
	t.AppendHeader(table.Row{"Quantity", "Value"})
	t.AppendRow(table.Row{"xyz (m)", formatVector(res.XYZ, 5)})
	t.AppendRow(table.Row{"rpy (deg)", formatVector(res.RPYDeg, 4)})
	t.AppendRow(table.Row{"pairs used", fmt.Sprintf("%d of %d", res.PairsUsed, res.Candidates)})

	if res.ReprojRMSE != nil {
		t.AppendRow(table.Row{"mean RMSE (px)", fmt.Sprintf("%.4f", *res.ReprojRMSE)})
		perFrame := make(stats.Float64Data, 0, 2*len(res.Pairs))
		for _, p := range res.Pairs {
			perFrame = append(perFrame, p.ReferenceRMSE, p.TargetRMSE)
		}
		median, err := perFrame.Median()
		if err != nil {
			return err
		}
		worst, err := perFrame.Max()
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{"median RMSE (px)", fmt.Sprintf("%.4f", median)})
		t.AppendRow(table.Row{"max RMSE (px)", fmt.Sprintf("%.4f", worst)})
	} else {
		t.AppendRow(table.Row{"mean RMSE (px)", "n/a"})
	}

	if gt != nil {
		rotErr := res.Transform.Rotation().Transpose().Mul(gt.Transform.Rotation()).AxisAngles()
		dist := res.Transform.Translation().Sub(gt.Transform.Translation()).Norm()
		t.AppendSeparator()
		t.AppendRow(table.Row{"ground truth xyz (m)", formatVector(gt.XYZ, 5)})
		t.AppendRow(table.Row{"ground truth rpy (deg)", formatVector(gt.RPYDeg, 4)})
		t.AppendRow(table.Row{"rotation error (deg)", fmt.Sprintf("%.4f", utils.RadToDeg(rotErr.Theta))})
		t.AppendRow(table.Row{"rotation error axis", formatVector([3]float64{rotErr.RX, rotErr.RY, rotErr.RZ}, 3)})
		t.AppendRow(table.Row{"translation error (m)", fmt.Sprintf("%.5f", dist)})
	}
	printf(w, "%s", t.Render())
	return nil
}
