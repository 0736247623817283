package cli

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/tagcal/calibration"
)

// plotResiduals draws the reprojection RMSE of both frames of every accepted pair against the pair
// index, with the gate threshold as a horizontal line. The format follows the file extension.
func plotResiduals(path string, res *calibration.Result, threshold float64) error {
	if len(res.Pairs) == 0 {
		return errors.New("no accepted pairs to plot")
	}

	p := plot.New()
	p.Title.Text = "Per-frame reprojection RMSE of accepted pairs"
	p.X.Label.Text = "Pair"
	p.Y.Label.Text = "RMSE (px)"
	p.Y.Min = 0

	refPts := make(plotter.XYs, 0, len(res.Pairs))
	targetPts := make(plotter.XYs, 0, len(res.Pairs))
	for i, pair := range res.Pairs {
		refPts = append(refPts, plotter.XY{X: float64(i), Y: pair.ReferenceRMSE})
		targetPts = append(targetPts, plotter.XY{X: float64(i), Y: pair.TargetRMSE})
	}

	refScatter, err := plotter.NewScatter(refPts)
	if err != nil {
		return err
	}
	refScatter.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	refScatter.Radius = vg.Points(2.5)

	targetScatter, err := plotter.NewScatter(targetPts)
	if err != nil {
		return err
	}
	targetScatter.Color = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	targetScatter.Radius = vg.Points(2.5)

	gate, err := plotter.NewLine(plotter.XYs{{X: 0, Y: threshold}, {X: float64(len(res.Pairs) - 1), Y: threshold}})
	if err != nil {
		return err
	}
	gate.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	gate.Width = vg.Points(1)
	gate.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), refScatter, targetScatter, gate)
	p.Legend.Add("reference", refScatter)
	p.Legend.Add("target", targetScatter)
	p.Legend.Add("threshold", gate)
	p.Legend.Top = true

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}
