package dataset

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/tagcal/calibration"
	"go.viam.com/tagcal/spatialmath"
)

// GroundTruth is the contents of gt.json, the transform a generated dataset was built from.
type GroundTruth struct {
	Transform *spatialmath.Transform `json:"-"`
	Matrix    [4][4]float64          `json:"T_cam2_cam1_matrix"`
	RPYDeg    [3]float64             `json:"rpy_deg"`
	XYZ       [3]float64             `json:"xyz_m"`
}

// NewGroundTruth describes t in the gt.json layout.
func NewGroundTruth(t *spatialmath.Transform) *GroundTruth {
	trans := t.Translation()
	return &GroundTruth{
		Transform: t,
		Matrix:    t.RowMajor(),
		RPYDeg:    t.Rotation().EulerAngles().Degrees(),
		XYZ:       [3]float64{trans.X, trans.Y, trans.Z},
	}
}

// WriteGroundTruth writes a gt.json file.
func WriteGroundTruth(path string, gt *GroundTruth) error {
	return writeJSON(path, gt)
}

// ReadGroundTruth reads a gt.json file. The transform is rebuilt from the matrix.
func ReadGroundTruth(path string) (*GroundTruth, error) {
	gt := &GroundTruth{}
	if err := readJSON(path, gt); err != nil {
		return nil, err
	}
	t, err := transformFromRows(gt.Matrix)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	gt.Transform = t
	return gt, nil
}

// WriteResult writes a results.json file.
func WriteResult(path string, res *calibration.Result) error {
	return writeJSON(path, res)
}

// ReadResult reads a results.json file. The transform is rebuilt from the matrix; the per-pair
// residuals are not part of the file.
func ReadResult(path string) (*calibration.Result, error) {
	res := &calibration.Result{}
	if err := readJSON(path, res); err != nil {
		return nil, err
	}
	t, err := transformFromRows(res.Matrix)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	res.Transform = t
	return res, nil
}

func transformFromRows(rows [4][4]float64) (*spatialmath.Transform, error) {
	data := make([]float64, 0, 16)
	for _, row := range rows {
		data = append(data, row[:]...)
	}
	return spatialmath.NewTransformFromMatrix(mat.NewDense(4, 4, data))
}

func readJSON(path string, v interface{}) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.Wrapf(err, "error parsing JSON file %s", path)
	}
	return nil
}
