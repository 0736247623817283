package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/tagcal/dataset"
	"go.viam.com/tagcal/synthetic"
)

// Names of the files in a dataset directory.
const (
	CamsFile        = "cams.json"
	DetectionsFile  = "detections.csv"
	GroundTruthFile = "gt.json"
)

// GenerateAction writes a synthetic dataset to the --out directory.
func GenerateAction(c *cli.Context) error {
	cfg := synthetic.DefaultConfig()
	if path := c.Path(generalFlagConfig); path != "" {
		if err := loadJSONFile(path, &cfg); err != nil {
			return err
		}
	}
	if c.IsSet(generateFlagFrames) {
		cfg.Frames = c.Int(generateFlagFrames)
	}
	if c.IsSet(generateFlagNoise) {
		cfg.NoisePx = c.Float64(generateFlagNoise)
	}
	if c.IsSet(generateFlagSeed) {
		cfg.Seed = c.Uint64(generateFlagSeed)
	}

	ds, err := synthetic.Generate(cfg)
	if err != nil {
		return err
	}

	dir := c.Path(generateFlagOut)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	cams := &dataset.CameraSet{Intrinsics: ds.Intrinsics, TagSizeM: ds.TagSizeM}
	if err := dataset.WriteCameraSet(filepath.Join(dir, CamsFile), cams); err != nil {
		return err
	}
	if err := dataset.WriteDetectionsFile(filepath.Join(dir, DetectionsFile), ds.Detections); err != nil {
		return err
	}
	gt := dataset.NewGroundTruth(ds.GroundTruth)
	if err := dataset.WriteGroundTruth(filepath.Join(dir, GroundTruthFile), gt); err != nil {
		return err
	}

	printf(c.App.Writer, "wrote %d detections over %d frames to %s", len(ds.Detections), cfg.Frames, dir)
	printf(c.App.Writer, "ground truth: xyz_m=%s rpy_deg=%s", formatVector(gt.XYZ, 4), formatVector(gt.RPYDeg, 3))
	return nil
}

// loadJSONFile overlays the JSON document at path onto v. Unknown keys are an error so that typos
// do not silently fall back to defaults.
func loadJSONFile(path string, v interface{}) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "error opening config file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(err, "error parsing config file %s", path)
	}
	return nil
}
