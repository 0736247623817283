// Package dataset reads and writes the files of a calibration run: camera intrinsics (cams.json),
// tag detections (detections.csv), the calibrated transform (results.json) and, for generated data,
// the ground truth (gt.json).
package dataset

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/tagcal/rimage/transform"
)

const tagSizeKey = "tag_size_m"

// CameraSet is the contents of cams.json: the intrinsics of every camera keyed by camera id, plus the
// side length of the tag in meters.
type CameraSet struct {
	Intrinsics map[string]*transform.PinholeCameraIntrinsics
	TagSizeM   float64
}

// MarshalJSON writes the cameras and the tag size as members of one object.
func (cs CameraSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(cs.Intrinsics)+1)
	for id, k := range cs.Intrinsics {
		out[id] = k
	}
	out[tagSizeKey] = cs.TagSizeM
	return json.Marshal(out)
}

// UnmarshalJSON reads every member other than tag_size_m as a camera. Every problem found is
// reported, combined.
func (cs *CameraSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "cams.json must hold a JSON object")
	}

	var errs error
	tagRaw, ok := raw[tagSizeKey]
	if !ok {
		errs = multierr.Append(errs, errors.Errorf("missing %q", tagSizeKey))
	} else if err := json.Unmarshal(tagRaw, &cs.TagSizeM); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "parsing %q", tagSizeKey))
	} else if !(cs.TagSizeM > 0) {
		errs = multierr.Append(errs, errors.Errorf("%q must be positive, got %v", tagSizeKey, cs.TagSizeM))
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		if id != tagSizeKey {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	cs.Intrinsics = make(map[string]*transform.PinholeCameraIntrinsics, len(ids))
	for _, id := range ids {
		k := &transform.PinholeCameraIntrinsics{}
		if err := json.Unmarshal(raw[id], k); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "parsing camera %q", id))
			continue
		}
		if err := k.CheckValid(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "camera %q", id))
			continue
		}
		cs.Intrinsics[id] = k
	}
	if len(ids) == 0 {
		errs = multierr.Append(errs, transform.NewNoIntrinsicsError("no cameras"))
	}
	return errs
}

// ReadCameraSet reads a cams.json file.
func ReadCameraSet(path string) (*CameraSet, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening camera file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return DecodeCameraSet(f)
}

// DecodeCameraSet reads cams.json contents from r.
func DecodeCameraSet(r io.Reader) (*CameraSet, error) {
	cs := &CameraSet{}
	if err := json.NewDecoder(r).Decode(cs); err != nil {
		return nil, errors.Wrap(err, "error parsing camera file")
	}
	return cs, nil
}

// WriteCameraSet writes a cams.json file.
func WriteCameraSet(path string, cs *CameraSet) error {
	return writeJSON(path, cs)
}

// writeJSON writes v indented to a new file at path.
func writeJSON(path string, v interface{}) (err error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	_, err = f.Write(append(b, '\n'))
	return err
}
