package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/tagcal/calibration"
)

// DetectionsHeader is the header row of detections.csv.
var DetectionsHeader = []string{"ts_ns", "cam_id", "tag_id", "u0", "v0", "u1", "v1", "u2", "v2", "u3", "v3"}

// ReadDetectionsFile reads a detections.csv file.
func ReadDetectionsFile(path string) ([]calibration.Detection, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening detections file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadDetections(f)
}

// ReadDetections parses detection rows. A header row, if present, must be the first line. Errors
// name the offending line.
func ReadDetections(r io.Reader) ([]calibration.Detection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(DetectionsHeader)
	reader.TrimLeadingSpace = true

	var dets []calibration.Detection
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return dets, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading detections")
		}
		line, _ := reader.FieldPos(0)
		if line == 1 && record[0] == DetectionsHeader[0] {
			continue
		}
		det, err := parseDetection(record)
		if err != nil {
			return nil, errors.Wrapf(err, "detections line %d", line)
		}
		dets = append(dets, det)
	}
}

func parseDetection(record []string) (calibration.Detection, error) {
	var det calibration.Detection
	var err error
	if det.TimestampNs, err = strconv.ParseInt(record[0], 10, 64); err != nil {
		return det, errors.Wrap(err, "ts_ns")
	}
	det.CameraID = record[1]
	if det.CameraID == "" {
		return det, errors.New("empty cam_id")
	}
	if det.TagID, err = strconv.Atoi(record[2]); err != nil {
		return det, errors.Wrap(err, "tag_id")
	}
	for i := range det.Corners {
		if det.Corners[i].X, err = strconv.ParseFloat(record[3+2*i], 64); err != nil {
			return det, errors.Wrap(err, DetectionsHeader[3+2*i])
		}
		if det.Corners[i].Y, err = strconv.ParseFloat(record[4+2*i], 64); err != nil {
			return det, errors.Wrap(err, DetectionsHeader[4+2*i])
		}
	}
	return det, nil
}

// WriteDetectionsFile writes a detections.csv file, header included.
func WriteDetectionsFile(path string, dets []calibration.Detection) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteDetections(f, dets)
}

// WriteDetections writes the header and one row per detection. Pixel coordinates are written with
// the fewest digits that read back to the same value.
func WriteDetections(w io.Writer, dets []calibration.Detection) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(DetectionsHeader); err != nil {
		return err
	}
	record := make([]string, len(DetectionsHeader))
	for _, det := range dets {
		record[0] = strconv.FormatInt(det.TimestampNs, 10)
		record[1] = det.CameraID
		record[2] = strconv.Itoa(det.TagID)
		for i, c := range det.Corners {
			record[3+2*i] = strconv.FormatFloat(c.X, 'f', -1, 64)
			record[4+2*i] = strconv.FormatFloat(c.Y, 'f', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
