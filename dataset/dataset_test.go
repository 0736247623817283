package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/tagcal/calibration"
	"go.viam.com/tagcal/rimage/transform"
	"go.viam.com/tagcal/spatialmath"
)

func TestCameraSetRoundTrip(t *testing.T) {
	cs := &CameraSet{
		Intrinsics: map[string]*transform.PinholeCameraIntrinsics{
			"cam1": {Fx: 920, Fy: 918, Ppx: 640, Ppy: 360},
			"cam2": {Fx: 915, Fy: 917, Ppx: 640.5, Ppy: 359.5},
		},
		TagSizeM: 0.12,
	}
	path := filepath.Join(t.TempDir(), "cams.json")
	test.That(t, WriteCameraSet(path, cs), test.ShouldBeNil)

	got, err := ReadCameraSet(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, cs)

	raw, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	var doc map[string]interface{}
	test.That(t, json.Unmarshal(raw, &doc), test.ShouldBeNil)
	test.That(t, doc["tag_size_m"], test.ShouldEqual, 0.12)
	test.That(t, doc["cam2"].(map[string]interface{})["cx"], test.ShouldEqual, 640.5)
}

func TestCameraSetErrors(t *testing.T) {
	_, err := DecodeCameraSet(strings.NewReader(`[1, 2]`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = DecodeCameraSet(strings.NewReader(`{"cam1": {"fx": 900, "fy": 900, "cx": 320, "cy": 240}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `missing "tag_size_m"`)

	_, err = DecodeCameraSet(strings.NewReader(`{"tag_size_m": 0.1}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no cameras")

	// every problem is reported at once
	_, err = DecodeCameraSet(strings.NewReader(
		`{"tag_size_m": -1, "cam1": {"fx": 0, "fy": 900, "cx": 320, "cy": 240}, "cam2": "nope"}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, `camera "cam1"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `parsing camera "cam2"`)

	_, err = ReadCameraSet(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error opening camera file")
}

func testDetections() []calibration.Detection {
	return []calibration.Detection{
		{
			TimestampNs: 1710000000000, CameraID: "cam1", TagID: 5,
			Corners: [4]r2.Point{{X: 580.125, Y: 300}, {X: 700, Y: 300.5}, {X: 700.001, Y: 420}, {X: 580, Y: 419.75}},
		},
		{
			TimestampNs: 1710000000000, CameraID: "cam2", TagID: 5,
			Corners: [4]r2.Point{{X: 1.0 / 3, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: -8}},
		},
	}
}

func TestDetectionsRoundTrip(t *testing.T) {
	dets := testDetections()
	path := filepath.Join(t.TempDir(), "detections.csv")
	test.That(t, WriteDetectionsFile(path, dets), test.ShouldBeNil)

	raw, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 3)
	test.That(t, lines[0], test.ShouldEqual, "ts_ns,cam_id,tag_id,u0,v0,u1,v1,u2,v2,u3,v3")
	test.That(t, lines[1], test.ShouldEqual, "1710000000000,cam1,5,580.125,300,700,300.5,700.001,420,580,419.75")

	got, err := ReadDetectionsFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, dets)
}

func TestReadDetectionsWithoutHeader(t *testing.T) {
	got, err := ReadDetections(strings.NewReader("10,cam1,0,1,2,3,4,5,6,7,8\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldHaveLength, 1)
	test.That(t, got[0].Corners[3], test.ShouldResemble, r2.Point{X: 7, Y: 8})

	got, err = ReadDetections(strings.NewReader(strings.Join(DetectionsHeader, ",") + "\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldBeEmpty)
}

func TestReadDetectionsErrors(t *testing.T) {
	header := strings.Join(DetectionsHeader, ",") + "\n"
	for _, tc := range []struct {
		name string
		body string
		msg  string
	}{
		{"short row", header + "10,cam1,0,1,2,3,4,5,6,7,8\n11,cam1,0,1,2\n", "line 3"},
		{"bad timestamp", header + "soon,cam1,0,1,2,3,4,5,6,7,8\n", "line 2: ts_ns"},
		{"bad tag", header + "10,cam1,x,1,2,3,4,5,6,7,8\n", "line 2: tag_id"},
		{"bad corner", header + "10,cam1,0,1,2,3,4,5,six,7,8\n", "line 2: v2"},
		{"empty camera", header + "10,,0,1,2,3,4,5,6,7,8\n", "line 2: empty cam_id"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadDetections(strings.NewReader(tc.body))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestWriteDetectionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, WriteDetections(&buf, nil), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, strings.Join(DetectionsHeader, ",")+"\n")
}

func TestResultRoundTrip(t *testing.T) {
	tf := spatialmath.NewTransform(
		(&spatialmath.EulerAngles{Roll: 0.01, Pitch: -0.02, Yaw: 0.0523598775598299}).RotationMatrix(),
		r3.Vector{X: 0.1, Y: -0.003, Z: 0.002},
	)
	rmse := 0.83
	res := &calibration.Result{
		Transform:  tf,
		Matrix:     tf.RowMajor(),
		RPYDeg:     tf.Rotation().EulerAngles().Degrees(),
		XYZ:        [3]float64{0.1, -0.003, 0.002},
		ReprojRMSE: &rmse,
		PairsUsed:  38,
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	test.That(t, WriteResult(path, res), test.ShouldBeNil)

	got, err := ReadResult(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Matrix, test.ShouldResemble, res.Matrix)
	test.That(t, got.RPYDeg, test.ShouldResemble, res.RPYDeg)
	test.That(t, got.XYZ, test.ShouldResemble, res.XYZ)
	test.That(t, *got.ReprojRMSE, test.ShouldEqual, rmse)
	test.That(t, got.PairsUsed, test.ShouldEqual, 38)
	test.That(t, spatialmath.TransformAlmostEqual(got.Transform, tf, 1e-12, 1e-15), test.ShouldBeTrue)

	// no accepted pair is written as null
	empty := &calibration.Result{Transform: spatialmath.NewIdentityTransform(), Matrix: spatialmath.NewIdentityTransform().RowMajor()}
	test.That(t, WriteResult(path, empty), test.ShouldBeNil)
	raw, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(raw), test.ShouldContainSubstring, `"reproj_rmse_px": null`)
	got, err = ReadResult(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.ReprojRMSE, test.ShouldBeNil)
	test.That(t, got.PairsUsed, test.ShouldEqual, 0)
}

func TestGroundTruthRoundTrip(t *testing.T) {
	tf := spatialmath.NewTransform(
		(&spatialmath.EulerAngles{Yaw: 0.0523598775598299}).RotationMatrix(),
		r3.Vector{X: 0.1},
	)
	path := filepath.Join(t.TempDir(), "gt.json")
	test.That(t, WriteGroundTruth(path, NewGroundTruth(tf)), test.ShouldBeNil)

	gt, err := ReadGroundTruth(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gt.XYZ, test.ShouldResemble, [3]float64{0.1, 0, 0})
	test.That(t, gt.RPYDeg[2], test.ShouldAlmostEqual, 3, 1e-12)
	test.That(t, spatialmath.TransformAlmostEqual(gt.Transform, tf, 1e-12, 1e-15), test.ShouldBeTrue)

	// a matrix that is not a rigid transform is rejected
	test.That(t, os.WriteFile(path, []byte(`{"T_cam2_cam1_matrix": [[2,0,0,0],[0,1,0,0],[0,0,1,0],[0,0,0,1]]}`), 0o600),
		test.ShouldBeNil)
	_, err = ReadGroundTruth(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid rotation block")
}
