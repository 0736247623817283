package synthetic

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"

	"go.viam.com/tagcal/utils"
)

func noiseFree() Config {
	cfg := DefaultConfig()
	cfg.NoisePx = 0
	cfg.PixelDecimals = -1
	return cfg
}

func TestGenerateLayout(t *testing.T) {
	cfg := DefaultConfig()
	ds, err := Generate(cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ds.Detections, test.ShouldHaveLength, 2*cfg.Frames)
	test.That(t, ds.TagSizeM, test.ShouldEqual, 0.12)
	test.That(t, ds.Intrinsics, test.ShouldContainKey, "cam1")
	test.That(t, ds.Intrinsics, test.ShouldContainKey, "cam2")

	for i, det := range ds.Detections {
		frame := int64(i / 2)
		test.That(t, det.TimestampNs, test.ShouldEqual, cfg.StartNs+frame*cfg.IntervalNs)
		test.That(t, det.TagID, test.ShouldEqual, 5)
		if i%2 == 0 {
			test.That(t, det.CameraID, test.ShouldEqual, "cam1")
		} else {
			test.That(t, det.CameraID, test.ShouldEqual, "cam2")
		}
		for _, c := range det.Corners {
			// rounded to three decimals and well inside a 1280x720 image
			test.That(t, c.X*1000, test.ShouldAlmostEqual, math.Round(c.X*1000), 1e-6)
			test.That(t, c.X, test.ShouldBeBetween, 0., 1280.)
			test.That(t, c.Y, test.ShouldBeBetween, 0., 720.)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	b, err := Generate(DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.Detections, test.ShouldResemble, b.Detections)

	cfg := DefaultConfig()
	cfg.Seed = 2
	c, err := Generate(cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Detections, test.ShouldNotResemble, a.Detections)
}

func TestGenerateMatchesHomogeneousChain(t *testing.T) {
	cfg := noiseFree()
	ds, err := Generate(cfg)
	test.That(t, err, test.ShouldBeNil)

	yawRad := utils.DegToRad(cfg.BaselineRPYDeg[2])
	targetFromRef := mgl64.Translate3D(cfg.BaselineXYZ[0], cfg.BaselineXYZ[1], cfg.BaselineXYZ[2]).
		Mul4(mgl64.HomogRotate3DZ(yawRad))

	gt := ds.GroundTruth
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, gt.Rotation().At(i, j), test.ShouldAlmostEqual, targetFromRef.At(i, j), 1e-12)
		}
	}

	k := cfg.TargetIntrinsics
	h := cfg.TagSizeM / 2
	corners := []mgl64.Vec4{{-h, -h, 0, 1}, {h, -h, 0, 1}, {h, h, 0, 1}, {-h, h, 0, 1}}
	for frame := 0; frame < cfg.Frames; frame += 13 {
		frac := float64(frame) / float64(cfg.Frames-1)
		depth := cfg.FarDepthM + frac*(cfg.NearDepthM-cfg.FarDepthM)
		yaw := utils.DegToRad(-cfg.YawSweepDeg + 2*cfg.YawSweepDeg*frac)
		refFromTag := mgl64.Translate3D(0, 0, depth).Mul4(mgl64.HomogRotate3DZ(yaw))
		targetFromTag := targetFromRef.Mul4(refFromTag)

		det := ds.Detections[2*frame+1]
		test.That(t, det.CameraID, test.ShouldEqual, "cam2")
		for c, corner := range corners {
			p := targetFromTag.Mul4x1(corner)
			test.That(t, p.Z(), test.ShouldBeGreaterThan, 0.)
			u := k.Fx*p.X()/p.Z() + k.Ppx
			v := k.Fy*p.Y()/p.Z() + k.Ppy
			test.That(t, det.Corners[c].X, test.ShouldAlmostEqual, u, 1e-9)
			test.That(t, det.Corners[c].Y, test.ShouldAlmostEqual, v, 1e-9)
		}
	}
}

func TestGenerateNoiseLevel(t *testing.T) {
	cfg := noiseFree()
	cfg.Frames = 200
	clean, err := Generate(cfg)
	test.That(t, err, test.ShouldBeNil)

	cfg.NoisePx = 0.7
	noisy, err := Generate(cfg)
	test.That(t, err, test.ShouldBeNil)

	var sumSq float64
	var n int
	for i := range noisy.Detections {
		for c := range noisy.Detections[i].Corners {
			d := noisy.Detections[i].Corners[c].Sub(clean.Detections[i].Corners[c])
			sumSq += d.X*d.X + d.Y*d.Y
			n += 2
		}
	}
	test.That(t, math.Sqrt(sumSq/float64(n)), test.ShouldAlmostEqual, 0.7, 0.05)
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Frames = 0
	cfg.TagSizeM = -1
	cfg.TargetCamera = "cam1"
	cfg.ReferenceIntrinsics.Fx = 0
	_, err := Generate(cfg)
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{"frame", "tag size", "distinct camera", "reference camera"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}

	cfg = DefaultConfig()
	cfg.NearDepthM = -0.5
	_, err = Generate(cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "in front of the camera")
}

func TestSingleFrame(t *testing.T) {
	cfg := noiseFree()
	cfg.Frames = 1
	ds, err := Generate(cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ds.Detections, test.ShouldHaveLength, 2)
}
