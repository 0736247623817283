// Package cli contains the tagcal command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags shared by several commands.
const (
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"
	generalFlagConfig  = "config"

	generateFlagOut    = "out"
	generateFlagFrames = "frames"
	generateFlagNoise  = "noise"
	generateFlagSeed   = "seed"

	solveFlagCams        = "cams"
	solveFlagDetections  = "detections"
	solveFlagOut         = "out"
	solveFlagThreshold   = "threshold"
	solveFlagRefCam      = "ref-cam"
	solveFlagTargetCam   = "target-cam"
	solveFlagParallel    = "parallel"
	solveFlagNormalize   = "normalize"
	solveFlagPlot        = "plot"
	solveFlagGroundTruth = "gt"

	schemaFlagType = "type"
)

var app = &cli.App{
	Name:            "tagcal",
	Usage:           "calibrate the extrinsics between two cameras from a shared planar tag",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.PathFlag{
			Name:  generalFlagLogFile,
			Usage: "also write logs to `FILE`, rotated as it grows",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "generate",
			Usage:     "write a synthetic dataset with a known camera-to-camera transform",
			UsageText: "tagcal generate --out <dir> [other options]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     generateFlagOut,
					Required: true,
					Usage:    "directory to write cams.json, detections.csv and gt.json to",
				},
				&cli.PathFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "load generator configuration from `FILE`",
				},
				&cli.IntFlag{
					Name:  generateFlagFrames,
					Usage: "number of frames",
				},
				&cli.Float64Flag{
					Name:  generateFlagNoise,
					Usage: "standard deviation of the pixel noise",
				},
				&cli.Uint64Flag{
					Name:  generateFlagSeed,
					Usage: "noise seed",
				},
			},
			Action: GenerateAction,
		},
		{
			Name:      "solve",
			Usage:     "estimate the transform from the reference camera to the target camera",
			UsageText: "tagcal solve --cams <cams.json> --detections <detections.csv> [other options]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     solveFlagCams,
					Required: true,
					Usage:    "camera intrinsics and tag size",
				},
				&cli.PathFlag{
					Name:     solveFlagDetections,
					Required: true,
					Usage:    "tag corner detections",
				},
				&cli.PathFlag{
					Name:  solveFlagOut,
					Value: "results.json",
					Usage: "where to write the result",
				},
				&cli.PathFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "load calibration configuration from `FILE`; flags override it",
				},
				&cli.Float64Flag{
					Name:  solveFlagThreshold,
					Usage: "largest per-frame reprojection RMSE in pixels a pair may have",
				},
				&cli.StringFlag{
					Name:  solveFlagRefCam,
					Usage: "reference camera id",
				},
				&cli.StringFlag{
					Name:  solveFlagTargetCam,
					Usage: "target camera id",
				},
				&cli.BoolFlag{
					Name:  solveFlagParallel,
					Usage: "estimate frame poses in parallel",
				},
				&cli.BoolFlag{
					Name:  solveFlagNormalize,
					Usage: "normalize points before estimating homographies",
				},
				&cli.PathFlag{
					Name:  solveFlagPlot,
					Usage: "save a plot of the per-pair reprojection RMSE to `FILE` (.png, .svg or .pdf)",
				},
				&cli.PathFlag{
					Name:  solveFlagGroundTruth,
					Usage: "compare the result against a gt.json `FILE`",
				},
			},
			Action: SolveAction,
		},
		{
			Name:  "schema",
			Usage: "print the JSON schema of a file tagcal reads or writes",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  schemaFlagType,
					Value: schemaConfig,
					Usage: "one of " + schemaConfig + ", " + schemaGenerator + ", " + schemaResult,
				},
			},
			Action: SchemaAction,
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
