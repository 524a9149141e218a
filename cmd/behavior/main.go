// Package main is the behavior detection command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagConfig         = "config"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
	flagMetricsAddr    = "metrics-addr"
	flagModel          = "model"
	flagLabels         = "labels"
	flagLocalizerModel = "localizer-model"
	flagProvider       = "provider"
	flagMode           = "mode"
	flagNoSecondPass   = "no-second-pass"
	flagOutput         = "output"
	flagStride         = "stride"
	flagWorkers        = "workers"
	flagFramesDir      = "frames-dir"
	flagFPS            = "fps"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "behavior",
		Usage: "detect driver behaviors in images and videos",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "log format (text, json)",
			},
			&cli.StringFlag{
				Name:  flagMetricsAddr,
				Usage: "serve prometheus metrics on `ADDR`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "image",
				Usage:     "detect behaviors in a single image",
				ArgsUsage: "<image>",
				Flags: append(modelFlags(),
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write the annotated image to `FILE`",
					},
				),
				Action: imageAction,
			},
			{
				Name:      "video",
				Usage:     "detect behaviors over a video and report per-behavior statistics",
				ArgsUsage: "<video>",
				Flags: append(modelFlags(),
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write the annotated video to `FILE`",
					},
					&cli.IntFlag{
						Name:  flagStride,
						Usage: "detect every n-th frame",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "number of frames processed concurrently",
					},
					&cli.StringFlag{
						Name:  flagFramesDir,
						Usage: "read pre-extracted frames from `DIR` instead of a video file",
					},
					&cli.Float64Flag{
						Name:  flagFPS,
						Usage: "frame rate of --frames-dir",
						Value: 25,
					},
				),
				Action: videoAction,
			},
		},
	}
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagModel,
			Aliases: []string{"m"},
			Usage:   "path to the detection `MODEL` (.onnx)",
		},
		&cli.StringFlag{
			Name:  flagLabels,
			Usage: "label file of the detection model, one label per line",
		},
		&cli.StringFlag{
			Name:  flagLocalizerModel,
			Usage: "path to an optional person model used to locate the driver",
		},
		&cli.StringFlag{
			Name:  flagProvider,
			Usage: "execution provider (cpu, cuda, coreml, openvino)",
		},
		&cli.StringFlag{
			Name:  flagMode,
			Usage: "model mode (generic, specialized, auto)",
		},
		&cli.BoolFlag{
			Name:  flagNoSecondPass,
			Usage: "disable the crop-and-zoom refinement",
		},
	}
}
