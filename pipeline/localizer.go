package pipeline

import (
	"context"
	"image"

	"github.com/nvr-ai/go-behavior/common"
	"github.com/nvr-ai/go-behavior/inference"
	"github.com/nvr-ai/go-behavior/metrics"
	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
	"github.com/sirupsen/logrus"
)

// Localizer finds the driver regions of a frame.
type Localizer struct {
	// aux is the optional person detector used when the primary pass found
	// no driver.
	aux                 inference.Detector
	floor               float32
	syntheticConfidence float32
	logger              logrus.FieldLogger
	metrics             *metrics.Metrics
}

// NewLocalizer creates a localizer. aux may be nil.
func NewLocalizer(aux inference.Detector, floor, syntheticConfidence float32, logger logrus.FieldLogger, m *metrics.Metrics) *Localizer {
	return &Localizer{
		aux:                 aux,
		floor:               floor,
		syntheticConfidence: syntheticConfidence,
		logger:              logger,
		metrics:             m,
	}
}

// Locate returns the driver boxes of a frame.
//
// Driver detections of the primary pass are used when present. Otherwise the
// auxiliary person detector, if any, runs over the whole frame and every
// person it reports becomes both a driver box and a synthetic Driver
// detection for the frame's results. A failing auxiliary call is logged and
// yields no boxes.
//
// Arguments:
//   - ctx: The context for the auxiliary call.
//   - img: The full frame.
//   - firstPass: The canonical detections of the primary pass.
//
// Returns:
//   - []common.Box: The driver boxes in frame coordinates.
//   - []postprocess.Detection: Synthetic Driver detections to add to the frame.
func (l *Localizer) Locate(ctx context.Context, img image.Image, firstPass []postprocess.Detection) ([]common.Box, []postprocess.Detection) {
	var boxes []common.Box
	for _, d := range firstPass {
		if d.ClassName == models.ClassDriver {
			boxes = append(boxes, d.Box)
		}
	}
	if len(boxes) > 0 || l.aux == nil {
		return boxes, nil
	}

	done := l.metrics.StartStage(metrics.StageLocalization)
	out := inference.Run(ctx, l.aux, img, l.floor)
	done()

	if !out.OK() {
		l.logger.WithError(out.Err).WithField("stage", metrics.StageLocalization).Warn("driver localization failed")
		l.metrics.DetectorFailed(metrics.StageLocalization)
		return nil, nil
	}

	var synthetic []postprocess.Detection
	for _, raw := range out.Detections {
		if !models.IsPersonLabel(raw.Label) {
			continue
		}
		boxes = append(boxes, raw.Box)
		synthetic = append(synthetic, postprocess.NewDetection(raw.Box, l.syntheticConfidence, models.Driver))
	}
	return boxes, synthetic
}
