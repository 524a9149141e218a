package pipeline

import (
	"context"
	"image"

	"github.com/nvr-ai/go-behavior/images"
	"github.com/nvr-ai/go-behavior/inference"
	"github.com/nvr-ai/go-behavior/metrics"
	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
	"github.com/sirupsen/logrus"
)

// Refiner re-runs the detector over crop regions of a frame.
type Refiner struct {
	detector inference.Detector
	mapper   *models.Mapper
	gate     *models.ThresholdGate
	floor    float32
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// NewRefiner creates a refiner running detector at floor.
func NewRefiner(
	detector inference.Detector,
	mapper *models.Mapper,
	gate *models.ThresholdGate,
	floor float32,
	logger logrus.FieldLogger,
	m *metrics.Metrics,
) *Refiner {
	return &Refiner{
		detector: detector,
		mapper:   mapper,
		gate:     gate,
		floor:    floor,
		logger:   logger,
		metrics:  m,
	}
}

// Refine detects objects inside region and returns them canonicalized,
// gated and in frame coordinates. A failing crop yields no detections.
//
// Arguments:
//   - ctx: The context for the detector call.
//   - img: The full frame.
//   - region: A non-empty region of the frame.
//
// Returns:
//   - []postprocess.Detection: The accepted detections.
func (r *Refiner) Refine(ctx context.Context, img image.Image, region images.Rect) []postprocess.Detection {
	log := r.logger.WithFields(logrus.Fields{
		"stage":  metrics.StageRefinement,
		"region": region,
	})

	crop, err := images.Crop(img, region)
	if err != nil {
		log.WithError(err).Warn("failed to crop region")
		return nil
	}

	done := r.metrics.StartStage(metrics.StageRefinement)
	out := inference.Run(ctx, r.detector, crop, r.floor)
	done()

	if !out.OK() {
		log.WithError(out.Err).Warn("second pass inference failed")
		r.metrics.DetectorFailed(metrics.StageRefinement)
		return nil
	}

	dx, dy := float32(region.X1), float32(region.Y1)

	var detections []postprocess.Detection
	for _, raw := range out.Detections {
		class, ok := r.mapper.Map(raw.Label)
		if !ok {
			continue
		}
		if !r.gate.Accept(class.Name, raw.Confidence, r.floor) {
			continue
		}
		detections = append(detections, postprocess.NewDetection(raw.Translate(dx, dy), raw.Confidence, class))
	}
	return detections
}
