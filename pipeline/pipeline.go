package pipeline

import (
	"context"
	"image"

	"github.com/nvr-ai/go-behavior/common"
	"github.com/nvr-ai/go-behavior/inference"
	"github.com/nvr-ai/go-behavior/metrics"
	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyFrame is returned for a nil or zero sized frame.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrPrimaryFailed matches the error returned when the full frame pass
	// fails.
	ErrPrimaryFailed = errors.New("primary inference failed")
)

// PrimaryError wraps the detector error of a failed full frame pass. It
// matches ErrPrimaryFailed with errors.Is.
type PrimaryError struct {
	Err error
}

func (e *PrimaryError) Error() string {
	return ErrPrimaryFailed.Error() + ": " + e.Err.Error()
}

// Unwrap returns the detector error.
func (e *PrimaryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPrimaryFailed.
func (e *PrimaryError) Is(target error) bool {
	return target == ErrPrimaryFailed
}

// ImageResult is the outcome of detecting a single image.
type ImageResult struct {
	Success    bool                    `json:"success"`
	Detections []postprocess.Detection `json:"detections"`
	Count      int                     `json:"count"`
	Error      string                  `json:"error,omitempty"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocalizationDetector sets the auxiliary person detector used when the
// primary pass finds no driver.
func WithLocalizationDetector(d inference.Detector) Option {
	return func(p *Pipeline) {
		p.aux = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics the pipeline records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline turns a frame into its final behavior detections.
//
// A Pipeline holds no per-frame state; Detect may be called concurrently when
// the detectors allow it.
type Pipeline struct {
	detector inference.Detector
	aux      inference.Detector
	config   Config
	mode     models.Mode
	mapper   *models.Mapper
	gate     *models.ThresholdGate

	localizer *Localizer
	proposer  *RegionProposer
	refiner   *Refiner

	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// New creates a pipeline over detector.
//
// The model mode is taken from config.Mode, or resolved once from the
// detector's vocabulary when it is "auto".
//
// Arguments:
//   - detector: The primary detector.
//   - config: The pipeline configuration.
//   - opts: Optional collaborators.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: If detector is nil or the configuration is invalid.
func New(detector inference.Detector, config Config, opts ...Option) (*Pipeline, error) {
	if detector == nil {
		return nil, errors.New("detector is required")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline config")
	}

	p := &Pipeline{
		detector: detector,
		config:   config,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	mode, explicit, _ := models.ParseMode(config.Mode)
	if !explicit {
		mode = models.ResolveMode(detector.Vocabulary())
	}
	p.mode = mode
	p.mapper = models.NewMapper(mode)
	p.gate = models.NewThresholdGate(config.Thresholds)

	p.localizer = NewLocalizer(p.aux, config.LocalizationFloor, config.SyntheticDriverConfidence, p.logger, p.metrics)
	p.proposer = NewRegionProposer(config.Margins)
	p.refiner = NewRefiner(detector, p.mapper, p.gate, config.SecondPassFloor(mode), p.logger, p.metrics)

	p.logger.WithFields(logrus.Fields{
		"mode":        mode,
		"second_pass": config.SecondPass,
		"localizer":   p.aux != nil,
	}).Info("detection pipeline ready")

	return p, nil
}

// Mode returns the resolved model mode.
func (p *Pipeline) Mode() models.Mode {
	return p.mode
}

// Mapper returns the class mapper of the resolved mode.
func (p *Pipeline) Mapper() *models.Mapper {
	return p.mapper
}

// Vocabulary returns the raw vocabulary of the primary detector.
func (p *Pipeline) Vocabulary() []string {
	return p.detector.Vocabulary()
}

// Detect runs the full refinement over a frame.
//
// The primary pass is mapped and gated, driver regions are located and
// expanded into crops, every crop is refined, and the union is clamped to the
// frame and deduplicated. A failing full frame pass fails the frame; failures
// of the localization or crop passes degrade that pass to no detections.
//
// Arguments:
//   - ctx: The context for detector calls.
//   - img: The frame.
//
// Returns:
//   - []postprocess.Detection: The final detections, highest confidence first.
//   - error: ErrEmptyFrame for an empty frame, a *PrimaryError when the full
//     frame pass fails, or the context error when ctx is done.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := p.metrics.StartStage(metrics.StageFrame)
	defer done()

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	floor := p.config.FirstPassFloor(p.mode)

	stop := p.metrics.StartStage(metrics.StagePrimary)
	primary := inference.Run(ctx, p.detector, img, floor)
	stop()

	if !primary.OK() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.logger.WithError(primary.Err).WithField("stage", metrics.StagePrimary).Warn("primary inference failed")
		p.metrics.DetectorFailed(metrics.StagePrimary)
		return nil, &PrimaryError{Err: primary.Err}
	}

	detections := p.canonicalize(primary.Detections, floor)

	if p.config.SecondPass {
		boxes, synthetic := p.localizer.Locate(ctx, img, detections)
		detections = append(detections, synthetic...)

		for _, box := range boxes {
			region, ok := p.proposer.Propose(box, width, height)
			if !ok {
				p.metrics.RegionSkipped()
				continue
			}
			detections = append(detections, p.refiner.Refine(ctx, img, region)...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detections = sanitize(detections, float32(width), float32(height))

	stop = p.metrics.StartStage(metrics.StageDedup)
	final := postprocess.Deduplicate(detections, p.config.NMS)
	stop()

	for class, n := range postprocess.CountByClass(final) {
		p.metrics.Detected(class, n)
	}
	return final, nil
}

// DetectImage runs Detect and reports the outcome as an ImageResult instead of
// an error.
func (p *Pipeline) DetectImage(ctx context.Context, img image.Image) ImageResult {
	detections, err := p.Detect(ctx, img)
	if err != nil {
		return ImageResult{Success: false, Detections: []postprocess.Detection{}, Error: err.Error()}
	}
	if detections == nil {
		detections = []postprocess.Detection{}
	}
	return ImageResult{Success: true, Detections: detections, Count: len(detections)}
}

// canonicalize maps raw detections and applies the class thresholds.
func (p *Pipeline) canonicalize(raw []common.BoundingBox, floor float32) []postprocess.Detection {
	var detections []postprocess.Detection
	for _, r := range raw {
		class, ok := p.mapper.Map(r.Label)
		if !ok {
			continue
		}
		if !p.gate.Accept(class.Name, r.Confidence, floor) {
			continue
		}
		detections = append(detections, postprocess.NewDetection(r.Box, r.Confidence, class))
	}
	return detections
}

// sanitize clamps boxes to the frame and drops detections that are
// degenerate or have an out of range confidence.
func sanitize(detections []postprocess.Detection, width, height float32) []postprocess.Detection {
	kept := make([]postprocess.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence < 0 || d.Confidence > 1 {
			continue
		}
		d.Box = d.Box.Clamp(width, height)
		if !d.Box.Valid() {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
