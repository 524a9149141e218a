// Package aggregator - Frame sampling and behavior statistics over a video.
package aggregator

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-behavior/metrics"
	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
	"github.com/nvr-ai/go-behavior/video"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrNoSource is returned by Run when no source is given.
var ErrNoSource = errors.New("no video source")

// State is the lifecycle state of a run.
type State int

const (
	// StateOpening is the state before the first frame is read.
	StateOpening State = iota
	// StateStreaming is the state while frames are read and processed.
	StateStreaming
	// StateDraining is the state while the sink is flushed.
	StateDraining
	// StateClosed is the final state of a successful run.
	StateClosed
	// StateFailed is the final state of an aborted run.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FrameDetector produces the final detections of a frame.
type FrameDetector interface {
	Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error)
}

// FrameAnnotator draws detections onto a copy of a frame.
type FrameAnnotator interface {
	Annotate(img image.Image, detections []postprocess.Detection) (image.Image, error)
}

// Config holds the aggregation parameters.
type Config struct {
	// SamplingStride sends every n-th frame through detection.
	SamplingStride int `json:"sampling_stride" yaml:"sampling_stride"`
	// Workers is the number of frames processed concurrently. 1 processes
	// frames sequentially.
	Workers int `json:"workers" yaml:"workers"`
	// QueueSize bounds the frames buffered between reading and processing.
	QueueSize int `json:"queue_size" yaml:"queue_size"`
	// ProgressInterval is the number of frames between progress logs.
	ProgressInterval int `json:"progress_interval" yaml:"progress_interval"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() Config {
	return Config{
		SamplingStride:   2,
		Workers:          1,
		QueueSize:        8,
		ProgressInterval: 100,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.SamplingStride <= 0 {
		c.SamplingStride = 2
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 8
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 100
	}
	return nil
}

// VideoInfo describes the processed video.
type VideoInfo struct {
	video.Info
	// ProcessedFrameCount is the number of sampled frames.
	ProcessedFrameCount int `json:"processed_frame_count"`
	// Duration is FrameCount / FPS in seconds.
	Duration float64 `json:"duration"`
}

// FrameLog is the detection log entry of a sampled frame with detections.
type FrameLog struct {
	FrameIndex int                     `json:"frame_index"`
	Timestamp  float64                 `json:"timestamp"`
	Detections []postprocess.Detection `json:"detections"`
}

// VideoResult is the outcome of a run.
type VideoResult struct {
	Success      bool       `json:"success"`
	RunID        string     `json:"run_id"`
	VideoInfo    VideoInfo  `json:"video_info"`
	Statistics   Statistics `json:"statistics"`
	DetectionLog []FrameLog `json:"detection_log"`
	Error        string     `json:"error,omitempty"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithAnnotator draws detections on sampled frames before they are written.
func WithAnnotator(a FrameAnnotator) Option {
	return func(agg *Aggregator) {
		agg.annotator = a
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(agg *Aggregator) {
		agg.logger = logger
	}
}

// WithMetrics sets the metrics the aggregator records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(agg *Aggregator) {
		agg.metrics = m
	}
}

// WithStateHook calls fn on every state transition of every run.
func WithStateHook(fn func(State)) Option {
	return func(agg *Aggregator) {
		agg.onState = fn
	}
}

// Aggregator drives a FrameDetector over videos. Every Run keeps its own
// state, so one Aggregator can serve repeated or concurrent runs.
type Aggregator struct {
	detector  FrameDetector
	known     []models.Class
	annotator FrameAnnotator
	config    Config
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	onState   func(State)
}

// New creates an aggregator.
//
// Arguments:
//   - detector: The per-frame pipeline.
//   - known: The classes the model can produce, pre-registered in the
//     statistics of every run.
//   - config: The aggregation parameters.
//   - opts: Optional collaborators.
//
// Returns:
//   - *Aggregator: The aggregator.
func New(detector FrameDetector, known []models.Class, config Config, opts ...Option) *Aggregator {
	_ = config.Validate()

	a := &Aggregator{
		detector: detector,
		known:    known,
		config:   config,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// run is the state of a single Run.
type run struct {
	id     string
	info   video.Info
	state  State
	acc    *accumulator
	log    []FrameLog
	sink   video.Sink
	logger logrus.FieldLogger

	processed int
	consumed  int
}

// frameResult is a processed frame waiting to be consumed in order.
type frameResult struct {
	frame      video.Frame
	sampled    bool
	detections []postprocess.Detection
}

// Run streams src through the detector and writes every frame to sink.
//
// Frames whose index is a multiple of the sampling stride are detected;
// sampled frames with detections are annotated (when an annotator is set)
// before being written. sink may be nil. Both src and sink are closed when Run
// returns, whether it succeeds or fails.
//
// Arguments:
//   - ctx: The context; cancelling it fails the run.
//   - src: The opened frame source.
//   - sink: The optional frame sink.
//
// Returns:
//   - *VideoResult: The statistics and detection log. On failure the result
//     holds what was gathered before the failure with Success false.
//   - error: The failure, combined with any close errors.
func (a *Aggregator) Run(ctx context.Context, src video.Source, sink video.Sink) (*VideoResult, error) {
	r := &run{
		id:    uuid.NewString(),
		state: StateOpening,
		acc:   newAccumulator(a.known),
		sink:  sink,
	}
	r.logger = a.logger.WithField("run_id", r.id)
	a.transition(r, StateOpening)

	if src == nil {
		a.transition(r, StateFailed)
		var err error = ErrNoSource
		if sink != nil {
			err = multierr.Append(err, sink.Close())
		}
		return a.result(r, err), err
	}

	r.info = src.Info()
	r.logger.WithFields(logrus.Fields{
		"width":       r.info.Width,
		"height":      r.info.Height,
		"fps":         r.info.FPS,
		"frame_count": r.info.FrameCount,
		"stride":      a.config.SamplingStride,
		"workers":     a.config.Workers,
	}).Info("processing video")

	a.transition(r, StateStreaming)

	var err error
	if a.config.Workers <= 1 {
		err = a.streamSequential(ctx, r, src)
	} else {
		err = a.streamParallel(ctx, r, src)
	}

	if err != nil {
		a.transition(r, StateFailed)
		err = multierr.Combine(err, closeSink(sink), errors.Wrap(src.Close(), "failed to close source"))
		r.logger.WithError(err).Error("video processing failed")
		return a.result(r, err), err
	}

	a.transition(r, StateDraining)
	if err := closeSink(sink); err != nil {
		a.transition(r, StateFailed)
		err = multierr.Append(err, errors.Wrap(src.Close(), "failed to close source"))
		return a.result(r, err), err
	}

	if err := src.Close(); err != nil {
		a.transition(r, StateFailed)
		err = errors.Wrap(err, "failed to close source")
		return a.result(r, err), err
	}
	a.transition(r, StateClosed)

	res := a.result(r, nil)
	r.logger.WithFields(logrus.Fields{
		"frames":     r.consumed,
		"processed":  r.processed,
		"detections": res.Statistics.TotalDetections,
	}).Info("video processing complete")
	return res, nil
}

func (a *Aggregator) streamSequential(ctx context.Context, r *run, src video.Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, ok, err := src.Read()
		if err != nil {
			return errors.Wrapf(err, "failed to read frame %d", r.consumed)
		}
		if !ok {
			return nil
		}
		frame.Index = r.consumed
		a.metrics.FrameRead()

		res, err := a.process(ctx, r, frame)
		if err != nil {
			return err
		}
		if err := a.consume(r, res); err != nil {
			return err
		}
	}
}

// streamParallel reads frames on one goroutine, processes them on a pool of
// workers and consumes the results in frame order on the calling goroutine.
// At most QueueSize+Workers frames are in flight.
func (a *Aggregator) streamParallel(ctx context.Context, r *run, src video.Source) error {
	g, gctx := errgroup.WithContext(ctx)

	window := make(chan struct{}, a.config.QueueSize+a.config.Workers)
	jobs := make(chan video.Frame, a.config.QueueSize)
	results := make(chan frameResult, a.config.QueueSize)

	g.Go(func() error {
		defer close(jobs)
		for index := 0; ; index++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			frame, ok, err := src.Read()
			if err != nil {
				return errors.Wrapf(err, "failed to read frame %d", index)
			}
			if !ok {
				return nil
			}
			frame.Index = index
			a.metrics.FrameRead()

			select {
			case jobs <- frame:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var workers sync.WaitGroup
	for i := 0; i < a.config.Workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for frame := range jobs {
				res, err := a.process(gctx, r, frame)
				if err != nil {
					return err
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		workers.Wait()
		close(results)
		return nil
	})

	g.Go(func() error {
		pending := make(map[int]frameResult)
		next := 0
		for res := range results {
			pending[res.frame.Index] = res
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := a.consume(r, ready); err != nil {
					return err
				}
				<-window
				next++
			}
		}
		if len(pending) > 0 {
			return errors.Errorf("%d frames left unconsumed after frame %d", len(pending), next)
		}
		return nil
	})

	return g.Wait()
}

// process detects and annotates a sampled frame. It touches no run state
// other than read-only configuration, so it is safe to call concurrently.
func (a *Aggregator) process(ctx context.Context, r *run, frame video.Frame) (frameResult, error) {
	res := frameResult{frame: frame}
	if frame.Index%a.config.SamplingStride != 0 {
		return res, nil
	}
	res.sampled = true

	detections, err := a.detector.Detect(ctx, frame.Image)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		r.logger.WithError(err).WithField("frame", frame.Index).Warn("frame detection failed")
		detections = nil
	}
	res.detections = detections

	if len(detections) > 0 && a.annotator != nil && r.sink != nil {
		annotated, err := a.annotator.Annotate(frame.Image, detections)
		if err != nil {
			return res, errors.Wrapf(err, "failed to annotate frame %d", frame.Index)
		}
		res.frame.Image = annotated
	}
	return res, nil
}

// consume folds a processed frame into the run and writes it to the sink.
// Frames must be consumed in index order.
func (a *Aggregator) consume(r *run, res frameResult) error {
	index := res.frame.Index

	if res.sampled {
		r.processed++
		a.metrics.FrameSampled()

		if len(res.detections) > 0 {
			r.acc.add(index, res.detections)
			r.log = append(r.log, FrameLog{
				FrameIndex: index,
				Timestamp:  r.info.Timestamp(index),
				Detections: res.detections,
			})
		}
	}

	if r.sink != nil {
		if err := r.sink.Write(res.frame); err != nil {
			return errors.Wrapf(err, "failed to write frame %d", index)
		}
		a.metrics.FrameWritten()
	}

	r.consumed++
	if r.consumed%a.config.ProgressInterval == 0 {
		r.logger.WithFields(logrus.Fields{
			"frame": r.consumed,
			"total": r.info.FrameCount,
		}).Info("processing progress")
	}
	return nil
}

func (a *Aggregator) transition(r *run, s State) {
	r.state = s
	r.logger.WithField("state", s).Debug("run state changed")
	if a.onState != nil {
		a.onState(s)
	}
}

func (a *Aggregator) result(r *run, err error) *VideoResult {
	log := r.log
	if log == nil {
		log = []FrameLog{}
	}

	res := &VideoResult{
		Success: err == nil,
		RunID:   r.id,
		VideoInfo: VideoInfo{
			Info:                r.info,
			ProcessedFrameCount: r.processed,
			Duration:            round2(r.info.Duration()),
		},
		Statistics:   r.acc.finalize(a.config.SamplingStride, r.info.FPS),
		DetectionLog: log,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func closeSink(sink video.Sink) error {
	if sink == nil {
		return nil
	}
	return errors.Wrap(sink.Close(), "failed to close sink")
}
