// Package metrics - Prometheus instrumentation of the detection pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages reported in the stage label.
const (
	StagePrimary      = "primary"
	StageLocalization = "localization"
	StageRefinement   = "refinement"
	StageDedup        = "dedup"
	StageFrame        = "frame"
)

// Metrics holds the collectors of one pipeline instance. Every instance owns
// its registry so repeated or concurrent runs never collide.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesRead       prometheus.Counter
	FramesSampled    prometheus.Counter
	FramesWritten    prometheus.Counter
	Detections       *prometheus.CounterVec
	DetectorFailures *prometheus.CounterVec
	SkippedRegions   prometheus.Counter
	StageLatency     *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "behavior_frames_read_total",
			Help: "Total frames read from the video source",
		}),
		FramesSampled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "behavior_frames_sampled_total",
			Help: "Total frames sent through the detection pipeline",
		}),
		FramesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "behavior_frames_written_total",
			Help: "Total frames written to the output sink",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "behavior_detections_total",
			Help: "Total final detections by canonical class",
		}, []string{"class"}),
		DetectorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "behavior_detector_failures_total",
			Help: "Total recovered detector failures by stage",
		}, []string{"stage"}),
		SkippedRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "behavior_skipped_regions_total",
			Help: "Total degenerate crop regions skipped",
		}),
		StageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "behavior_stage_duration_seconds",
			Help:    "Latency of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.FramesRead,
		m.FramesSampled,
		m.FramesWritten,
		m.Detections,
		m.DetectorFailures,
		m.SkippedRegions,
		m.StageLatency,
	)
	return m
}

// Registry returns the instance registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the instance registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartStage starts timing a stage and returns the function that records it.
//
// @example
// done := m.StartStage(metrics.StagePrimary)
// defer done()
func (m *Metrics) StartStage(stage string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.StageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// DetectorFailed counts a recovered detector failure.
func (m *Metrics) DetectorFailed(stage string) {
	if m == nil {
		return
	}
	m.DetectorFailures.WithLabelValues(stage).Inc()
}

// RegionSkipped counts a degenerate crop region.
func (m *Metrics) RegionSkipped() {
	if m == nil {
		return
	}
	m.SkippedRegions.Inc()
}

// Detected counts final detections of a class.
func (m *Metrics) Detected(class string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Detections.WithLabelValues(class).Add(float64(n))
}

// FrameRead counts a frame read from the source.
func (m *Metrics) FrameRead() {
	if m == nil {
		return
	}
	m.FramesRead.Inc()
}

// FrameSampled counts a frame sent through the pipeline.
func (m *Metrics) FrameSampled() {
	if m == nil {
		return
	}
	m.FramesSampled.Inc()
}

// FrameWritten counts a frame written to the sink.
func (m *Metrics) FrameWritten() {
	if m == nil {
		return
	}
	m.FramesWritten.Inc()
}
