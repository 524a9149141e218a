package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/nvr-ai/go-behavior/aggregator"
	"github.com/nvr-ai/go-behavior/annotate"
	"github.com/nvr-ai/go-behavior/config"
	"github.com/nvr-ai/go-behavior/inference/detectors"
	"github.com/nvr-ai/go-behavior/inference/providers"
	"github.com/nvr-ai/go-behavior/metrics"
	"github.com/nvr-ai/go-behavior/pipeline"
	"github.com/nvr-ai/go-behavior/video"
	"github.com/nvr-ai/go-behavior/video/capture"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

// loadConfig reads the configuration file and applies command line
// overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, err
	}

	if v := c.String(flagLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String(flagLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := c.String(flagMetricsAddr); v != "" {
		cfg.Metrics.Address = v
	}
	if v := c.String(flagModel); v != "" {
		cfg.Detector.ModelPath = v
	}
	if v := c.String(flagLabels); v != "" {
		cfg.Detector.LabelsPath = v
	}
	if v := c.String(flagLocalizerModel); v != "" {
		cfg.Localizer.ModelPath = v
	}
	if v := c.String(flagProvider); v != "" {
		backend, err := providers.ParseBackend(v)
		if err != nil {
			return nil, err
		}
		cfg.Detector.Provider.Backend = backend
		cfg.Localizer.Provider.Backend = backend
	}
	if v := c.String(flagMode); v != "" {
		cfg.Pipeline.Mode = v
	}
	if c.Bool(flagNoSecondPass) {
		cfg.Pipeline.SecondPass = false
	}
	if c.IsSet(flagStride) {
		cfg.Video.SamplingStride = c.Int(flagStride)
	}
	if c.IsSet(flagWorkers) {
		cfg.Video.Workers = c.Int(flagWorkers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtime holds what a command needs and releases it on close.
type runtime struct {
	cfg      *config.Config
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func setup(c *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(),
	}

	if cfg.Metrics.Address != "" {
		server := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           rt.metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("metrics server failed")
			}
		}()
		rt.closers = append(rt.closers, server.Close)
		logger.WithField("addr", cfg.Metrics.Address).Info("serving metrics")
	}

	primary, err := detectors.NewONNXDetector(cfg.Detector, logger.WithField("detector", "primary"))
	if err != nil {
		return nil, multierr.Append(err, rt.Close())
	}
	rt.closers = append(rt.closers, primary.Close)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(rt.metrics),
	}
	if cfg.LocalizerEnabled() {
		localizer, err := detectors.NewONNXDetector(cfg.Localizer, logger.WithField("detector", "localizer"))
		if err != nil {
			return nil, multierr.Append(err, rt.Close())
		}
		rt.closers = append(rt.closers, localizer.Close)
		opts = append(opts, pipeline.WithLocalizationDetector(localizer))
	}

	rt.pipeline, err = pipeline.New(primary, cfg.Pipeline, opts...)
	if err != nil {
		return nil, multierr.Append(err, rt.Close())
	}
	return rt, nil
}

// newMetrics creates the pipeline metrics with the Go runtime and process
// collectors registered next to them.
func newMetrics() *metrics.Metrics {
	m := metrics.New()
	m.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// annotator returns an annotator colored over the classes the pipeline can
// produce.
func (rt *runtime) annotator() *annotate.Annotator {
	known := rt.pipeline.Mapper().KnownClasses(rt.pipeline.Vocabulary())
	return annotate.New(known, rt.cfg.Annotate)
}

// Close releases detectors and the metrics server in reverse order.
func (rt *runtime) Close() error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, rt.closers[i]())
	}
	rt.closers = nil
	return err
}

func imageAction(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		return errors.New("expected exactly one image path")
	}

	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rt.Close())
	}()

	img, err := capture.ReadImage(c.Args().First())
	if err != nil {
		return err
	}

	result := rt.pipeline.DetectImage(contextOf(c), img)

	if output := c.String(flagOutput); output != "" && result.Success {
		annotated, err := rt.annotator().Annotate(img, result.Detections)
		if err != nil {
			return err
		}
		if err := capture.WriteImage(output, annotated); err != nil {
			return err
		}
	}

	if err := writeJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

func videoAction(c *cli.Context) (err error) {
	dir := c.String(flagFramesDir)
	if dir == "" && c.NArg() != 1 {
		return errors.New("expected exactly one video path or --frames-dir")
	}

	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rt.Close())
	}()

	var src video.Source
	if dir != "" {
		src, err = capture.OpenDirectory(dir, c.Float64(flagFPS))
	} else {
		src, err = capture.OpenFile(c.Args().First())
	}
	if err != nil {
		return err
	}

	opts := []aggregator.Option{
		aggregator.WithLogger(rt.logger),
		aggregator.WithMetrics(rt.metrics),
	}

	var sink video.Sink
	if output := c.String(flagOutput); output != "" {
		fileSink, err := capture.CreateFile(output, src.Info())
		if err != nil {
			return multierr.Append(err, src.Close())
		}
		rt.logger.WithFields(logrus.Fields{
			"output": output,
			"codec":  fileSink.Codec(),
		}).Info("writing annotated video")
		sink = fileSink
		opts = append(opts, aggregator.WithAnnotator(rt.annotator()))
	}

	known := rt.pipeline.Mapper().KnownClasses(rt.pipeline.Vocabulary())
	agg := aggregator.New(rt.pipeline, known, rt.cfg.Video, opts...)

	result, runErr := agg.Run(contextOf(c), src, sink)
	if err := writeJSON(result); err != nil {
		return multierr.Append(runErr, err)
	}
	return runErr
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to write result")
}
