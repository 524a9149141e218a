// Package detectors - ONNX model inference.
package detectors

import (
	"context"
	"image"

	"github.com/nvr-ai/go-behavior/common"
	"github.com/nvr-ai/go-behavior/inference"
	"github.com/nvr-ai/go-behavior/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXDetector is a Detector backed by an ONNX Runtime session over a YOLO
// style model.
//
// Calls are serialized on the session; the preallocated tensors are shared.
type ONNXDetector struct {
	session *inference.Session
	config  Config
	labels  []string
	anchors int
	logger  logrus.FieldLogger
}

// NewONNXDetector loads the model and its labels.
//
// Arguments:
//   - config: The detector configuration.
//   - logger: The logger for lifecycle events.
//
// Returns:
//   - *ONNXDetector: The detector. The caller must Close it.
//   - error: If the configuration is invalid or the model cannot be loaded.
func NewONNXDetector(config Config, logger logrus.FieldLogger) (*ONNXDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid detector config")
	}

	labels := models.YOLOClasses
	if config.LabelsPath != "" {
		loaded, err := LoadLabels(config.LabelsPath)
		if err != nil {
			return nil, err
		}
		labels = loaded
	}

	size := int64(config.InputSize)
	anchors := Anchors(config.InputSize)

	session, err := inference.NewSession(inference.SessionConfig{
		ModelPath:      config.ModelPath,
		LibraryPath:    config.LibraryPath,
		InputName:      config.InputName,
		OutputName:     config.OutputName,
		InputShape:     ort.NewShape(1, 3, size, size),
		OutputShape:    ort.NewShape(1, int64(4+len(labels)), int64(anchors)),
		IntraOpThreads: config.IntraOpThreads,
		InterOpThreads: config.InterOpThreads,
		Provider:       config.Provider,
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"model":    config.ModelPath,
		"classes":  len(labels),
		"provider": config.Provider.Backend,
	}).Info("onnx detector loaded")

	return &ONNXDetector{
		session: session,
		config:  config,
		labels:  labels,
		anchors: anchors,
		logger:  logger,
	}, nil
}

// Infer runs the model over img.
func (d *ONNXDetector) Infer(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	d.session.Lock()
	defer d.session.Unlock()

	if d.session.Input == nil {
		return nil, errors.New("detector closed")
	}

	if err := inference.PrepareInput(img, d.session.Input.GetData(), d.config.InputSize); err != nil {
		return nil, errors.Wrap(err, "failed to prepare input")
	}
	if err := d.session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}

	bounds := img.Bounds()
	return DecodeOutput(d.session.Output.GetData(), DecodeArgs{
		Labels:    d.labels,
		Anchors:   d.anchors,
		InputSize: d.config.InputSize,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Floor:     floor,
		MergeIoU:  d.config.MergeIoU,
	})
}

// Vocabulary returns the raw labels of the model.
func (d *ONNXDetector) Vocabulary() []string {
	return d.labels
}

// Close releases the session.
func (d *ONNXDetector) Close() error {
	d.session.Close()
	d.logger.Info("onnx detector closed")
	return nil
}
