// Package detectors - Configuration for the ONNX detector adapter.
package detectors

import (
	"github.com/nvr-ai/go-behavior/inference/providers"
	"github.com/pkg/errors"
)

// Config represents the configuration of an ONNX Runtime backed Detector.
type Config struct {
	// ModelPath is the path to a YOLO style .onnx model with a single
	// [1, 4+C, N] output.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// LabelsPath is an optional file with one raw label per line. When empty
	// the 80 class COCO vocabulary is used.
	LabelsPath string `json:"labels_path" yaml:"labels_path"`
	// LibraryPath is the onnxruntime shared library. Empty selects the
	// platform default.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// InputSize is the square input dimension of the model.
	InputSize int `json:"input_size" yaml:"input_size"`
	// InputName and OutputName are the graph node names.
	InputName  string `json:"input_name" yaml:"input_name"`
	OutputName string `json:"output_name" yaml:"output_name"`
	// MergeIoU is the same-label overlap above which raw candidates are merged
	// before they leave the adapter.
	MergeIoU float32 `json:"merge_iou" yaml:"merge_iou"`
	// IntraOpThreads and InterOpThreads tune the runtime thread pools.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// Provider selects the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// DefaultConfig returns a configuration for a 640x640 YOLOv8 style export.
//
// Returns:
//   - Config: The default configuration.
//
// @example
// config := DefaultConfig()
// config.ModelPath = "path/to/model.onnx"
// detector, err := NewONNXDetector(config, logger)
func DefaultConfig() Config {
	return Config{
		InputSize:      640,
		InputName:      "images",
		OutputName:     "output0",
		MergeIoU:       0.7,
		IntraOpThreads: 4,
		InterOpThreads: 2,
		Provider:       providers.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model_path is required")
	}
	if c.InputSize < 32 || c.InputSize%32 != 0 {
		return errors.Errorf("input_size must be a positive multiple of 32, got %d", c.InputSize)
	}
	if c.InputName == "" || c.OutputName == "" {
		return errors.New("input_name and output_name are required")
	}
	if c.MergeIoU <= 0 || c.MergeIoU > 1 {
		return errors.Errorf("merge_iou must be in (0,1], got %f", c.MergeIoU)
	}
	return c.Provider.Validate()
}

// Anchors returns the number of candidate boxes a YOLO head produces for a
// square input of the given size (strides 8, 16 and 32).
func Anchors(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := inputSize / stride
		n += side * side
	}
	return n
}
