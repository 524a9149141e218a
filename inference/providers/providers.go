// Package providers - ONNX Runtime execution providers.
package providers

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Backend identifies an ONNX Runtime execution provider.
type Backend string

const (
	// CPUBackend uses the default CPU execution provider.
	CPUBackend Backend = "cpu"
	// CUDABackend uses NVIDIA CUDA for GPU acceleration.
	CUDABackend Backend = "cuda"
	// CoreMLBackend uses Apple CoreML for macOS acceleration.
	CoreMLBackend Backend = "coreml"
	// OpenVINOBackend uses Intel OpenVINO.
	OpenVINOBackend Backend = "openvino"
)

// Backends lists the supported execution providers.
var Backends = []Backend{CPUBackend, CUDABackend, CoreMLBackend, OpenVINOBackend}

// ParseBackend parses a backend name, case-insensitively.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return "", errors.Errorf("unknown execution provider %q", s)
}

// Config selects and tunes the execution provider of a session.
type Config struct {
	// Backend is the execution provider to append to the session options.
	Backend Backend `json:"backend" yaml:"backend"`
	// DeviceID is the accelerator index for CUDA and OpenVINO.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// DeviceType is the OpenVINO device type (CPU, GPU, NPU).
	DeviceType string `json:"device_type" yaml:"device_type"`
	// NumThreads overrides the OpenVINO thread count. 0 keeps the default.
	NumThreads int `json:"num_threads" yaml:"num_threads"`
}

// DefaultConfig returns the CPU provider.
func DefaultConfig() Config {
	return Config{Backend: CPUBackend, DeviceType: "CPU"}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.DeviceID < 0 {
		return errors.Errorf("device_id must be >= 0, got %d", c.DeviceID)
	}
	if c.NumThreads < 0 {
		return errors.Errorf("num_threads must be >= 0, got %d", c.NumThreads)
	}
	return nil
}

// Apply appends the configured execution provider to the session options.
// The CPU provider is built in and needs nothing appended.
//
// Arguments:
//   - options: The session options to configure.
//
// Returns:
//   - error: If the provider is unknown or cannot be enabled.
func (c Config) Apply(options *ort.SessionOptions) error {
	switch c.Backend {
	case CPUBackend, "":
		return nil
	case CoreMLBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case OpenVINOBackend:
		settings := map[string]string{
			"device_id":   fmt.Sprintf("%d", c.DeviceID),
			"device_type": c.DeviceType,
		}
		if c.NumThreads > 0 {
			settings["num_of_threads"] = fmt.Sprintf("%d", c.NumThreads)
		}
		if err := options.AppendExecutionProviderOpenVINO(settings); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	case CUDABackend:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "error creating CUDA options")
		}
		defer cuda.Destroy()

		if err := cuda.Update(map[string]string{
			"device_id": fmt.Sprintf("%d", c.DeviceID),
		}); err != nil {
			return errors.Wrap(err, "error updating CUDA options")
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	default:
		return errors.Errorf("unknown execution provider %q", c.Backend)
	}
	return nil
}

// SharedLibPath returns the default path to the onnxruntime shared library for
// the current platform, or "" when the platform has no bundled library.
//
// Returns:
//   - string: The path to the shared library.
func SharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
	return ""
}
