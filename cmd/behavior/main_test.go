package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-behavior/config"
	"github.com/nvr-ai/go-behavior/inference/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runLoad runs the app with the video command's action replaced by
// loadConfig.
func runLoad(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	app := newApp()
	var (
		cfg     *config.Config
		loadErr error
	)
	for _, cmd := range app.Commands {
		cmd.Action = func(c *cli.Context) error {
			cfg, loadErr = loadConfig(c)
			return nil
		}
	}
	require.NoError(t, app.Run(append([]string{"behavior"}, args...)))
	return cfg, loadErr
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := runLoad(t, "video", "in.mp4")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video:\n  sampling_stride: 5\n  workers: 2\n"), 0o600))

	cfg, err := runLoad(t,
		"--config", path, "--log-level", "debug", "--metrics-addr", ":9090",
		"video",
		"--model", "behavior.onnx",
		"--labels", "behavior.txt",
		"--localizer-model", "yolov8n.onnx",
		"--provider", "CUDA",
		"--mode", "specialized",
		"--no-second-pass",
		"--workers", "4",
		"in.mp4",
	)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "behavior.onnx", cfg.Detector.ModelPath)
	assert.Equal(t, "behavior.txt", cfg.Detector.LabelsPath)
	assert.Equal(t, "yolov8n.onnx", cfg.Localizer.ModelPath)
	assert.Equal(t, providers.CUDABackend, cfg.Detector.Provider.Backend)
	assert.Equal(t, providers.CUDABackend, cfg.Localizer.Provider.Backend)
	assert.Equal(t, "specialized", cfg.Pipeline.Mode)
	assert.False(t, cfg.Pipeline.SecondPass)
	assert.Equal(t, 5, cfg.Video.SamplingStride)
	assert.Equal(t, 4, cfg.Video.Workers)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "provider", args: []string{"image", "--provider", "tpu", "in.jpg"}},
		{name: "mode", args: []string{"image", "--mode", "coco", "in.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runLoad(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestActionsValidateArguments(t *testing.T) {
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}

	assert.Error(t, app.Run([]string{"behavior", "image"}))
	assert.Error(t, app.Run([]string{"behavior", "video"}))
}

func TestNewMetricsRegistersRuntimeCollectors(t *testing.T) {
	m := newMetrics()
	m.FrameRead()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
	assert.Contains(t, names, "behavior_frames_read_total")
}
