// Package config - Runtime configuration loaded from YAML.
package config

import (
	"os"

	"github.com/nvr-ai/go-behavior/aggregator"
	"github.com/nvr-ai/go-behavior/annotate"
	"github.com/nvr-ai/go-behavior/inference/detectors"
	"github.com/nvr-ai/go-behavior/pipeline"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LogConfig configures logging.
type LogConfig struct {
	// Level is a logrus level name.
	Level string `json:"level" yaml:"level"`
	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Address serves /metrics when set, e.g. ":9090".
	Address string `json:"address" yaml:"address"`
}

// Config holds runtime configuration for detection and video processing.
// Fields may be loaded from a YAML file and overridden by command-line flags.
type Config struct {
	// Detector is the primary model.
	Detector detectors.Config `json:"detector" yaml:"detector"`
	// Localizer is the optional person model used when the primary pass finds
	// no driver. Disabled when its model_path is empty.
	Localizer detectors.Config `json:"localizer" yaml:"localizer"`
	// Pipeline holds the refinement parameters.
	Pipeline pipeline.Config `json:"pipeline" yaml:"pipeline"`
	// Video holds the sampling parameters.
	Video aggregator.Config `json:"video" yaml:"video"`
	// Annotate tunes the drawing of output frames.
	Annotate annotate.Options `json:"annotate" yaml:"annotate"`
	// Log configures logging.
	Log LogConfig `json:"log" yaml:"log"`
	// Metrics configures the metrics endpoint.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// Default returns a Config populated with standard defaults.
func Default() *Config {
	return &Config{
		Detector:  detectors.DefaultConfig(),
		Localizer: detectors.DefaultConfig(),
		Pipeline:  pipeline.DefaultConfig(),
		Video:     aggregator.DefaultConfig(),
		Annotate:  annotate.DefaultOptions(),
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Validate clamps/normalizes values to safe ranges. Errors are returned only
// for values that cannot be normalized.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return errors.Wrap(err, "pipeline")
	}
	if err := c.Video.Validate(); err != nil {
		return errors.Wrap(err, "video")
	}
	if c.Annotate.LineWidth <= 0 {
		c.Annotate.LineWidth = 2
	}
	if c.Annotate.FontSize <= 0 {
		c.Annotate.FontSize = 14
	}
	if c.Annotate.Padding < 0 {
		c.Annotate.Padding = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format != "json" {
		c.Log.Format = "text"
	}
	return nil
}

// LocalizerEnabled reports whether an auxiliary localization model is
// configured.
func (c *Config) LocalizerEnabled() bool {
	return c.Localizer.ModelPath != ""
}

// Load reads configuration from the given YAML file path. If the file does
// not exist it returns Default().
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: If the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to the given path in YAML format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write config %s", path)
}
