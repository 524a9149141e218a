// Package pipeline - Per-frame detection refinement.
package pipeline

import (
	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
)

// Margins expand a driver box into a crop region, as fractions of the box
// size.
type Margins struct {
	// Horizontal is added on both the left and the right side.
	Horizontal float32 `json:"horizontal" yaml:"horizontal"`
	// Top is added above the box.
	Top float32 `json:"top" yaml:"top"`
	// Bottom is added below the box, larger to reach the lap and hands.
	Bottom float32 `json:"bottom" yaml:"bottom"`
}

// DefaultMargins returns the default crop margins.
func DefaultMargins() Margins {
	return Margins{Horizontal: 0.30, Top: 0.25, Bottom: 0.60}
}

// Config holds the parameters of the refinement pipeline.
//
// The pass-level floors are passed to the detector and only bound what it
// returns. Acceptance is decided per class by Thresholds, falling back to the
// floor of the pass for classes missing from the table.
type Config struct {
	// Mode is "generic", "specialized" or "auto" (resolved from the detector
	// vocabulary).
	Mode string `json:"mode" yaml:"mode"`
	// PrimaryFloor is the inference floor of the full frame pass for
	// specialized models.
	PrimaryFloor float32 `json:"primary_floor" yaml:"primary_floor"`
	// GenericPrimaryFloor is the inference floor of the full frame pass for
	// generic models. It sits below PrimaryFloor so low bar classes such as
	// Drink still reach the class thresholds.
	GenericPrimaryFloor float32 `json:"generic_primary_floor" yaml:"generic_primary_floor"`
	// SpecializedSecondPassFloor is the crop inference floor for specialized
	// models.
	SpecializedSecondPassFloor float32 `json:"specialized_second_pass_floor" yaml:"specialized_second_pass_floor"`
	// GenericSecondPassFloor is the crop inference floor for generic models,
	// slightly higher since generic crops are noisier.
	GenericSecondPassFloor float32 `json:"generic_second_pass_floor" yaml:"generic_second_pass_floor"`
	// LocalizationFloor is the inference floor of the auxiliary person pass.
	LocalizationFloor float32 `json:"localization_floor" yaml:"localization_floor"`
	// SyntheticDriverConfidence is the confidence assigned to drivers found
	// by the auxiliary person pass.
	SyntheticDriverConfidence float32 `json:"synthetic_driver_confidence" yaml:"synthetic_driver_confidence"`
	// SecondPass enables the crop-and-zoom refinement.
	SecondPass bool `json:"second_pass" yaml:"second_pass"`
	// Margins expand driver boxes into crop regions.
	Margins Margins `json:"margins" yaml:"margins"`
	// NMS configures deduplication.
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`
	// Thresholds is the per-class acceptance table.
	Thresholds models.ClassThresholds `json:"thresholds" yaml:"thresholds"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                       "auto",
		PrimaryFloor:               0.25,
		GenericPrimaryFloor:        0.15,
		SpecializedSecondPassFloor: 0.10,
		GenericSecondPassFloor:     0.15,
		LocalizationFloor:          0.15,
		SyntheticDriverConfidence:  0.8,
		SecondPass:                 true,
		Margins:                    DefaultMargins(),
		NMS:                        postprocess.DefaultNMSConfig(),
		Thresholds:                 models.DefaultClassThresholds(),
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if _, _, err := models.ParseMode(c.Mode); err != nil {
		return err
	}
	if !unit(c.PrimaryFloor) {
		c.PrimaryFloor = 0.25
	}
	if !unit(c.GenericPrimaryFloor) {
		c.GenericPrimaryFloor = 0.15
	}
	if !unit(c.SpecializedSecondPassFloor) {
		c.SpecializedSecondPassFloor = 0.10
	}
	if !unit(c.GenericSecondPassFloor) {
		c.GenericSecondPassFloor = 0.15
	}
	if !unit(c.LocalizationFloor) {
		c.LocalizationFloor = 0.15
	}
	if c.SyntheticDriverConfidence <= 0 || c.SyntheticDriverConfidence > 1 {
		c.SyntheticDriverConfidence = 0.8
	}
	if c.Margins.Horizontal < 0 {
		c.Margins.Horizontal = 0.30
	}
	if c.Margins.Top < 0 {
		c.Margins.Top = 0.25
	}
	if c.Margins.Bottom < 0 {
		c.Margins.Bottom = 0.60
	}
	if c.NMS.IoUThreshold <= 0 || c.NMS.IoUThreshold > 1 {
		c.NMS.IoUThreshold = postprocess.DefaultIoUThreshold
	}
	if c.Thresholds == nil {
		c.Thresholds = models.DefaultClassThresholds()
	}
	for class, t := range c.Thresholds {
		if !unit(t) {
			delete(c.Thresholds, class)
		}
	}
	return nil
}

// FirstPassFloor returns the full frame inference floor for mode.
func (c Config) FirstPassFloor(mode models.Mode) float32 {
	if mode == models.ModeGeneric {
		return c.GenericPrimaryFloor
	}
	return c.PrimaryFloor
}

// SecondPassFloor returns the crop inference floor for mode.
func (c Config) SecondPassFloor(mode models.Mode) float32 {
	if mode == models.ModeGeneric {
		return c.GenericSecondPassFloor
	}
	return c.SpecializedSecondPassFloor
}

func unit(v float32) bool {
	return v >= 0 && v <= 1
}
