// Package models - model modes.
package models

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Mode identifies how a model's raw labels relate to the canonical classes.
type Mode int

const (
	// ModeSpecialized is a model trained directly on the canonical classes.
	ModeSpecialized Mode = iota
	// ModeGeneric is a model trained on a broad vocabulary (e.g. COCO) whose
	// labels need remapping.
	ModeGeneric
)

func (m Mode) String() string {
	switch m {
	case ModeGeneric:
		return "generic"
	case ModeSpecialized:
		return "specialized"
	default:
		return "unknown"
	}
}

// ResolveMode decides the mode of a model from its vocabulary. A vocabulary
// containing "person" signals a generic model.
//
// Arguments:
//   - vocabulary: The raw labels the model can emit.
//
// Returns:
//   - Mode: ModeGeneric or ModeSpecialized.
func ResolveMode(vocabulary []string) Mode {
	if lo.Contains(vocabulary, "person") {
		return ModeGeneric
	}
	return ModeSpecialized
}

// ParseMode parses a configured mode. "auto" (or empty) defers to
// ResolveMode and is reported with ok == false.
//
// Arguments:
//   - s: One of "generic", "specialized", "auto" or "".
//
// Returns:
//   - Mode: The parsed mode.
//   - bool: False when the mode should be resolved from the vocabulary.
//   - error: If s is not recognized.
func ParseMode(s string) (Mode, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return ModeGeneric, true, nil
	case "specialized":
		return ModeSpecialized, true, nil
	case "", "auto":
		return ModeSpecialized, false, nil
	default:
		return ModeSpecialized, false, errors.Errorf("unknown model mode %q", s)
	}
}
