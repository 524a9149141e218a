package models

// ClassThresholds maps a canonical class name to the minimum confidence a
// detection of that class needs to be reported.
type ClassThresholds map[string]float32

// DefaultClassThresholds is the default acceptance policy.
//
// Smoke is rare and easily confused with steam or shadows so it needs a high
// bar; Drink is common and valuable for recall so its bar is low.
func DefaultClassThresholds() ClassThresholds {
	return ClassThresholds{
		ClassSmoke:  0.80,
		ClassDrink:  0.10,
		ClassPhone:  0.25,
		ClassDriver: 0.25,
	}
}

// ThresholdGate applies per-class minimum confidences. It is independent of
// the floor passed to the detector at inference time.
type ThresholdGate struct {
	thresholds ClassThresholds
}

// NewThresholdGate creates a gate over a copy of the given table. A nil table
// selects DefaultClassThresholds.
func NewThresholdGate(thresholds ClassThresholds) *ThresholdGate {
	if thresholds == nil {
		thresholds = DefaultClassThresholds()
	}
	table := make(ClassThresholds, len(thresholds))
	for k, v := range thresholds {
		table[k] = v
	}
	return &ThresholdGate{thresholds: table}
}

// Threshold returns the minimum confidence for class, falling back to
// fallback when the class has no entry in the table.
func (g *ThresholdGate) Threshold(class string, fallback float32) float32 {
	if t, ok := g.thresholds[class]; ok {
		return t
	}
	return fallback
}

// Accept reports whether a detection of class with the given confidence
// passes the gate.
//
// Arguments:
//   - class: The canonical class name.
//   - confidence: The detection confidence.
//   - fallback: The global floor of the current pass, used for classes
//     missing from the table.
//
// Returns:
//   - bool: True when confidence meets the class threshold.
func (g *ThresholdGate) Accept(class string, confidence, fallback float32) bool {
	return confidence >= g.Threshold(class, fallback)
}
