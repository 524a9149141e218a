package models

import "strings"

// genericLabels maps generic vocabulary labels to canonical classes.
var genericLabels = map[string]Class{
	"cell phone": Phone,
	"bottle":     Drink,
	"cup":        Drink,
	"wine glass": Drink,
	"person":     Driver,
}

// Mapper translates raw model labels into canonical behavior classes.
//
// A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	mode Mode
}

// NewMapper creates a mapper for the given mode.
func NewMapper(mode Mode) *Mapper {
	return &Mapper{mode: mode}
}

// Mode returns the mode the mapper was built for.
func (m *Mapper) Mode() Mode {
	return m.mode
}

// Map translates a raw label into a canonical class.
//
// Generic models map "cell phone" to Phone, "bottle", "cup" and "wine glass"
// to Drink and "person" to Driver. Specialized models keep Smoke, Phone and
// Drink as they are and preserve a person/driver label as Driver.
//
// Arguments:
//   - raw: The label emitted by the model.
//
// Returns:
//   - Class: The canonical class.
//   - bool: False when the label is discarded.
//
// @example
// m := NewMapper(ModeGeneric)
// c, ok := m.Map("cell phone") // Phone, true
// _, ok = m.Map("car")         // false
func (m *Mapper) Map(raw string) (Class, bool) {
	switch m.mode {
	case ModeGeneric:
		c, ok := genericLabels[raw]
		return c, ok
	case ModeSpecialized:
		if IsPersonLabel(raw) {
			return Driver, true
		}
		for _, name := range BehaviorClasses {
			if strings.EqualFold(name, raw) {
				return ClassByName(name)
			}
		}
	}
	return Class{}, false
}

// KnownClasses returns the canonical classes a model with this vocabulary can
// produce through the mapper, in canonical ID order.
func (m *Mapper) KnownClasses(vocabulary []string) []Class {
	seen := make(map[int]bool)
	for _, raw := range vocabulary {
		if c, ok := m.Map(raw); ok {
			seen[c.ID] = true
		}
	}

	known := make([]Class, 0, len(seen))
	for _, c := range CanonicalClasses {
		if seen[c.ID] {
			known = append(known, c)
		}
	}
	return known
}
