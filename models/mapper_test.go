package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMode(t *testing.T) {
	assert.Equal(t, ModeGeneric, ResolveMode(YOLOClasses))
	assert.Equal(t, ModeSpecialized, ResolveMode(BehaviorClasses))
	assert.Equal(t, ModeSpecialized, ResolveMode(nil))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		mode     Mode
		explicit bool
		wantErr  bool
	}{
		{in: "generic", mode: ModeGeneric, explicit: true},
		{in: "Specialized", mode: ModeSpecialized, explicit: true},
		{in: "auto"},
		{in: ""},
		{in: "coco", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			mode, explicit, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.explicit, explicit)
			if explicit {
				assert.Equal(t, tt.mode, mode)
			}
		})
	}
}

func TestMapperGeneric(t *testing.T) {
	m := NewMapper(ModeGeneric)

	tests := []struct {
		raw      string
		expected Class
		ok       bool
	}{
		{raw: "cell phone", expected: Phone, ok: true},
		{raw: "bottle", expected: Drink, ok: true},
		{raw: "cup", expected: Drink, ok: true},
		{raw: "wine glass", expected: Drink, ok: true},
		{raw: "person", expected: Driver, ok: true},
		{raw: "car"},
		{raw: "Smoke"},
		{raw: "Phone"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, ok := m.Map(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestMapperSpecialized(t *testing.T) {
	m := NewMapper(ModeSpecialized)

	tests := []struct {
		raw      string
		expected Class
		ok       bool
	}{
		{raw: "Smoke", expected: Smoke, ok: true},
		{raw: "Phone", expected: Phone, ok: true},
		{raw: "drink", expected: Drink, ok: true},
		{raw: "Driver", expected: Driver, ok: true},
		{raw: "person", expected: Driver, ok: true},
		{raw: "cell phone"},
		{raw: "Seatbelt"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, ok := m.Map(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestMapperKnownClasses(t *testing.T) {
	generic := NewMapper(ModeGeneric)
	assert.Equal(t, []Class{Phone, Drink, Driver}, generic.KnownClasses(YOLOClasses))

	specialized := NewMapper(ModeSpecialized)
	assert.Equal(t, []Class{Smoke, Phone, Drink}, specialized.KnownClasses(BehaviorClasses))
	assert.Equal(t, []Class{Smoke, Phone, Drink, Driver},
		specialized.KnownClasses([]string{"Driver", "Drink", "Phone", "Smoke", "Seatbelt"}))
}

func TestThresholdGate(t *testing.T) {
	gate := NewThresholdGate(nil)

	tests := []struct {
		name       string
		class      string
		confidence float32
		fallback   float32
		accept     bool
	}{
		{name: "smoke below policy", class: ClassSmoke, confidence: 0.5, fallback: 0.1, accept: false},
		{name: "smoke at policy", class: ClassSmoke, confidence: 0.8, fallback: 0.1, accept: true},
		{name: "drink above low bar", class: ClassDrink, confidence: 0.15, fallback: 0.25, accept: true},
		{name: "drink below low bar", class: ClassDrink, confidence: 0.05, fallback: 0.01, accept: false},
		{name: "phone balanced", class: ClassPhone, confidence: 0.25, fallback: 0.9, accept: true},
		{name: "driver below", class: ClassDriver, confidence: 0.2, fallback: 0.1, accept: false},
		{name: "unknown uses fallback", class: "Seatbelt", confidence: 0.3, fallback: 0.25, accept: true},
		{name: "unknown below fallback", class: "Seatbelt", confidence: 0.2, fallback: 0.25, accept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accept, gate.Accept(tt.class, tt.confidence, tt.fallback))
		})
	}
}

func TestThresholdGateCopiesTable(t *testing.T) {
	table := ClassThresholds{ClassPhone: 0.5}
	gate := NewThresholdGate(table)
	table[ClassPhone] = 0.9

	assert.True(t, gate.Accept(ClassPhone, 0.6, 0))
	assert.Equal(t, float32(0.3), gate.Threshold(ClassSmoke, 0.3))
}
