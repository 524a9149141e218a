package common

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Box
		expected float32
	}{
		{
			name:     "identical boxes",
			a:        NewBox(0, 0, 10, 10),
			b:        NewBox(0, 0, 10, 10),
			expected: 1.0,
		},
		{
			name:     "partial overlap",
			a:        NewBox(0, 0, 100, 100),
			b:        NewBox(50, 50, 150, 150),
			expected: 2500.0 / 17500.0,
		},
		{
			name:     "disjoint boxes",
			a:        NewBox(0, 0, 10, 10),
			b:        NewBox(20, 20, 30, 30),
			expected: 0,
		},
		{
			name:     "touching edges do not overlap",
			a:        NewBox(0, 0, 10, 10),
			b:        NewBox(10, 0, 20, 10),
			expected: 0,
		},
		{
			name:     "zero union",
			a:        NewBox(5, 5, 5, 5),
			b:        NewBox(5, 5, 5, 5),
			expected: 0,
		},
		{
			name:     "contained box",
			a:        NewBox(0, 0, 10, 10),
			b:        NewBox(0, 0, 5, 10),
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.a.IoU(tt.b), 1e-6)
			assert.InDelta(t, tt.expected, tt.b.IoU(tt.a), 1e-6, "IoU must be symmetric")
		})
	}
}

func TestBoxGeometry(t *testing.T) {
	b := NewBox(10, 20, 40, 80)
	assert.Equal(t, float32(30), b.Width())
	assert.Equal(t, float32(60), b.Height())
	assert.Equal(t, float32(1800), b.Area())
	assert.True(t, b.Valid())

	inverted := NewBox(40, 80, 10, 20)
	assert.False(t, inverted.Valid())
	assert.Zero(t, inverted.Area())

	moved := b.Translate(5, -5)
	assert.Equal(t, NewBox(15, 15, 45, 75), moved)
}

func TestBoxClamp(t *testing.T) {
	b := NewBox(-10, -5, 700, 500).Clamp(640, 480)
	assert.Equal(t, NewBox(0, 0, 640, 480), b)

	outside := NewBox(700, 10, 800, 20).Clamp(640, 480)
	assert.False(t, outside.Valid())
}

func TestBoxToRect(t *testing.T) {
	assert.Equal(t, image.Rect(100, 100, 200, 300), NewBox(100.5, 100.5, 200.5, 300.5).ToRect())
}

func TestBoxJSON(t *testing.T) {
	data, err := json.Marshal(NewBox(1, 2, 3, 4))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3,4]`, string(data))

	var b Box
	require.NoError(t, json.Unmarshal([]byte(`[5,6,7,8]`), &b))
	assert.Equal(t, NewBox(5, 6, 7, 8), b)
}
