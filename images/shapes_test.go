package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectClamp(t *testing.T) {
	tests := []struct {
		name     string
		rect     Rect
		expected Rect
		empty    bool
	}{
		{
			name:     "inside frame",
			rect:     Rect{X1: 10, Y1: 10, X2: 100, Y2: 100},
			expected: Rect{X1: 10, Y1: 10, X2: 100, Y2: 100},
		},
		{
			name:     "overflowing every edge",
			rect:     Rect{X1: -20, Y1: -30, X2: 700, Y2: 500},
			expected: Rect{X1: 0, Y1: 0, X2: 640, Y2: 480},
		},
		{
			name:     "entirely right of frame",
			rect:     Rect{X1: 650, Y1: 10, X2: 700, Y2: 100},
			expected: Rect{X1: 640, Y1: 10, X2: 640, Y2: 100},
			empty:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rect.Clamp(640, 480)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.empty, got.Empty())
		})
	}
}

func TestCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	img.Set(20, 10, color.RGBA{R: 255, A: 255})

	crop, err := Crop(img, Rect{X1: 16, Y1: 8, X2: 48, Y2: 40})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), crop.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, crop.At(4, 2))

	_, err = Crop(img, Rect{X1: 10, Y1: 10, X2: 10, Y2: 20})
	assert.Error(t, err)
}

func TestCropOffsetOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(100, 100, 164, 148))
	img.Set(110, 105, color.RGBA{G: 255, A: 255})

	crop, err := Crop(img, Rect{X1: 5, Y1: 0, X2: 20, Y2: 10})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, crop.At(5, 5))
}

func TestComputeChecksum(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 8, 8))
	b := image.NewRGBA(image.Rect(0, 0, 8, 8))
	assert.Equal(t, ComputeChecksum(a), ComputeChecksum(b))

	b.Set(1, 1, color.RGBA{B: 200, A: 255})
	assert.NotEqual(t, ComputeChecksum(a), ComputeChecksum(b))
	assert.Equal(t, "empty", ComputeChecksum(nil))
}
