package capture

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-behavior/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	return img
}

func TestImageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	want := testImage(32, 24)
	require.NoError(t, WriteImage(path, want))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
	assert.Equal(t, images.ComputeChecksum(want), images.ComputeChecksum(img))

	r, g, b, _ := img.At(2, 3).RGBA()
	assert.Equal(t, uint32(16), r>>8)
	assert.Equal(t, uint32(24), g>>8)
	assert.Equal(t, uint32(128), b>>8)
}

func TestReadImageMissing(t *testing.T) {
	_, err := ReadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestDirectorySource(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-2.png", "frame-0.png", "frame-1.png"} {
		require.NoError(t, WriteImage(filepath.Join(dir, name), testImage(16, 8)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o600))

	src, err := OpenDirectory(dir, 10)
	require.NoError(t, err)
	defer src.Close()

	info := src.Info()
	assert.Equal(t, 16, info.Width)
	assert.Equal(t, 8, info.Height)
	assert.Equal(t, 3, info.FrameCount)
	assert.Equal(t, 10.0, info.FPS)

	for i := 0; i < 3; i++ {
		frame, ok, err := src.Read()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, frame.Index)
	}

	_, ok, err := src.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}
