package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// PrepareInput resizes img to size x size and writes it into dst as planar
// RGB scaled to [0,1].
//
// Arguments:
//   - img: The image to prepare.
//   - dst: The destination tensor data, at least 3*size*size floats.
//   - size: The square model input size.
//
// Returns:
//   - error: An error if the destination is too small or the image is empty.
func PrepareInput(img image.Image, dst []float32, size int) error {
	if img == nil || img.Bounds().Empty() {
		return errors.New("empty image")
	}
	channelSize := size * size
	if len(dst) < channelSize*3 {
		return errors.Errorf("destination tensor only holds %d floats, needs %d (make sure it's the right shape!)",
			len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	// Resize the image using Lanczos3 algorithm.
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	origin := resized.Bounds().Min

	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(origin.X+x, origin.Y+y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
