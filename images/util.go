package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// ComputeChecksum generates a deterministic checksum of an image's pixels.
//
// Arguments:
// - img: The image to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := ComputeChecksum(frame)
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func ComputeChecksum(img image.Image) string {
	if img == nil || img.Bounds().Empty() {
		return "empty"
	}

	hash := md5.New()
	b := img.Bounds()
	px := make([]byte, 8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			px[0], px[1] = byte(r>>8), byte(r)
			px[2], px[3] = byte(g>>8), byte(g)
			px[4], px[5] = byte(bl>>8), byte(bl)
			px[6], px[7] = byte(a>>8), byte(a)
			hash.Write(px)
		}
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
