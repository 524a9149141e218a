// Package images - Image region utilities
package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Rect is an integer pixel rectangle used to describe crop regions.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// Dx returns the width of the rectangle.
func (r Rect) Dx() int {
	return r.X2 - r.X1
}

// Dy returns the height of the rectangle.
func (r Rect) Dy() int {
	return r.Y2 - r.Y1
}

// Empty reports whether the rectangle has a non-positive width or height.
func (r Rect) Empty() bool {
	return r.Dx() <= 0 || r.Dy() <= 0
}

// Clamp restricts the rectangle to [0,width] x [0,height].
//
// Arguments:
//   - width: The frame width in pixels.
//   - height: The frame height in pixels.
//
// Returns:
//   - Rect: The clamped rectangle, which may be Empty.
func (r Rect) Clamp(width, height int) Rect {
	return Rect{
		X1: min(max(r.X1, 0), width),
		Y1: min(max(r.Y1, 0), height),
		X2: min(max(r.X2, 0), width),
		Y2: min(max(r.Y2, 0), height),
	}
}

// ToRectangle converts the rectangle to an image.Rectangle.
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// subImager is implemented by every image type in the standard library.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop extracts the pixels inside region from img.
//
// The returned image shares pixels with img and its bounds are rebased so that
// the crop's top-left corner is (0,0). Region coordinates are relative to the
// top-left corner of img.
//
// Arguments:
//   - img: The source frame.
//   - region: The region to extract, in frame coordinates.
//
// Returns:
//   - image.Image: The cropped image.
//   - error: If the region is empty or img cannot be cropped.
//
// Example:
//
// ```go
//
//	crop, err := images.Crop(frame, images.Rect{X1: 10, Y1: 10, X2: 110, Y2: 210})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(crop.Bounds()) // (0,0)-(100,200)
//
// ```
func Crop(img image.Image, region Rect) (image.Image, error) {
	if region.Empty() {
		return nil, errors.Errorf("empty crop region %v", region)
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, errors.Errorf("image type %T does not support cropping", img)
	}

	origin := img.Bounds().Min
	sub := si.SubImage(region.ToRectangle().Add(origin))
	if sub.Bounds().Empty() {
		return nil, errors.Errorf("crop region %v lies outside the frame", region)
	}
	return rebase{Image: sub}, nil
}

// rebase shifts an image so its bounds start at the origin.
type rebase struct {
	image.Image
}

func (r rebase) Bounds() image.Rectangle {
	b := r.Image.Bounds()
	return b.Sub(b.Min)
}

func (r rebase) At(x, y int) color.Color {
	o := r.Image.Bounds().Min
	return r.Image.At(x+o.X, y+o.Y)
}
