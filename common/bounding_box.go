// Package common - geometry shared by the detection stages.
package common

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Box is an axis-aligned rectangle in floating point pixel coordinates.
//
// X2,Y2 are exclusive, matching image.Rectangle.
type Box struct {
	X1, Y1, X2, Y2 float32
}

// NewBox builds a Box from corner coordinates.
func NewBox(x1, y1, x2, y2 float32) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the horizontal extent of the box, or 0 when the box is inverted.
func (b Box) Width() float32 {
	return math32.Max(0, b.X2-b.X1)
}

// Height returns the vertical extent of the box, or 0 when the box is inverted.
func (b Box) Height() float32 {
	return math32.Max(0, b.Y2-b.Y1)
}

// Area returns the box area in square pixels.
func (b Box) Area() float32 {
	return b.Width() * b.Height()
}

// Valid reports whether the box has strictly positive width and height.
func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Intersection calculates the overlapping area between two boxes.
//
// Arguments:
// - other: The other box to intersect with.
//
// Returns:
// - The area of intersection in square pixels, 0 when the boxes are disjoint.
//
// @example
// a := Box{X1: 0, Y1: 0, X2: 100, Y2: 100}
// b := Box{X1: 50, Y1: 50, X2: 150, Y2: 150}
// area := a.Intersection(b) // 2500 (50x50 overlap)
func (b Box) Intersection(other Box) float32 {
	w := math32.Min(b.X2, other.X2) - math32.Max(b.X1, other.X1)
	h := math32.Min(b.Y2, other.Y2) - math32.Max(b.Y1, other.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Union calculates the combined area covered by two boxes.
//
// Area(A) + Area(B) - Intersection(A, B).
func (b Box) Union(other Box) float32 {
	return b.Area() + other.Area() - b.Intersection(other)
}

// IoU calculates the Intersection over Union between two boxes.
//
// This is the overlap metric used by deduplication. Boxes with a zero union
// (both degenerate) have an IoU of 0.
//
// Arguments:
// - other: The other box to compare against.
//
// Returns:
// - The IoU value between 0 and 1.
//
// @example
// a := Box{X1: 0, Y1: 0, X2: 100, Y2: 100}
// b := Box{X1: 50, Y1: 50, X2: 150, Y2: 150}
// iou := a.IoU(b) // ~0.143 (2500/17500)
func (b Box) IoU(other Box) float32 {
	union := b.Union(other)
	if union <= 0 {
		return 0
	}
	return b.Intersection(other) / union
}

// Translate shifts the box by (dx, dy).
func (b Box) Translate(dx, dy float32) Box {
	return Box{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// Clamp restricts the box to [0,width] x [0,height]. The result may be
// degenerate when the box lies entirely outside the frame.
func (b Box) Clamp(width, height float32) Box {
	return Box{
		X1: clamp(b.X1, 0, width),
		Y1: clamp(b.Y1, 0, height),
		X2: clamp(b.X2, 0, width),
		Y2: clamp(b.Y2, 0, height),
	}
}

// ToRect converts the box to an image.Rectangle.
//
// This loses fractional pixels around the edges, which is fine for cropping and
// drawing.
func (b Box) ToRect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)).Canon()
}

// MarshalJSON encodes the box as [x1, y1, x2, y2].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float32{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON decodes a box from [x1, y1, x2, y2].
func (b *Box) UnmarshalJSON(data []byte) error {
	var corners [4]float32
	if err := json.Unmarshal(data, &corners); err != nil {
		return err
	}
	*b = Box{X1: corners[0], Y1: corners[1], X2: corners[2], Y2: corners[3]}
	return nil
}

func (b Box) String() string {
	return fmt.Sprintf("(%.1f, %.1f), (%.1f, %.1f)", b.X1, b.Y1, b.X2, b.Y2)
}

// BoundingBox is a raw detector output: a box, the model's own label and its
// confidence. The label has not been canonicalized.
type BoundingBox struct {
	Box
	Label      string
	Confidence float32
}

func (b *BoundingBox) String() string {
	return fmt.Sprintf("Object %s (confidence %f): %s", b.Label, b.Confidence, b.Box)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}
