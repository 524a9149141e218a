package pipeline

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-behavior/common"
	"github.com/nvr-ai/go-behavior/images"
)

// RegionProposer expands driver boxes into crop regions likely to contain the
// hands and the objects they hold.
type RegionProposer struct {
	margins Margins
}

// NewRegionProposer creates a proposer with the given margins.
func NewRegionProposer(margins Margins) *RegionProposer {
	return &RegionProposer{margins: margins}
}

// Propose builds the crop region of a driver box.
//
// Arguments:
//   - box: The driver box in frame coordinates.
//   - frameWidth: The frame width in pixels.
//   - frameHeight: The frame height in pixels.
//
// Returns:
//   - images.Rect: The region clamped to the frame.
//   - bool: False when the clamped region is degenerate.
//
// @example
// p := NewRegionProposer(DefaultMargins())
// r, ok := p.Propose(common.NewBox(100, 100, 200, 400), 640, 480)
// // r == {70, 25, 230, 480}, ok == true
func (p *RegionProposer) Propose(box common.Box, frameWidth, frameHeight int) (images.Rect, bool) {
	w, h := box.Width(), box.Height()
	if w <= 0 || h <= 0 {
		return images.Rect{}, false
	}

	mx := margin(p.margins.Horizontal, w)
	top := margin(p.margins.Top, h)
	bottom := margin(p.margins.Bottom, h)

	region := images.Rect{
		X1: int(math32.Floor(box.X1)) - mx,
		Y1: int(math32.Floor(box.Y1)) - top,
		X2: int(math32.Ceil(box.X2)) + mx,
		Y2: int(math32.Ceil(box.Y2)) + bottom,
	}.Clamp(frameWidth, frameHeight)

	if region.Empty() {
		return images.Rect{}, false
	}
	return region, true
}

// margin rounds fraction*size to the nearest pixel.
func margin(fraction, size float32) int {
	return int(math32.Floor(fraction*size + 0.5))
}
