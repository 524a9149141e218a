// Package annotate - Drawing detections onto frames.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// DefaultColor is used for classes missing from the palette.
var DefaultColor color.Color = color.RGBA{G: 255, A: 255}

// Palette assigns every class a color evenly spaced in hue.
type Palette struct {
	colors map[int]color.Color
}

// NewPalette builds the palette of classes. Class i of n gets hue i/n at
// saturation 0.8 and value 0.9.
func NewPalette(classes []models.Class) *Palette {
	p := &Palette{colors: make(map[int]color.Color, len(classes))}
	n := float64(len(classes))
	for i, c := range classes {
		p.colors[c.ID] = colorful.Hsv(360*float64(i)/n, 0.8, 0.9).Clamped()
	}
	return p
}

// Color returns the color of a class id.
func (p *Palette) Color(classID int) color.Color {
	if c, ok := p.colors[classID]; ok {
		return c
	}
	return DefaultColor
}

// Options tunes the drawing.
type Options struct {
	// LineWidth is the box stroke width in pixels.
	LineWidth float64 `json:"line_width" yaml:"line_width"`
	// FontSize is the label size in points.
	FontSize float64 `json:"font_size" yaml:"font_size"`
	// Padding surrounds the label text inside its background.
	Padding float64 `json:"padding" yaml:"padding"`
}

// DefaultOptions returns the default drawing options.
func DefaultOptions() Options {
	return Options{LineWidth: 2, FontSize: 14, Padding: 3}
}

// Annotator draws detection boxes and labels. It is safe for concurrent use.
type Annotator struct {
	palette *Palette
	options Options
}

// New creates an annotator coloring the given classes.
func New(classes []models.Class, options Options) *Annotator {
	return &Annotator{palette: NewPalette(classes), options: options}
}

// Annotate draws every detection onto a copy of img: the box outline, a
// filled label background above it and "Class: 0.87" in white.
//
// Arguments:
//   - img: The frame. It is not modified.
//   - detections: Detections in frame coordinates.
//
// Returns:
//   - image.Image: The annotated copy, or img itself when there are no
//     detections.
//   - error: If img is empty.
func (a *Annotator) Annotate(img image.Image, detections []postprocess.Detection) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("cannot annotate an empty image")
	}
	if len(detections) == 0 {
		return img, nil
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: a.options.FontSize}))

	for _, d := range detections {
		c := a.palette.Color(d.ClassID)
		r := d.Box.ToRect()
		x1, y1 := float64(r.Min.X), float64(r.Min.Y)
		w, h := float64(r.Dx()), float64(r.Dy())

		dc.SetColor(c)
		dc.SetLineWidth(a.options.LineWidth)
		dc.DrawRectangle(x1, y1, w, h)
		dc.Stroke()

		label := fmt.Sprintf("%s: %.2f", d.ClassName, d.Confidence)
		tw, th := dc.MeasureString(label)
		pad := a.options.Padding

		top := y1 - th - 2*pad
		if top < 0 {
			top = y1
		}

		dc.SetColor(c)
		dc.DrawRectangle(x1, top, tw+2*pad, th+2*pad)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawStringAnchored(label, x1+pad, top+pad, 0, 1)
	}

	return dc.Image(), nil
}
