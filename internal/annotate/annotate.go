// Package annotate draws the measurement overlay onto preview frames.
package annotate

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/GriffinCanCode/swatchqc/internal/consistency"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
	"github.com/GriffinCanCode/swatchqc/internal/pipeline"
	"github.com/GriffinCanCode/swatchqc/internal/roi"
)

// Overlay styling
const (
	BoxThickness = 4
	labelOffset  = 5
	bannerPrefix = "Result: "
)

var (
	// BannerOrigin is the text baseline of the result banner
	BannerOrigin = image.Pt(20, 40)

	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Annotator draws ROI boxes, their 1-based labels and the result banner.
type Annotator struct {
	ROISize int
	Face    font.Face
}

// New creates an annotator for regions of side roiSize.
func New(roiSize int) *Annotator {
	if roiSize <= 0 {
		roiSize = roi.DefaultSize
	}
	return &Annotator{ROISize: roiSize, Face: basicfont.Face7x13}
}

// Frame returns an annotated copy of f using the default region size.
func Frame(f *frame.Frame, s pipeline.Snapshot) *frame.Frame {
	return New(roi.DefaultSize).Frame(f, s)
}

// Frame returns an annotated copy of f. f is not modified.
func (a *Annotator) Frame(f *frame.Frame, s pipeline.Snapshot) *frame.Frame {
	out := frame.FromImage(a.Image(f, s))
	if f != nil {
		out.Seq, out.Timestamp = f.Seq, f.Timestamp
	}
	return out
}

// Image renders the annotated frame as an RGBA image, ready for encoding.
// A nil or malformed frame yields an unannotated blank image.
func (a *Annotator) Image(f *frame.Frame, s pipeline.Snapshot) *image.RGBA {
	if !f.Valid() {
		return image.NewRGBA(f.Bounds())
	}
	img := f.ToRGBA()

	for i, r := range roi.Rects(f.Width, f.Height, a.ROISize) {
		if r.Empty() {
			continue
		}
		a.box(img, r, Green)
		a.text(img, strconv.Itoa(i+1), image.Pt(r.Min.X, r.Min.Y-labelOffset), Green)
	}

	if s.Status != "" {
		banner := Red
		if s.Status == consistency.StatusPass {
			banner = Green
		}
		a.text(img, bannerPrefix+s.Status, BannerOrigin, banner)
	}
	return img
}

// box strokes the inside edge of r.
func (a *Annotator) box(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	t := min(BoxThickness, r.Dx(), r.Dy())
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(img, edge, src, image.Point{}, draw.Src)
	}
}

// text draws s with its baseline starting at dot.
func (a *Annotator) text(img *image.RGBA, s string, dot image.Point, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: a.Face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
}
