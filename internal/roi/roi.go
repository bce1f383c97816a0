// Package roi computes the four fixed sampling regions of a frame and
// flattens their pixels.
package roi

import (
	"image"

	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
)

// Count is the number of regions sampled per frame.
const Count = 4

// DefaultSize is the side length of each region in pixels.
const DefaultSize = 160

// centers are the region centers as fractions of width and height, in
// index order: top-left, top-right, bottom-left, bottom-right.
var centers = [Count][2]float64{
	{0.25, 0.25},
	{0.75, 0.25},
	{0.25, 0.75},
	{0.75, 0.75},
}

// Rects returns the four region rectangles for a width x height frame, each
// of side size centered on its grid point and clamped to the frame. A region
// may be smaller than size near an edge, and empty when the frame is.
func Rects(width, height, size int) [Count]image.Rectangle {
	var out [Count]image.Rectangle
	bounds := image.Rect(0, 0, max(width, 0), max(height, 0))
	half := size / 2

	for i, c := range centers {
		cx := int(float64(width) * c[0])
		cy := int(float64(height) * c[1])
		out[i] = image.Rect(cx-half, cy-half, cx+half, cy+half).Intersect(bounds)
	}
	return out
}

// Block flattens the pixels of rect into RGB samples. Invalid frames and
// empty rectangles yield no pixels.
func Block(f *frame.Frame, rect image.Rectangle) []colorspace.RGB {
	if !f.Valid() {
		return nil
	}
	rect = rect.Intersect(f.Bounds())
	if rect.Empty() {
		return nil
	}

	px := make([]colorspace.RGB, 0, rect.Dx()*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := (y*f.Width + rect.Min.X) * frame.Channels
		for x := rect.Min.X; x < rect.Max.X; x++ {
			px = append(px, colorspace.RGB{
				R: float64(f.Pix[row]),
				G: float64(f.Pix[row+1]),
				B: float64(f.Pix[row+2]),
			})
			row += frame.Channels
		}
	}
	return px
}

// Sample returns the four pixel blocks of f.
func Sample(f *frame.Frame, size int) [Count][]colorspace.RGB {
	var blocks [Count][]colorspace.RGB
	if f == nil {
		return blocks
	}
	for i, r := range Rects(f.Width, f.Height, size) {
		blocks[i] = Block(f, r)
	}
	return blocks
}
