// Package frame defines the video frame exchanged between sources and the pipeline.
package frame

import (
	"image"
	"image/color"
	"image/draw"
	"time"
)

// Channels is the number of bytes per pixel in Pix.
const Channels = 3

// BitsPerChannel is the sample depth of Pix.
const BitsPerChannel = 8

// Frame is a decoded video frame in row-major, 8-bit RGB order.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the source
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	Width     int
	Height    int
	// Pix holds Width*Height*3 bytes, R G B per pixel
	Pix []byte
}

// New allocates a black frame.
func New(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{Width: width, Height: height, Pix: make([]byte, width*height*Channels)}
}

// Valid reports whether Pix matches the frame dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*Channels
}

// Bounds returns the frame rectangle anchored at the origin. A nil frame
// has empty bounds.
func (f *Frame) Bounds() image.Rectangle {
	if f == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, f.Width, f.Height)
}

// At returns the pixel at (x, y). Callers must stay within Bounds.
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the pixel at (x, y). Callers must stay within Bounds.
func (f *Frame) Set(x, y int, r, g, b uint8) {
	i := (y*f.Width + x) * Channels
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// Fill paints rect (clipped to the frame) with a solid color.
func (f *Frame) Fill(rect image.Rectangle, r, g, b uint8) {
	rect = rect.Intersect(f.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			f.Set(x, y, r, g, b)
		}
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Pix = append([]byte(nil), f.Pix...)
	return &c
}

// ToRGBA converts the frame to an image for drawing and encoding.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	if !f.Valid() {
		return img
	}
	for i, j := 0, 0; i < len(f.Pix); i, j = i+Channels, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// FromImage converts any image to a frame, dropping alpha.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	f := New(b.Dx(), b.Dy())
	for i, j := 0, 0; i < len(f.Pix); i, j = i+Channels, j+4 {
		f.Pix[i] = rgba.Pix[j]
		f.Pix[i+1] = rgba.Pix[j+1]
		f.Pix[i+2] = rgba.Pix[j+2]
	}
	return f
}

// RGBAt returns the pixel at (x, y) as a color.RGBA.
func (f *Frame) RGBAt(x, y int) color.RGBA {
	r, g, b := f.At(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
