// Package smoothing damps per-frame jitter by averaging a bounded window of
// recent samples per region.
package smoothing

import (
	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
	"gonum.org/v1/gonum/stat"
)

// DefaultCapacity is the number of samples kept per region.
const DefaultCapacity = 10

// History is a bounded FIFO of color samples. Pushing past capacity evicts
// the oldest sample. Not safe for concurrent use.
type History struct {
	buf  []colorspace.RGB
	head int // index of the oldest sample once full
	full bool

	// scratch columns for Mean
	r, g, b []float64
}

// NewHistory creates an empty history holding up to capacity samples.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		buf: make([]colorspace.RGB, 0, capacity),
		r:   make([]float64, 0, capacity),
		g:   make([]float64, 0, capacity),
		b:   make([]float64, 0, capacity),
	}
}

// Cap returns the capacity.
func (h *History) Cap() int { return cap(h.buf) }

// Len returns the number of samples held.
func (h *History) Len() int { return len(h.buf) }

// Push appends c, evicting the oldest sample when full.
func (h *History) Push(c colorspace.RGB) {
	if !h.full {
		h.buf = append(h.buf, c)
		h.full = len(h.buf) == cap(h.buf)
		return
	}
	h.buf[h.head] = c
	h.head = (h.head + 1) % len(h.buf)
}

// Samples returns the held samples, oldest first.
func (h *History) Samples() []colorspace.RGB {
	out := make([]colorspace.RGB, 0, len(h.buf))
	out = append(out, h.buf[h.head:]...)
	return append(out, h.buf[:h.head]...)
}

// Mean returns the component-wise arithmetic mean, or black when empty.
func (h *History) Mean() colorspace.RGB {
	if len(h.buf) == 0 {
		return colorspace.Black
	}
	h.r, h.g, h.b = h.r[:0], h.g[:0], h.b[:0]
	for _, c := range h.buf {
		h.r = append(h.r, c.R)
		h.g = append(h.g, c.G)
		h.b = append(h.b, c.B)
	}
	return colorspace.RGB{R: stat.Mean(h.r, nil), G: stat.Mean(h.g, nil), B: stat.Mean(h.b, nil)}
}
