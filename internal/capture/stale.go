package capture

import (
	"log/slog"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/swatchqc/internal/frame"
)

// StaleDetector flags frames whose perceptual hash is within a Hamming
// distance of the previous frame, which is how a frozen camera shows up.
// Not safe for concurrent use.
type StaleDetector struct {
	maxDistance int
	lastHash    *goimagehash.ImageHash
}

// NewStaleDetector creates a detector. A negative maxDistance disables it.
func NewStaleDetector(maxDistance int) *StaleDetector {
	return &StaleDetector{maxDistance: maxDistance}
}

// Enabled reports whether the detector hashes frames at all.
func (d *StaleDetector) Enabled() bool { return d.maxDistance >= 0 }

// Observe hashes f and reports whether it repeats the previous frame.
func (d *StaleDetector) Observe(f *frame.Frame) bool {
	if !d.Enabled() || !f.Valid() {
		return false
	}

	hash, err := goimagehash.PerceptionHash(f.ToRGBA())
	if err != nil {
		return false
	}
	if d.lastHash == nil {
		d.lastHash = hash
		return false
	}

	dist, err := d.lastHash.Distance(hash)
	d.lastHash = hash
	if err != nil {
		return false
	}
	if dist <= d.maxDistance {
		slog.Debug("repeated frame", "seq", f.Seq, "distance", dist)
		return true
	}
	return false
}

// Reset forgets the previous frame.
func (d *StaleDetector) Reset() { d.lastHash = nil }
