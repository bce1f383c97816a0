package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
	"github.com/GriffinCanCode/swatchqc/internal/consistency"
	"github.com/GriffinCanCode/swatchqc/internal/dominant"
	"github.com/GriffinCanCode/swatchqc/internal/roi"
)

// Region is one sampled region's smoothed color.
type Region struct {
	Index int
	RGB   colorspace.RGB
	Lab   colorspace.Lab
	Hex   string
	// Method is how this frame's raw sample was extracted
	Method dominant.Method
}

// Snapshot is the published outcome of one processed frame. Values handed to
// readers are copies; mutating one never affects the pipeline.
type Snapshot struct {
	Seq       uint64
	Timestamp time.Time
	Regions   [roi.Count]Region
	Groups    []consistency.Group
	Status    string
	Message   string
	// MaxDeltaE is the largest CIEDE2000 distance over all region pairs
	MaxDeltaE float64
	Lighting  string
	// Similarity is each region's similarity to region 0, in percent
	Similarity [roi.Count]float64
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Groups != nil {
		out.Groups = make([]consistency.Group, len(s.Groups))
		for i, g := range s.Groups {
			out.Groups[i] = append(consistency.Group(nil), g...)
		}
	}
	return out
}

// MaxDeltaERounded is MaxDeltaE rounded to 2 decimals for display.
func (s Snapshot) MaxDeltaERounded() float64 {
	return math.Round(s.MaxDeltaE*100) / 100
}

// Hexes returns the region colors as "#rrggbb".
func (s Snapshot) Hexes() []string {
	out := make([]string, len(s.Regions))
	for i, r := range s.Regions {
		out[i] = r.Hex
	}
	return out
}

// SimilarityLabels renders Similarity for display, with region 0 as the
// reference.
func (s Snapshot) SimilarityLabels() []string {
	out := make([]string, len(s.Similarity))
	for i := range s.Similarity {
		if i == 0 {
			out[i] = ReferenceLabel
			continue
		}
		out[i] = fmt.Sprintf("%.1f%%", s.Similarity[i])
	}
	return out
}
