package smoothing

import "github.com/GriffinCanCode/swatchqc/internal/colorspace"

// Smoother keeps one History per region for the lifetime of the process.
// Histories are never cleared; they fill, then slide. Not safe for
// concurrent use; the owner serializes access.
type Smoother struct {
	histories []*History
}

// NewSmoother creates regions histories of the given capacity.
func NewSmoother(regions, capacity int) *Smoother {
	s := &Smoother{histories: make([]*History, regions)}
	for i := range s.histories {
		s.histories[i] = NewHistory(capacity)
	}
	return s
}

// Regions returns the number of histories.
func (s *Smoother) Regions() int { return len(s.histories) }

// Update appends one raw sample per region and returns the smoothed colors.
// Missing trailing samples leave their histories untouched.
func (s *Smoother) Update(raw []colorspace.RGB) []colorspace.RGB {
	out := make([]colorspace.RGB, len(s.histories))
	for i, h := range s.histories {
		if i < len(raw) {
			h.Push(raw[i])
		}
		out[i] = h.Mean()
	}
	return out
}

// History returns region i's history.
func (s *Smoother) History(i int) *History { return s.histories[i] }
