package pipeline

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
	"github.com/GriffinCanCode/swatchqc/internal/consistency"
	"github.com/GriffinCanCode/swatchqc/internal/dominant"
	"github.com/GriffinCanCode/swatchqc/internal/roi"
	"github.com/GriffinCanCode/swatchqc/internal/smoothing"
)

// State owns the long-lived measurement state: the per-region histories and
// the sequence counter. It is created once and only the pipeline mutates it.
type State struct {
	mu        sync.Mutex
	smoother  *smoothing.Smoother
	threshold float64
	seq       uint64
}

// NewState creates empty histories of historyLen samples per region.
func NewState(historyLen int, threshold float64) *State {
	if threshold <= 0 {
		threshold = consistency.DefaultThreshold
	}
	return &State{
		smoother:  smoothing.NewSmoother(roi.Count, historyLen),
		threshold: threshold,
	}
}

// Aggregate folds one frame's raw samples into the histories and builds the
// resulting snapshot. The lock covers smoothing, grouping and aggregation.
func (s *State) Aggregate(raw [roi.Count]dominant.Result, ts time.Time, lighting string) *Snapshot {
	samples := make([]colorspace.RGB, roi.Count)
	for i, r := range raw {
		samples[i] = r.Color
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	smoothed := s.smoother.Update(samples)
	labs := make([]colorspace.Lab, roi.Count)
	for i, c := range smoothed {
		labs[i] = colorspace.ToLab(c)
	}
	res := consistency.Evaluate(labs, s.threshold)

	s.seq++
	snap := &Snapshot{
		Seq:       s.seq,
		Timestamp: ts,
		Groups:    res.Groups,
		Status:    res.Status,
		Message:   res.Message,
		MaxDeltaE: res.MaxDeltaE,
		Lighting:  lighting,
	}
	for i := range snap.Regions {
		snap.Regions[i] = Region{
			Index:  i,
			RGB:    smoothed[i],
			Lab:    labs[i],
			Hex:    smoothed[i].Hex(),
			Method: raw[i].Method,
		}
		snap.Similarity[i] = consistency.Similarity(res.Distances[0][i])
	}
	return snap
}

// Seq returns the number of aggregated frames.
func (s *State) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
