// Package pipeline runs the measurement loop and publishes one snapshot per
// processed frame.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/swatchqc/internal/consistency"
	"github.com/GriffinCanCode/swatchqc/internal/dominant"
	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
	"github.com/GriffinCanCode/swatchqc/internal/roi"
	"github.com/GriffinCanCode/swatchqc/internal/smoothing"
	"github.com/GriffinCanCode/swatchqc/internal/syncx"
	"github.com/GriffinCanCode/swatchqc/internal/trace"
)

// Source yields frames. ok is false when no frame is available right now.
type Source interface {
	NextFrame(ctx context.Context) (f *frame.Frame, ok bool)
}

// Options configures a Pipeline.
type Options struct {
	ROISize      int
	HistoryLen   int
	Threshold    float64
	IdleInterval time.Duration
	Lighting     string
	// Concurrent extracts the four regions in parallel
	Concurrent bool
	Extractor  dominant.Config
}

// DefaultOptions returns the stock measurement settings.
func DefaultOptions() Options {
	return Options{
		ROISize:      roi.DefaultSize,
		HistoryLen:   smoothing.DefaultCapacity,
		Threshold:    consistency.DefaultThreshold,
		IdleInterval: DefaultIdleInterval,
		Lighting:     DefaultLighting,
		Concurrent:   true,
		Extractor:    dominant.DefaultConfig().ScaledForDepth(frame.BitsPerChannel),
	}
}

// Capture pairs a processed frame with the snapshot computed from it.
type Capture struct {
	Frame    *frame.Frame
	Snapshot Snapshot
}

// Pipeline owns the State and publishes snapshots for concurrent readers.
type Pipeline struct {
	opts      Options
	src       Source
	extractor *dominant.Extractor
	state     *State
	lighting  *syncx.Guard[string]
	latest    *syncx.Latest[Capture]
}

// New creates a pipeline reading from src.
func New(src Source, opts Options) *Pipeline {
	if opts.ROISize <= 0 {
		opts.ROISize = roi.DefaultSize
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if strings.TrimSpace(opts.Lighting) == "" {
		opts.Lighting = DefaultLighting
	}
	return &Pipeline{
		opts:      opts,
		src:       src,
		extractor: dominant.New(opts.Extractor),
		state:     NewState(opts.HistoryLen, opts.Threshold),
		lighting:  syncx.NewGuard(opts.Lighting),
		latest:    syncx.NewLatest[Capture](),
	}
}

// Run processes frames until ctx is cancelled. Cancellation is observed
// between frames.
func (p *Pipeline) Run(ctx context.Context) error {
	idle := time.NewTimer(p.opts.IdleInterval)
	idle.Stop()
	defer idle.Stop()

	var lastStatus string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, ok := p.src.NextFrame(ctx)
		if !ok || f == nil {
			idle.Reset(p.opts.IdleInterval)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-idle.C:
			}
			continue
		}

		snap := p.Process(f)
		if snap.Status != lastStatus {
			trace.Logger(ctx).Info("consistency status changed",
				"from", lastStatus, "to", snap.Status,
				"message", snap.Message, "max_delta_e", snap.MaxDeltaERounded(), "seq", snap.Seq)
			lastStatus = snap.Status
		}
	}
}

// Process runs one frame through the pipeline and publishes the result.
func (p *Pipeline) Process(f *frame.Frame) Snapshot {
	blocks := roi.Sample(f, p.opts.ROISize)

	var raw [roi.Count]dominant.Result
	if p.opts.Concurrent {
		var wg sync.WaitGroup
		for i := range blocks {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				raw[i] = p.extractor.Extract(blocks[i])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range blocks {
			raw[i] = p.extractor.Extract(blocks[i])
		}
	}

	ts := time.Now()
	if f != nil && !f.Timestamp.IsZero() {
		ts = f.Timestamp
	}
	snap := p.state.Aggregate(raw, ts, p.Lighting())
	p.latest.Store(&Capture{Frame: f, Snapshot: *snap})
	return snap.Clone()
}

// Snapshot returns a copy of the latest snapshot. ok is false until the first
// frame has been processed.
func (p *Pipeline) Snapshot() (Snapshot, bool) {
	c := p.latest.Load()
	if c == nil {
		return Snapshot{}, false
	}
	return c.Snapshot.Clone(), true
}

// Latest returns the latest frame and its snapshot. The frame is shared and
// must be treated as read-only.
func (p *Pipeline) Latest() (Capture, bool) {
	c := p.latest.Load()
	if c == nil {
		return Capture{}, false
	}
	return Capture{Frame: c.Frame, Snapshot: c.Snapshot.Clone()}, true
}

// Changed returns a channel closed when the next snapshot is published.
func (p *Pipeline) Changed() <-chan struct{} {
	return p.latest.Changed()
}

// Ready reports whether a snapshot exists.
func (p *Pipeline) Ready() bool {
	return p.latest.Version() > 0
}

// SetLightingMode stores a descriptive lighting label. It shows up in the
// next snapshot and never affects the color math.
func (p *Pipeline) SetLightingMode(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "lighting label must not be empty")
	}
	p.lighting.Set(label)
	return nil
}

// Lighting returns the current lighting label.
func (p *Pipeline) Lighting() string {
	return p.lighting.Get()
}
