package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
	"github.com/GriffinCanCode/swatchqc/internal/consistency"
	"github.com/GriffinCanCode/swatchqc/internal/dominant"
	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
	"github.com/GriffinCanCode/swatchqc/internal/roi"
)

type rgb8 struct{ r, g, b uint8 }

// quadrants builds a 640x480 frame with one solid color per quadrant.
func quadrants(colors [roi.Count]rgb8) *frame.Frame {
	f := frame.New(640, 480)
	for i, r := range []image.Rectangle{
		image.Rect(0, 0, 320, 240),
		image.Rect(320, 0, 640, 240),
		image.Rect(0, 240, 320, 480),
		image.Rect(320, 240, 640, 480),
	} {
		f.Fill(r, colors[i].r, colors[i].g, colors[i].b)
	}
	return f
}

type mockSource struct {
	mu     sync.Mutex
	frames []*frame.Frame
	calls  int
}

func (m *mockSource) NextFrame(_ context.Context) (*frame.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.frames) == 0 {
		return nil, false
	}
	f := m.frames[0]
	m.frames = m.frames[1:]
	return f, true
}

func TestSnapshotUnavailableBeforeFirstFrame(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())

	if _, ok := p.Snapshot(); ok {
		t.Error("Snapshot() ok = true before any frame")
	}
	if p.Ready() {
		t.Error("Ready() = true before any frame")
	}
}

func TestProcessAllMatch(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	red := rgb8{200, 40, 40}

	var snap Snapshot
	for i := 0; i < 10; i++ {
		snap = p.Process(quadrants([roi.Count]rgb8{red, red, red, red}))
	}

	if snap.Status != consistency.StatusPass || snap.Message != "All 4 Match" {
		t.Errorf("status = %q %q, want PASS", snap.Status, snap.Message)
	}
	if diff := cmp.Diff([]string{"#c82828", "#c82828", "#c82828", "#c82828"}, snap.Hexes()); diff != "" {
		t.Errorf("Hexes mismatch (-want +got):\n%s", diff)
	}
	want := colorspace.RGB{R: 200, G: 40, B: 40}
	for i, r := range snap.Regions {
		if r.RGB != want {
			t.Errorf("region %d = %v, want %v", i, r.RGB, want)
		}
	}
	if snap.Seq != 10 {
		t.Errorf("Seq = %d, want 10", snap.Seq)
	}
	if diff := cmp.Diff([]string{"Reference", "100.0%", "100.0%", "100.0%"}, snap.SimilarityLabels()); diff != "" {
		t.Errorf("SimilarityLabels mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessMixedPairs(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	red, blue := rgb8{200, 40, 40}, rgb8{40, 40, 200}

	snap := p.Process(quadrants([roi.Count]rgb8{red, red, blue, blue}))

	want := Snapshot{
		Seq:      1,
		Groups:   []consistency.Group{{0, 1}, {2, 3}},
		Status:   consistency.StatusMixed,
		Message:  "Similar: [1+2], [3+4]",
		Lighting: DefaultLighting,
	}
	opts := cmpopts.IgnoreFields(Snapshot{}, "Timestamp", "Regions", "MaxDeltaE", "Similarity")
	if diff := cmp.Diff(want, snap, opts); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
	if snap.MaxDeltaE <= consistency.DefaultThreshold {
		t.Errorf("MaxDeltaE = %v, want > threshold", snap.MaxDeltaE)
	}
	if snap.Similarity[1] != 100 || snap.Similarity[2] >= snap.Similarity[1] {
		t.Errorf("Similarity = %v", snap.Similarity)
	}
}

func TestProcessAllDifferent(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	snap := p.Process(quadrants([roi.Count]rgb8{{220, 30, 30}, {30, 200, 30}, {30, 30, 220}, {220, 220, 30}}))

	if snap.Status != consistency.StatusFail || len(snap.Groups) != 4 {
		t.Errorf("status = %q groups = %v, want FAIL with 4 groups", snap.Status, snap.Groups)
	}
}

func TestProcessSmoothsAcrossFrames(t *testing.T) {
	opts := DefaultOptions()
	opts.HistoryLen = 2
	p := New(&mockSource{}, opts)
	a, b := rgb8{100, 40, 40}, rgb8{120, 60, 40}

	p.Process(quadrants([roi.Count]rgb8{a, a, a, a}))
	snap := p.Process(quadrants([roi.Count]rgb8{b, b, b, b}))

	if want := (colorspace.RGB{R: 110, G: 50, B: 40}); snap.Regions[0].RGB != want {
		t.Errorf("smoothed = %v, want %v", snap.Regions[0].RGB, want)
	}
}

func TestProcessDegenerateFrame(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	snap := p.Process(&frame.Frame{})

	for i, r := range snap.Regions {
		if r.RGB != colorspace.Black || r.Hex != "#000000" {
			t.Errorf("region %d = %v, want black", i, r.RGB)
		}
	}
	if snap.Status != consistency.StatusPass {
		t.Errorf("Status = %q, want PASS for identical black regions", snap.Status)
	}
}

func TestSequentialMatchesConcurrent(t *testing.T) {
	seq := DefaultOptions()
	seq.Concurrent = false
	a, b := New(&mockSource{}, seq), New(&mockSource{}, DefaultOptions())

	f := quadrants([roi.Count]rgb8{{200, 40, 40}, {201, 41, 40}, {40, 40, 200}, {90, 160, 60}})
	f.Timestamp = time.Unix(1700000000, 0)

	if diff := cmp.Diff(a.Process(f), b.Process(f)); diff != "" {
		t.Errorf("sequential vs concurrent (-seq +conc):\n%s", diff)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	red := rgb8{200, 40, 40}
	p.Process(quadrants([roi.Count]rgb8{red, red, red, red}))

	s1, _ := p.Snapshot()
	s1.Groups[0][0] = 3
	s1.Status = "tampered"

	s2, _ := p.Snapshot()
	if diff := cmp.Diff([]consistency.Group{{0, 1, 2, 3}}, s2.Groups); diff != "" {
		t.Errorf("published snapshot mutated (-want +got):\n%s", diff)
	}
	if s2.Status != consistency.StatusPass {
		t.Errorf("Status = %q after reader mutation", s2.Status)
	}
}

func TestSetLightingMode(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	if p.Lighting() != DefaultLighting {
		t.Fatalf("Lighting() = %q, want %q", p.Lighting(), DefaultLighting)
	}

	if err := p.SetLightingMode("  "); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("SetLightingMode(blank) error = %v, want INVALID_ARGUMENT", err)
	}
	if err := p.SetLightingMode("TL84"); err != nil {
		t.Fatalf("SetLightingMode() error = %v", err)
	}

	red := rgb8{200, 40, 40}
	snap := p.Process(quadrants([roi.Count]rgb8{red, red, red, red}))
	if snap.Lighting != "TL84" {
		t.Errorf("snapshot Lighting = %q, want TL84", snap.Lighting)
	}
}

func TestRunPublishesAndStops(t *testing.T) {
	red := rgb8{200, 40, 40}
	src := &mockSource{frames: []*frame.Frame{
		quadrants([roi.Count]rgb8{red, red, red, red}),
		quadrants([roi.Count]rgb8{red, red, red, red}),
	}}
	opts := DefaultOptions()
	opts.IdleInterval = time.Millisecond
	p := New(src, opts)

	ctx, cancel := context.WithCancel(context.Background())
	changed := p.Changed()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}
	if _, ok := p.Snapshot(); !ok {
		t.Error("Snapshot() ok = false after publication")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunSkipsMissingFrames(t *testing.T) {
	src := &mockSource{}
	opts := DefaultOptions()
	opts.IdleInterval = time.Millisecond
	p := New(src, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	if p.Ready() {
		t.Error("snapshot published without frames")
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls < 2 {
		t.Errorf("source polled %d times, want repeated polling", src.calls)
	}
}

func TestLatestPairsFrameAndSnapshot(t *testing.T) {
	p := New(&mockSource{}, DefaultOptions())
	red := rgb8{200, 40, 40}
	f := quadrants([roi.Count]rgb8{red, red, red, red})
	p.Process(f)

	c, ok := p.Latest()
	if !ok {
		t.Fatal("Latest() ok = false")
	}
	if c.Frame != f || c.Snapshot.Seq != 1 {
		t.Errorf("Latest() = frame %p seq %d, want %p seq 1", c.Frame, c.Snapshot.Seq, f)
	}
}

func TestMaxDeltaERounded(t *testing.T) {
	if got := (Snapshot{MaxDeltaE: 12.3456}).MaxDeltaERounded(); got != 12.35 {
		t.Errorf("MaxDeltaERounded() = %v, want 12.35", got)
	}
}

func TestDefaultExtractorMatchesFrameDepth(t *testing.T) {
	got := DefaultOptions().Extractor
	if got.LightnessMin != dominant.LightnessMin || got.LightnessMax != dominant.LightnessMax || got.MinSpread != dominant.MinSpread {
		t.Errorf("default extractor thresholds = %+v, want the %d-bit constants", got, frame.BitsPerChannel)
	}
}
