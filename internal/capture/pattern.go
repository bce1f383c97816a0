package capture

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
	"github.com/GriffinCanCode/swatchqc/internal/roi"
)

// PatternConfig describes a synthetic frame: one solid color per quadrant,
// in region order, with optional uniform noise.
type PatternConfig struct {
	Colors [roi.Count]colorful.Color
	Noise  int
	Width  int
	Height int
	Seed   uint64
}

// ParsePattern parses "pattern:#rrggbb,#rrggbb,#rrggbb,#rrggbb[?noise=N&size=WxH&seed=S]".
func ParsePattern(spec string) (PatternConfig, error) {
	cfg := PatternConfig{Width: DefaultWidth, Height: DefaultHeight, Seed: 1}
	body, ok := strings.CutPrefix(spec, PatternScheme)
	if !ok {
		return cfg, invalidPattern(spec, "missing %q prefix", PatternScheme)
	}

	colors, query, _ := strings.Cut(body, "?")
	parts := strings.Split(colors, ",")
	if len(parts) != roi.Count {
		return cfg, invalidPattern(spec, "want %d colors, got %d", roi.Count, len(parts))
	}
	for i, p := range parts {
		c, err := colorful.Hex(strings.TrimSpace(p))
		if err != nil {
			return cfg, invalidPattern(spec, "color %d: %v", i+1, err)
		}
		cfg.Colors[i] = c
	}

	q, err := url.ParseQuery(query)
	if err != nil {
		return cfg, invalidPattern(spec, "query: %v", err)
	}
	if v := q.Get("noise"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxPatternNoise {
			return cfg, invalidPattern(spec, "noise must be 0..%d", maxPatternNoise)
		}
		cfg.Noise = n
	}
	if v := q.Get("size"); v != "" {
		w, h, ok := parseSize(v)
		if !ok {
			return cfg, invalidPattern(spec, "size must be WxH with sides in 1..%d", maxPatternSide)
		}
		cfg.Width, cfg.Height = w, h
	}
	if v := q.Get("seed"); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, invalidPattern(spec, "seed: %v", err)
		}
		cfg.Seed = s
	}
	return cfg, nil
}

func parseSize(v string) (int, int, bool) {
	ws, hs, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 || w > maxPatternSide || h > maxPatternSide {
		return 0, 0, false
	}
	return w, h, true
}

func invalidPattern(spec, format string, args ...any) error {
	return apperrors.Newf(apperrors.CodeInvalidArgument, "pattern: "+format, args...).
		WithMetadata("spec", spec)
}

// Pattern renders a PatternConfig at a fixed rate.
type Pattern struct {
	cfg   PatternConfig
	base  *frame.Frame
	rng   *rand.Rand
	pace  *pacer
	seq   uint64
	once  sync.Once
	close chan struct{}
}

// NewPattern creates a pattern source from spec.
func NewPattern(spec string, fps int) (*Pattern, error) {
	cfg, err := ParsePattern(spec)
	if err != nil {
		return nil, err
	}
	return NewPatternFromConfig(cfg, fps), nil
}

// NewPatternFromConfig creates a pattern source from cfg.
func NewPatternFromConfig(cfg PatternConfig, fps int) *Pattern {
	base := frame.New(cfg.Width, cfg.Height)
	midX, midY := cfg.Width/2, cfg.Height/2
	quadrants := [roi.Count]image.Rectangle{
		image.Rect(0, 0, midX, midY),
		image.Rect(midX, 0, cfg.Width, midY),
		image.Rect(0, midY, midX, cfg.Height),
		image.Rect(midX, midY, cfg.Width, cfg.Height),
	}
	for i, c := range cfg.Colors {
		r, g, b := c.RGB255()
		base.Fill(quadrants[i], r, g, b)
	}
	return &Pattern{
		cfg:   cfg,
		base:  base,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
		pace:  newPacer(fps),
		close: make(chan struct{}),
	}
}

// NextFrame implements Source.
func (p *Pattern) NextFrame(ctx context.Context) (*frame.Frame, bool) {
	select {
	case <-p.close:
		return nil, false
	default:
	}
	if !p.pace.wait(ctx) {
		return nil, false
	}

	f := p.base.Clone()
	if n := p.cfg.Noise; n > 0 {
		for i, v := range f.Pix {
			d := p.rng.IntN(2*n+1) - n
			f.Pix[i] = uint8(min(255, max(0, int(v)+d)))
		}
	}
	p.seq++
	f.Seq = p.seq
	f.Timestamp = time.Now()
	return f, true
}

// Close implements Source.
func (p *Pattern) Close() error {
	p.once.Do(func() { close(p.close) })
	return nil
}

// String returns the spec the pattern was built from.
func (p *Pattern) String() string {
	hex := make([]string, len(p.cfg.Colors))
	for i, c := range p.cfg.Colors {
		hex[i] = c.Hex()
	}
	return fmt.Sprintf("%s%s?noise=%d&size=%dx%d", PatternScheme, strings.Join(hex, ","), p.cfg.Noise, p.cfg.Width, p.cfg.Height)
}
