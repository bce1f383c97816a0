package dominant

import (
	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
	"gonum.org/v1/gonum/stat"
)

// Method names the strategy that produced a dominant color.
type Method string

const (
	MethodCluster Method = "cluster"
	MethodMean    Method = "mean"
	MethodBlack   Method = "black"
)

// Result is one region's dominant color and how it was obtained.
type Result struct {
	Color colorspace.RGB
	// Method is the fallback step that answered
	Method Method
	// Unfiltered is set when every pixel failed the filters and the whole
	// block was used instead
	Unfiltered bool
	// Pixels is the size of the candidate set
	Pixels int
}

// Config controls filtering and clustering.
type Config struct {
	LightnessMin float64
	LightnessMax float64
	MinSpread    float64

	Clusters int
	Attempts int
	MaxIter  int
	Seed     uint64
}

// DefaultConfig returns the thresholds for 8-bit channels.
func DefaultConfig() Config {
	return Config{
		LightnessMin: LightnessMin,
		LightnessMax: LightnessMax,
		MinSpread:    MinSpread,
		Clusters:     DefaultClusters,
		Attempts:     DefaultAttempts,
		MaxIter:      DefaultMaxIter,
		Seed:         DefaultSeed,
	}
}

// ScaledForDepth rescales the pixel thresholds for bitsPerChannel-bit input.
func (c Config) ScaledForDepth(bitsPerChannel int) Config {
	if bitsPerChannel <= 0 || bitsPerChannel == 8 {
		return c
	}
	f := float64(int(1)<<bitsPerChannel-1) / 255
	c.LightnessMin *= f
	c.LightnessMax *= f
	c.MinSpread *= f
	return c
}

// strategy estimates a color from a non-empty candidate set, or declines.
type strategy struct {
	method Method
	fn     func(px []colorspace.RGB) (colorspace.RGB, bool)
}

// Extractor finds the dominant color of a pixel block while ignoring
// shadows, highlights and desaturated pixels. It never fails: each strategy
// either answers or hands over to the next, and an empty block is black.
type Extractor struct {
	cfg        Config
	km         KMeans
	strategies []strategy
}

// New creates an extractor.
func New(cfg Config) *Extractor {
	e := &Extractor{
		cfg: cfg,
		km: KMeans{
			K:        cfg.Clusters,
			Attempts: cfg.Attempts,
			MaxIter:  cfg.MaxIter,
			Seed:     cfg.Seed,
		},
	}
	e.strategies = []strategy{
		{MethodCluster, e.largestCluster},
		{MethodMean, mean},
	}
	return e
}

// Extract runs the filter and fallback chain over block.
func (e *Extractor) Extract(block []colorspace.RGB) Result {
	candidates, unfiltered := e.candidates(block)
	if len(candidates) == 0 {
		return Result{Color: colorspace.Black, Method: MethodBlack, Unfiltered: unfiltered}
	}

	for _, s := range e.strategies {
		if c, ok := s.fn(candidates); ok {
			return Result{Color: c, Method: s.method, Unfiltered: unfiltered, Pixels: len(candidates)}
		}
	}
	return Result{Color: colorspace.Black, Method: MethodBlack, Unfiltered: unfiltered, Pixels: len(candidates)}
}

// Keep reports whether a pixel passes the lightness and saturation filters.
func (e *Extractor) Keep(p colorspace.RGB) bool {
	sum := p.Sum()
	return sum > e.cfg.LightnessMin && sum < e.cfg.LightnessMax && p.Spread() > e.cfg.MinSpread
}

// candidates returns the filtered pixels, or the whole block when the
// filters reject everything.
func (e *Extractor) candidates(block []colorspace.RGB) ([]colorspace.RGB, bool) {
	kept := make([]colorspace.RGB, 0, len(block))
	for _, p := range block {
		if e.Keep(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return block, len(block) > 0
	}
	return kept, false
}

func (e *Extractor) largestCluster(px []colorspace.RGB) (colorspace.RGB, bool) {
	points := make([][]float64, len(px))
	backing := make([]float64, 3*len(px))
	for i, p := range px {
		v := backing[3*i : 3*i+3 : 3*i+3]
		v[0], v[1], v[2] = p.R, p.G, p.B
		points[i] = v
	}

	c, err := e.km.Fit(points)
	if err != nil {
		return colorspace.RGB{}, false
	}
	centroid := c.Centroids[c.Largest()]
	return colorspace.RGB{R: centroid[0], G: centroid[1], B: centroid[2]}, true
}

func mean(px []colorspace.RGB) (colorspace.RGB, bool) {
	if len(px) == 0 {
		return colorspace.RGB{}, false
	}
	r := make([]float64, len(px))
	g := make([]float64, len(px))
	b := make([]float64, len(px))
	for i, p := range px {
		r[i], g[i], b[i] = p.R, p.G, p.B
	}
	return colorspace.RGB{R: stat.Mean(r, nil), G: stat.Mean(g, nil), B: stat.Mean(b, nil)}, true
}
