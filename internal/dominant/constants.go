// Package dominant reduces a noisy pixel block to one representative color.
package dominant

// Pixel filter thresholds on an 8-bit, 3-channel basis
const (
	// Pixels whose R+G+B sum is not strictly inside (LightnessMin, LightnessMax)
	// are treated as shadow or highlight.
	LightnessMin = 60.0
	LightnessMax = 705.0

	// Pixels whose max-min channel spread is at or below MinSpread are washed out.
	MinSpread = 20.0
)

// Clustering defaults
const (
	DefaultClusters = 5
	DefaultAttempts = 3
	DefaultMaxIter  = 300
	DefaultSeed     = 42

	// Convergence tolerance relative to the mean per-channel variance
	DefaultTolerance = 1e-4
)
