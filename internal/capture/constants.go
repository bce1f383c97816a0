package capture

import "time"

// Source defaults
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480

	// DefaultDevice is the camera index used for "" and "0"
	DefaultDevice = 0

	// PatternScheme prefixes synthetic quadrant pattern specs
	PatternScheme = "pattern:"

	// DefaultStaleDistance is the largest perceptual hash distance still
	// counted as a repeated frame; negative disables the check
	DefaultStaleDistance = 0

	// maxPatternNoise bounds the per-channel noise amplitude
	maxPatternNoise = 127

	// maxPatternSide bounds each pattern dimension in pixels
	maxPatternSide = 8192

	reopenTimeout = 10 * time.Second
)
