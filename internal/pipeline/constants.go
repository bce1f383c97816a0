package pipeline

import "time"

// Pipeline defaults
const (
	// DefaultLighting is the lighting label before anyone sets one
	DefaultLighting = "D65"

	// DefaultIdleInterval is the wait after the source had no frame
	DefaultIdleInterval = 10 * time.Millisecond

	// ReferenceLabel marks region 0 in similarity listings
	ReferenceLabel = "Reference"
)
