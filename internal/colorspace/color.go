// Package colorspace converts device RGB to CIE L*a*b* and measures
// perceptual color difference with CIEDE2000.
package colorspace

import (
	"fmt"
	"math"
)

// RGB is a device color with channels in [0,255]. Channels are float because
// cluster centroids and temporal means are not integral.
type RGB struct {
	R, G, B float64
}

// Black is the terminal fallback color.
var Black = RGB{}

// Sum returns R+G+B, the lightness proxy used by the extractor.
func (c RGB) Sum() float64 { return c.R + c.G + c.B }

// Spread returns max(R,G,B) - min(R,G,B), the saturation proxy.
func (c RGB) Spread() float64 {
	return math.Max(c.R, math.Max(c.G, c.B)) - math.Min(c.R, math.Min(c.G, c.B))
}

// Hex renders "#rrggbb". Channels are truncated toward zero, not rounded.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%.1f, %.1f, %.1f)", c.R, c.G, c.B)
}

func channelByte(v float64) int {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

// Lab is a CIE L*a*b* color under the D65 reference white, L in [0,100].
type Lab struct {
	L, A, B float64
}

func (c Lab) String() string {
	return fmt.Sprintf("lab(%.3f, %.3f, %.3f)", c.L, c.A, c.B)
}
