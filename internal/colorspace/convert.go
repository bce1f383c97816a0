package colorspace

import colorful "github.com/lucasb-eyer/go-colorful"

// go-colorful reports L*a*b* scaled by 1/100.
const labScale = 100.0

// ToLab converts sRGB to L*a*b* under D65: gamma linearization, the sRGB to
// XYZ matrix, then the cube-root/linear piecewise response.
func ToLab(c RGB) Lab {
	l, a, b := colorful.Color{R: c.R / 255, G: c.G / 255, B: c.B / 255}.Lab()
	return Lab{L: l * labScale, A: a * labScale, B: b * labScale}
}

// ToRGB is the inverse of ToLab. Out-of-gamut results are not clamped.
func (c Lab) ToRGB() RGB {
	col := colorful.Lab(c.L/labScale, c.A/labScale, c.B/labScale)
	return RGB{R: col.R * 255, G: col.G * 255, B: col.B * 255}
}
