package colorspace

import "math"

// pow25to7 is 25^7, the chroma normalizer in the G and R_C terms.
const pow25to7 = 6103515625.0

// CIEDE2000 returns the CIE 2000 color difference between two Lab colors
// with unit parametric factors (kL = kC = kH = 1).
func CIEDE2000(x, y Lab) float64 {
	c1 := math.Hypot(x.A, x.B)
	c2 := math.Hypot(y.A, y.B)
	cBar7 := math.Pow((c1+c2)/2, 7)
	g := 0.5 * (1 - math.Sqrt(cBar7/(cBar7+pow25to7)))

	a1 := (1 + g) * x.A
	a2 := (1 + g) * y.A
	c1p := math.Hypot(a1, x.B)
	c2p := math.Hypot(a2, y.B)
	h1p := hueDegrees(x.B, a1)
	h2p := hueDegrees(y.B, a2)

	dLp := y.L - x.L
	dCp := c2p - c1p

	chromaProduct := c1p * c2p
	var dhp float64
	if chromaProduct != 0 {
		dhp = h2p - h1p
		switch {
		case dhp > 180:
			dhp -= 360
		case dhp < -180:
			dhp += 360
		}
	}
	dHp := 2 * math.Sqrt(chromaProduct) * math.Sin(radians(dhp/2))

	lBarp := (x.L + y.L) / 2
	cBarp := (c1p + c2p) / 2

	var hBarp float64
	switch {
	case chromaProduct == 0:
		hBarp = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarp = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hBarp = (h1p + h2p + 360) / 2
	default:
		hBarp = (h1p + h2p - 360) / 2
	}

	t := 1 -
		0.17*math.Cos(radians(hBarp-30)) +
		0.24*math.Cos(radians(2*hBarp)) +
		0.32*math.Cos(radians(3*hBarp+6)) -
		0.20*math.Cos(radians(4*hBarp-63))

	dTheta := 30 * math.Exp(-square((hBarp-275)/25))
	cBarp7 := math.Pow(cBarp, 7)
	rC := 2 * math.Sqrt(cBarp7/(cBarp7+pow25to7))
	lm50 := square(lBarp - 50)

	sL := 1 + 0.015*lm50/math.Sqrt(20+lm50)
	sC := 1 + 0.045*cBarp
	sH := 1 + 0.015*cBarp*t
	// Rotation term for the blue region.
	rT := -math.Sin(radians(2*dTheta)) * rC

	fL := dLp / sL
	fC := dCp / sC
	fH := dHp / sH
	return math.Sqrt(fL*fL + fC*fC + fH*fH + rT*fC*fH)
}

// hueDegrees returns atan2(b, a) in [0,360), defined as 0 for the neutral axis.
func hueDegrees(b, a float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func square(v float64) float64 { return v * v }
