package roi

import (
	"image"
	"testing"

	"github.com/GriffinCanCode/swatchqc/internal/frame"
)

func TestRectsCentered(t *testing.T) {
	got := Rects(640, 480, 160)
	want := [Count]image.Rectangle{
		image.Rect(80, 40, 240, 200),
		image.Rect(400, 40, 560, 200),
		image.Rect(80, 280, 240, 440),
		image.Rect(400, 280, 560, 440),
	}
	if got != want {
		t.Errorf("Rects(640,480,160) = %v, want %v", got, want)
	}
}

func TestRectsClamped(t *testing.T) {
	// Region 0 is centered at (50,25) and spans [-30,130)x[-55,105) before clamping.
	got := Rects(200, 100, 160)

	if got[0] != image.Rect(0, 0, 130, 100) {
		t.Errorf("region 0 = %v", got[0])
	}
	for i, r := range got {
		if !r.In(image.Rect(0, 0, 200, 100)) {
			t.Errorf("region %d = %v escapes the frame", i, r)
		}
		if r.Empty() {
			t.Errorf("region %d should not be empty", i)
		}
	}
}

func TestRectsZeroFrame(t *testing.T) {
	for i, r := range Rects(0, 0, 160) {
		if !r.Empty() {
			t.Errorf("region %d = %v, want empty", i, r)
		}
	}
}

func TestSampleQuadrants(t *testing.T) {
	f := frame.New(100, 100)
	f.Fill(image.Rect(0, 0, 50, 50), 255, 0, 0)
	f.Fill(image.Rect(50, 0, 100, 50), 0, 255, 0)
	f.Fill(image.Rect(0, 50, 50, 100), 0, 0, 255)
	f.Fill(image.Rect(50, 50, 100, 100), 9, 9, 9)

	blocks := Sample(f, 20)
	want := [Count][3]float64{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {9, 9, 9}}

	for i, b := range blocks {
		if len(b) != 20*20 {
			t.Errorf("block %d has %d pixels, want 400", i, len(b))
			continue
		}
		for _, p := range b {
			if p.R != want[i][0] || p.G != want[i][1] || p.B != want[i][2] {
				t.Errorf("block %d pixel %v, want %v", i, p, want[i])
				break
			}
		}
	}
}

func TestBlockDegenerate(t *testing.T) {
	if px := Block(frame.New(0, 0), image.Rect(0, 0, 10, 10)); len(px) != 0 {
		t.Errorf("zero frame gave %d pixels", len(px))
	}
	bad := &frame.Frame{Width: 10, Height: 10, Pix: make([]byte, 3)}
	if px := Block(bad, image.Rect(0, 0, 10, 10)); len(px) != 0 {
		t.Errorf("malformed frame gave %d pixels", len(px))
	}
	blocks := Sample(nil, 160)
	for i, b := range blocks {
		if b != nil {
			t.Errorf("nil frame block %d = %v", i, b)
		}
	}
}
