//go:build gocv

package capture

import (
	"context"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
)

// Camera reads frames from an OpenCV video capture: a local device or a
// network stream.
type Camera struct {
	mu   sync.Mutex
	vc   *gocv.VideoCapture
	bgr  gocv.Mat
	rgb  gocv.Mat
	seq  uint64
	name string
}

func openCamera(_ context.Context, device int) (Source, error) {
	c, err := openCapture(device, strconv.Itoa(device))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func openStream(_ context.Context, url string) (Source, error) {
	c, err := openCapture(url, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func openCapture(target any, name string) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSourceOpenFailed, "open video capture").WithMetadata("source", name)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, apperrors.New(apperrors.CodeSourceOpenFailed, "video capture not opened").WithMetadata("source", name)
	}
	return &Camera{vc: vc, bgr: gocv.NewMat(), rgb: gocv.NewMat(), name: name}, nil
}

// NextFrame implements Source.
func (c *Camera) NextFrame(ctx context.Context) (*frame.Frame, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil, false
	}

	if ok := c.vc.Read(&c.bgr); !ok || c.bgr.Empty() {
		return nil, false
	}
	gocv.CvtColor(c.bgr, &c.rgb, gocv.ColorBGRToRGB)

	f := &frame.Frame{
		Width:     c.rgb.Cols(),
		Height:    c.rgb.Rows(),
		Pix:       c.rgb.ToBytes(),
		Timestamp: time.Now(),
	}
	if !f.Valid() {
		return nil, false
	}
	c.seq++
	f.Seq = c.seq
	return f, true
}

// Close implements Source.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	_ = c.bgr.Close()
	_ = c.rgb.Close()
	return err
}
