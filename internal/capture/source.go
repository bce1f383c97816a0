// Package capture provides the frame sources feeding the pipeline: local and
// network cameras, image file replay and synthetic test patterns.
package capture

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/swatchqc/internal/frame"
)

// Source produces frames. NextFrame returns ok=false when nothing is
// available right now; that is not an error.
type Source interface {
	NextFrame(ctx context.Context) (*frame.Frame, bool)
	Close() error
}

// Options tunes the sources built by Open.
type Options struct {
	// FPS paces file and pattern sources. Cameras run at device speed.
	FPS int
}

// DefaultOptions returns the stock source options.
func DefaultOptions() Options {
	return Options{FPS: DefaultFPS}
}

// Kind classifies a source spec.
type Kind string

const (
	KindCamera  Kind = "camera"
	KindStream  Kind = "stream"
	KindPattern Kind = "pattern"
	KindFiles   Kind = "files"
)

// Classify reports what kind of source spec names. Empty and "0" name the
// default camera.
func Classify(spec string) Kind {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return KindCamera
	case strings.HasPrefix(spec, PatternScheme):
		return KindPattern
	case strings.HasPrefix(spec, "rtsp://"), strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return KindStream
	}
	if _, err := strconv.Atoi(spec); err == nil {
		return KindCamera
	}
	return KindFiles
}

// Open builds the source named by spec.
func Open(ctx context.Context, spec string, opts Options) (Source, error) {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	spec = strings.TrimSpace(spec)

	switch Classify(spec) {
	case KindCamera:
		device := DefaultDevice
		if spec != "" {
			device, _ = strconv.Atoi(spec)
		}
		return openCamera(ctx, device)
	case KindStream:
		return openStream(ctx, spec)
	case KindPattern:
		p, err := NewPattern(spec, opts.FPS)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		f, err := NewFiles(spec, opts.FPS)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// pacer spaces frames at a fixed rate.
type pacer struct {
	interval time.Duration
	next     time.Time
}

func newPacer(fps int) *pacer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &pacer{interval: time.Second / time.Duration(fps)}
}

// wait blocks until the next slot. It returns false if ctx ends first.
func (p *pacer) wait(ctx context.Context) bool {
	now := time.Now()
	if p.next.IsZero() || !now.Before(p.next) {
		p.next = now.Add(p.interval)
		return ctx.Err() == nil
	}
	t := time.NewTimer(p.next.Sub(now))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		p.next = p.next.Add(p.interval)
		return true
	}
}
