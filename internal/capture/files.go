package capture

import (
	"context"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
)

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Files replays still images in name order, looping forever. Decoded frames
// are cached after the first pass.
type Files struct {
	paths []string
	cache map[string]*frame.Frame
	pos   int
	pace  *pacer
	seq   uint64

	mu     sync.Mutex
	closed bool
}

// NewFiles creates a replay source from a single image or a directory of
// images.
func NewFiles(path string, fps int) (*Files, error) {
	paths, err := listImages(path)
	if err != nil {
		return nil, err
	}
	return &Files{
		paths: paths,
		cache: make(map[string]*frame.Frame, len(paths)),
		pace:  newPacer(fps),
	}, nil
}

func listImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSourceOpenFailed, "stat image source").WithMetadata("path", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSourceOpenFailed, "read image directory").WithMetadata("path", path)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		paths = append(paths, filepath.Join(path, e.Name()))
	}
	if len(paths) == 0 {
		return nil, apperrors.New(apperrors.CodeSourceOpenFailed, "no images in directory").WithMetadata("path", path)
	}
	slices.Sort(paths)
	return paths, nil
}

// Len returns the number of images in the loop.
func (s *Files) Len() int { return len(s.paths) }

// NextFrame implements Source. Undecodable images count as a miss.
func (s *Files) NextFrame(ctx context.Context) (*frame.Frame, bool) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || !s.pace.wait(ctx) {
		return nil, false
	}

	path := s.paths[s.pos]
	s.pos = (s.pos + 1) % len(s.paths)

	f, ok := s.cache[path]
	if !ok {
		var err error
		if f, err = decodeFile(path); err != nil {
			slog.Debug("image decode failed", "path", path, "error", err)
			return nil, false
		}
		s.cache[path] = f
	}

	out := f.Clone()
	s.seq++
	out.Seq = s.seq
	out.Timestamp = time.Now()
	return out, true
}

// Close implements Source.
func (s *Files) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func decodeFile(path string) (*frame.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, err
	}
	return frame.FromImage(img), nil
}
