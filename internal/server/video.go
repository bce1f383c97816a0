package server

import (
	"bytes"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/GriffinCanCode/swatchqc/internal/trace"
)

// handleVideoFeed streams annotated frames as multipart/x-mixed-replace.
func (s *Server) handleVideoFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(MJPEGBoundary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+MJPEGBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Debug("video feed opened", "remote", r.RemoteAddr)
	defer log.Debug("video feed closed", "remote", r.RemoteAddr)

	var (
		buf     bytes.Buffer
		lastSeq uint64
	)
	for {
		changed := s.pipe.Changed()

		if c, ok := s.pipe.Latest(); ok && c.Frame.Valid() && c.Snapshot.Seq != lastSeq {
			lastSeq = c.Snapshot.Seq

			buf.Reset()
			img := s.annotator.Image(c.Frame, c.Snapshot)
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
				log.Warn("jpeg encode failed", "error", err)
				continue
			}

			header := textproto.MIMEHeader{}
			header.Set("Content-Type", "image/jpeg")
			header.Set("Content-Length", strconv.Itoa(buf.Len()))
			part, err := mw.CreatePart(header)
			if err != nil {
				return
			}
			if _, err := part.Write(buf.Bytes()); err != nil {
				return
			}
			flusher.Flush()
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-changed:
		}
	}
}
