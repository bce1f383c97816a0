package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/GriffinCanCode/swatchqc/internal/annotate"
	"github.com/GriffinCanCode/swatchqc/internal/capture"
	"github.com/GriffinCanCode/swatchqc/internal/config"
	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/pipeline"
	"github.com/GriffinCanCode/swatchqc/internal/trace"
)

// Measurer is the part of the pipeline the transport reads and controls.
type Measurer interface {
	Snapshot() (pipeline.Snapshot, bool)
	Latest() (pipeline.Capture, bool)
	Changed() <-chan struct{}
	SetLightingMode(label string) error
	Lighting() string
}

// SourceSwitcher selects the frame source.
type SourceSwitcher interface {
	Switch(ctx context.Context, spec string) error
	Stats() capture.Stats
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	pipe      Measurer
	src       SourceSwitcher
	annotator *annotate.Annotator
	staticDir string
	origins   []string

	mu      sync.RWMutex
	clients map[*websocket.Conn]*client

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a server and starts the status broadcaster. Call Close to
// stop it.
func New(pipe Measurer, src SourceSwitcher, cfg *config.Config) *Server {
	s := &Server{
		pipe:      pipe,
		src:       src,
		annotator: annotate.New(cfg.ROISize),
		staticDir: cfg.StaticDir,
		origins:   cfg.CORSOrigins,
		clients:   make(map[*websocket.Conn]*client),
		stopCh:    make(chan struct{}),
	}

	go s.broadcastStatus()

	return s
}

// Close stops the broadcaster and open MJPEG streams.
func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/set_lighting", s.handleSetLighting)
	mux.HandleFunc("POST /api/set_camera", s.handleSetCamera)
	mux.HandleFunc("GET /api/source", s.handleSource)
	mux.HandleFunc("GET /video_feed", s.handleVideoFeed)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.staticDir != "" {
		if info, err := os.Stat(s.staticDir); err == nil && info.IsDir() {
			mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
		}
	}

	// Apply middleware: trace -> CORS
	return s.corsMiddleware(trace.Middleware(mux))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.origins, origin) {
		return origin
	}
	return ""
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.pipe.Snapshot()
	if !ok {
		writeError(w, r, apperrors.New(apperrors.CodeSnapshotUnavailable, "no frame has been processed yet"))
		return
	}
	writeJSON(w, http.StatusOK, NewStatusResponse(snap))
}

func (s *Server) handleSetLighting(w http.ResponseWriter, r *http.Request) {
	var req SetLightingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	label := pipeline.DefaultLighting
	if req.Lighting != nil {
		label = *req.Lighting
	}
	if err := s.pipe.SetLightingMode(label); err != nil {
		writeError(w, r, err)
		return
	}

	trace.Logger(r.Context()).Info("lighting changed", "lighting", s.pipe.Lighting())
	writeJSON(w, http.StatusOK, SetLightingResponse{Success: true, Lighting: s.pipe.Lighting()})
}

func (s *Server) handleSetCamera(w http.ResponseWriter, r *http.Request) {
	var req SetCameraRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	spec := strings.TrimSpace(req.URL)
	if spec == "0" {
		spec = ""
	}
	name := spec
	if name == "" {
		name = "0"
	}

	ctx, cancel := context.WithTimeout(r.Context(), setCameraTimeout)
	defer cancel()

	log := trace.Logger(ctx)
	log.Info("switching frame source", "source", name)
	if err := s.src.Switch(ctx, spec); err != nil {
		log.Warn("frame source switch failed", "source", name, "error", err)
		writeJSON(w, apperrors.HTTPStatus(err), SetCameraResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, SetCameraResponse{Success: true, Message: "Camera set to " + name})
}

func (s *Server) handleSource(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.src.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, ready := s.pipe.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ready": ready})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.CodeInvalidArgument, "invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Code: string(apperrors.CodeOf(err)), Message: err.Error()}
	if appErr, ok := apperrors.As(err); ok {
		resp.Message = appErr.Message
		resp.Metadata = appErr.Metadata
	}
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		trace.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}
