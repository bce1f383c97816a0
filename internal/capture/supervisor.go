package capture

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/frame"
	"github.com/GriffinCanCode/swatchqc/internal/resilience"
	"github.com/GriffinCanCode/swatchqc/internal/syncx"
)

// Opener builds a source from a spec.
type Opener func(ctx context.Context, spec string) (Source, error)

// Stats describes the supervised source.
type Stats struct {
	Spec       string    `json:"spec"`
	Kind       Kind      `json:"kind"`
	SessionID  string    `json:"session_id"`
	Connected  bool      `json:"connected"`
	Breaker    string    `json:"breaker"`
	Frames     uint64    `json:"frames"`
	Misses     uint64    `json:"misses"`
	Stale      uint64    `json:"stale"`
	Reconnects uint64    `json:"reconnects"`
	LastFrame  time.Time `json:"last_frame,omitzero"`
	LastError  string    `json:"last_error,omitempty"`
}

// SupervisorConfig tunes reconnection and stale-frame detection.
type SupervisorConfig struct {
	Breaker       resilience.Config
	Retry         resilience.RetryConfig
	StaleDistance int
}

// DefaultSupervisorConfig returns the stock supervision settings.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Breaker:       resilience.SourceConfig(resilience.SourceThreshold, resilience.SourceResetTimeout),
		Retry:         resilience.SourceRetryConfig(),
		StaleDistance: DefaultStaleDistance,
	}
}

// Supervisor owns the active source. A run of misses trips its breaker,
// which closes the source; once the breaker allows a trial call the source
// is reopened with backoff. Frames get a sequence number that keeps
// increasing across sources.
type Supervisor struct {
	open    Opener
	cfg     SupervisorConfig
	breaker *resilience.Breaker
	stale   *StaleDetector
	stats   *syncx.Guard[Stats]

	// mu serializes reads against source switches
	mu         sync.Mutex
	configured bool
	spec       string
	src        Source
	seq        uint64
}

// NewSupervisor creates a supervisor with no source. Call Switch to start one.
func NewSupervisor(open Opener, cfg SupervisorConfig) *Supervisor {
	s := &Supervisor{
		open:  open,
		cfg:   cfg,
		stale: NewStaleDetector(cfg.StaleDistance),
		stats: syncx.NewGuard(Stats{Breaker: resilience.Closed.String()}),
	}
	s.breaker = resilience.New(cfg.Breaker).WithHook(s.onBreaker)
	return s
}

// OpenerFor returns an Opener bound to opts.
func OpenerFor(opts Options) Opener {
	return func(ctx context.Context, spec string) (Source, error) {
		return Open(ctx, spec, opts)
	}
}

// Switch replaces the active source with one built from spec. The previous
// source is closed first; if the new one cannot be opened the previous spec
// is kept and the normal recovery path reopens it.
func (s *Supervisor) Switch(ctx context.Context, spec string) error {
	spec = strings.TrimSpace(spec)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src != nil {
		if err := s.src.Close(); err != nil {
			slog.Debug("closing previous source", "spec", s.spec, "error", err)
		}
		s.src = nil
	}

	src, err := s.open(ctx, spec)
	if err != nil {
		s.stats.Update(func(st *Stats) {
			st.Connected = false
			st.LastError = err.Error()
		})
		return err
	}

	s.configured = true
	s.spec = spec
	s.src = src
	s.stale.Reset()
	s.breaker.Reset()
	id := uuid.NewString()
	s.stats.Update(func(st *Stats) {
		*st = Stats{
			Spec:      spec,
			Kind:      Classify(spec),
			SessionID: id,
			Connected: true,
			Breaker:   s.breaker.State().String(),
		}
	})
	slog.Info("frame source opened", "spec", spec, "kind", Classify(spec), "session_id", id)
	return nil
}

// NextFrame implements the pipeline's frame source.
func (s *Supervisor) NextFrame(ctx context.Context) (*frame.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		if !s.configured || !s.reopen(ctx) {
			return nil, false
		}
	}

	f, ok := s.src.NextFrame(ctx)
	if !ok || f == nil {
		if ctx.Err() != nil {
			return nil, false
		}
		s.stats.Update(func(st *Stats) { st.Misses++ })
		s.breaker.Failure()
		if s.breaker.State() == resilience.Open {
			s.closeSource("source stopped producing frames")
		}
		return nil, false
	}

	s.breaker.Success()
	stale := s.stale.Observe(f)
	s.seq++
	f.Seq = s.seq
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	s.stats.Update(func(st *Stats) {
		st.Frames++
		st.LastFrame = f.Timestamp
		if stale {
			st.Stale++
		}
	})
	return f, true
}

// reopen tries to bring back the last source once the breaker allows it.
// Called with mu held.
func (s *Supervisor) reopen(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, reopenTimeout)
	defer cancel()

	var src Source
	err := s.breaker.Execute(func() error {
		return resilience.Retry(ctx, s.cfg.Retry, func() error {
			var err error
			src, err = s.open(ctx, s.spec)
			return err
		})
	})
	if errors.Is(err, resilience.ErrOpen) {
		return false
	}
	if err != nil {
		slog.Warn("frame source reopen failed", "spec", s.spec, "error", err)
		s.stats.Update(func(st *Stats) { st.LastError = err.Error() })
		return false
	}

	s.src = src
	s.stale.Reset()
	s.stats.Update(func(st *Stats) {
		st.Connected = true
		st.Reconnects++
		st.LastError = ""
	})
	slog.Info("frame source reopened", "spec", s.spec)
	return true
}

// closeSource drops the active source after a failure. Called with mu held.
func (s *Supervisor) closeSource(reason string) {
	if s.src == nil {
		return
	}
	if err := s.src.Close(); err != nil {
		slog.Debug("closing failed source", "spec", s.spec, "error", err)
	}
	s.src = nil
	s.stats.Update(func(st *Stats) {
		st.Connected = false
		st.LastError = reason
	})
	slog.Warn("frame source closed", "spec", s.spec, "reason", reason)
}

func (s *Supervisor) onBreaker(_, to resilience.State) {
	s.stats.Update(func(st *Stats) { st.Breaker = to.String() })
}

// Stats returns a copy of the current statistics.
func (s *Supervisor) Stats() Stats {
	return s.stats.Get()
}

// Spec returns the spec of the last successful Switch.
func (s *Supervisor) Spec() string {
	return s.stats.Get().Spec
}

// Close closes the active source. The supervisor can be reused with Switch.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = false
	s.spec = ""
	s.stats.Update(func(st *Stats) { st.Connected = false })
	if s.src == nil {
		return nil
	}
	err := s.src.Close()
	s.src = nil
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "close frame source")
	}
	return nil
}
