package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/pipeline"
	"github.com/GriffinCanCode/swatchqc/internal/trace"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	c := newClient(conn)
	s.mu.Lock()
	s.clients[conn] = c
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	// Get trace context from HTTP upgrade request
	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	writerCtx, stopWriter := context.WithCancel(baseCtx)
	defer stopWriter()
	go c.writeLoop(writerCtx, s.write)

	if snap, ok := s.pipe.Snapshot(); ok {
		c.offer(statusMessage(snap))
	}

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !c.limiter.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			s.write(baseCtx, conn, ErrorMessage{
				Type:    TypeError,
				Code:    string(apperrors.CodeUnavailable),
				Message: "rate limit exceeded",
			})
			continue
		}

		var base ClientMessage
		if err := json.Unmarshal(msg, &base); err != nil {
			s.write(baseCtx, conn, ErrorMessage{
				Type:    TypeError,
				Code:    string(apperrors.CodeInvalidArgument),
				Message: "invalid JSON message",
			})
			continue
		}

		// Continue the client's trace when it sent one
		ctx := baseCtx
		if tc, ok := trace.ExtractFromJSON(msg); ok {
			ctx = trace.WithContext(ctx, tc)
		} else {
			ctx, _ = trace.EnsureContext(ctx)
		}

		switch base.Type {
		case TypeSetLighting:
			s.handleLightingMessage(ctx, conn, base)
		default:
			s.write(ctx, conn, ErrorMessage{
				Type:    TypeError,
				Code:    string(apperrors.CodeInvalidArgument),
				Message: "unknown message type: " + base.Type,
			})
		}
	}
}

func (s *Server) handleLightingMessage(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	ctx, span := trace.StartSpan(ctx, "set_lighting")
	defer span.End()

	label := pipeline.DefaultLighting
	if msg.Lighting != nil {
		label = *msg.Lighting
	}
	if err := s.pipe.SetLightingMode(label); err != nil {
		span.SetAttr("error", err.Error())
		s.write(ctx, conn, ErrorMessage{
			Type:    TypeError,
			Code:    string(apperrors.CodeOf(err)),
			Message: err.Error(),
		})
		return
	}

	current := s.pipe.Lighting()
	trace.Logger(ctx).Info("lighting changed", "lighting", current)
	s.write(ctx, conn, LightingMessage{Type: TypeLighting, Lighting: current})
}

// broadcastStatus hands every published snapshot to each client's writer.
// The change channel is taken before the snapshot is read so no
// publication is missed.
func (s *Server) broadcastStatus() {
	var lastSeq uint64
	for {
		changed := s.pipe.Changed()

		if snap, ok := s.pipe.Snapshot(); ok && snap.Seq != lastSeq {
			lastSeq = snap.Seq
			msg := statusMessage(snap)

			s.mu.RLock()
			for _, c := range s.clients {
				c.offer(msg)
			}
			s.mu.RUnlock()
		}

		select {
		case <-s.stopCh:
			return
		case <-changed:
		}
	}
}

// write sends one message, bounded by WriteTimeout.
func (s *Server) write(ctx context.Context, conn *websocket.Conn, v any) {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		slog.Debug("websocket write error", "error", err)
	}
}

func (s *Server) originPatterns() []string {
	if len(s.origins) == 0 {
		return []string{"*"}
	}
	return s.origins
}

func statusMessage(snap pipeline.Snapshot) StatusMessage {
	return StatusMessage{Type: TypeStatus, StatusResponse: NewStatusResponse(snap)}
}
