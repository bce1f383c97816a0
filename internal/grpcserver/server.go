package grpcserver

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/GriffinCanCode/swatchqc/internal/trace"
)

// Readiness reports whether the pipeline has published a snapshot.
type Readiness interface {
	Ready() bool
	Changed() <-chan struct{}
}

// Server is a gRPC server carrying the health and reflection services.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	pipe   Readiness
}

// New creates a server reporting NOT_SERVING for ServiceName until pipe is
// ready.
func New(pipe Readiness) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(trace.StreamServerInterceptor()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             MinClientPingInterval,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: MaxConnectionIdle,
		}),
	)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &Server{grpc: gs, health: hs, pipe: pipe}
}

// Watch flips ServiceName to SERVING once the pipeline is ready. It returns
// when that happens or ctx is done.
func (s *Server) Watch(ctx context.Context) {
	for {
		changed := s.pipe.Changed()
		if s.pipe.Ready() {
			s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
			trace.Logger(ctx).Info("health serving", "service", ServiceName)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("grpc server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
