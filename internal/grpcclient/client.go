package grpcclient

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
	"github.com/GriffinCanCode/swatchqc/internal/resilience"
	"github.com/GriffinCanCode/swatchqc/internal/trace"
)

// Client wraps a health client for one server.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
	retry  resilience.RetryConfig
}

// New creates a client for addr. Extra dial options are appended after the
// defaults.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                DefaultKeepaliveTime,
			Timeout:             DefaultKeepaliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithChainUnaryInterceptor(trace.UnaryClientInterceptor()),
		grpc.WithChainStreamInterceptor(trace.StreamClientInterceptor()),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeUnavailable, "dial %s", addr)
	}

	return &Client{
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
		retry:  resilience.DefaultRetryConfig(),
	}, nil
}

// WithRetry replaces the retry policy for Check.
func (c *Client) WithRetry(cfg resilience.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Check returns the serving status of service. Transient transport errors
// are retried; an unknown service is not.
func (c *Client) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	var st healthpb.HealthCheckResponse_ServingStatus
	err := resilience.Retry(ctx, c.retry, func() error {
		callCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
		defer cancel()

		resp, err := c.health.Check(callCtx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		st = resp.GetStatus()
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return healthpb.HealthCheckResponse_SERVICE_UNKNOWN, apperrors.Wrapf(err, apperrors.CodeInvalidArgument, "unknown service %q", service)
		}
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return st, nil
}

// Serving reports whether service is SERVING.
func (c *Client) Serving(ctx context.Context, service string) (bool, error) {
	st, err := c.Check(ctx, service)
	if err != nil {
		return false, err
	}
	return st == healthpb.HealthCheckResponse_SERVING, nil
}

// WaitServing polls every interval until service is SERVING or ctx is done.
func (c *Client) WaitServing(ctx context.Context, service string, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultHealthCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := trace.Logger(ctx)
	for {
		ok, err := c.Serving(ctx, service)
		if ok {
			return nil
		}
		log.Debug("health not serving yet", "service", service, "error", err)

		select {
		case <-ctx.Done():
			return apperrors.Wrapf(ctx.Err(), apperrors.CodeUnavailable, "%s not serving", service)
		case <-ticker.C:
		}
	}
}
