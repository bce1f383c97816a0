// Package grpcserver exposes pipeline readiness over the standard gRPC
// health protocol.
package grpcserver

import "time"

// ServiceName is the health service name clients check.
const ServiceName = "swatchqc.Pipeline"

// Keepalive enforcement for probe clients
const (
	MinClientPingInterval = 5 * time.Second
	MaxConnectionIdle     = 5 * time.Minute
)
