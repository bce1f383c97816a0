// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection WebSocket rate limiting
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// WriteTimeout bounds a single WebSocket push
	WriteTimeout = 2 * time.Second

	// MJPEG preview
	MJPEGBoundary = "frame"
	JPEGQuality   = 80

	// MaxBodyBytes caps JSON request bodies
	MaxBodyBytes = 1 << 16

	// setCameraTimeout bounds opening a new source
	setCameraTimeout = 15 * time.Second
)

// Message types pushed over /ws.
const (
	TypeStatus      = "status"
	TypeLighting    = "lighting"
	TypeError       = "error"
	TypeSetLighting = "set_lighting"
)
