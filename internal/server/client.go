package server

import (
	"context"
	"sync"

	"github.com/coder/websocket"
)

// client is one WebSocket connection. Status pushes go through a single
// writer goroutine that only ever holds the newest undelivered snapshot, so
// a slow client skips frames instead of queueing them.
type client struct {
	conn    *websocket.Conn
	limiter *rateLimiter

	mu      sync.Mutex
	next    *StatusMessage
	lastSeq uint64
	wake    chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:    conn,
		limiter: &rateLimiter{},
		wake:    make(chan struct{}, 1),
	}
}

// offer queues msg unless a snapshot at least as new was already queued or
// sent. It never blocks.
func (c *client) offer(msg StatusMessage) {
	c.mu.Lock()
	if msg.Seq <= c.lastSeq {
		c.mu.Unlock()
		return
	}
	c.next = &msg
	c.lastSeq = msg.Seq
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) take() *StatusMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := c.next
	c.next = nil
	return msg
}

// writeLoop delivers queued snapshots until ctx is done.
func (c *client) writeLoop(ctx context.Context, write func(context.Context, *websocket.Conn, any)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
		if msg := c.take(); msg != nil {
			write(ctx, c.conn, *msg)
		}
	}
}
