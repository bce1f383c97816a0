package syncx

import (
	"sync"
	"sync/atomic"
)

// Latest is a read-copy-update cell. A single producer builds a new value off
// to the side and publishes it with Store; readers Load the current pointer
// without taking a lock. Published values must not be mutated afterwards.
type Latest[T any] struct {
	ptr     atomic.Pointer[T]
	version atomic.Uint64

	mu      sync.Mutex
	changed chan struct{}
}

// NewLatest creates an empty cell.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{changed: make(chan struct{})}
}

// Load returns the published value, or nil before the first Store.
func (l *Latest[T]) Load() *T {
	return l.ptr.Load()
}

// Version counts publications. Zero means nothing was published yet.
func (l *Latest[T]) Version() uint64 {
	return l.version.Load()
}

// Store publishes v and wakes everyone waiting on Changed.
func (l *Latest[T]) Store(v *T) {
	l.ptr.Store(v)
	l.version.Add(1)

	l.mu.Lock()
	close(l.changed)
	l.changed = make(chan struct{})
	l.mu.Unlock()
}

// Changed returns a channel closed at the next Store.
func (l *Latest[T]) Changed() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.changed
}
