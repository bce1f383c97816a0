// Package resilience guards frame sources and RPC peers against repeated
// failure.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the position of a Breaker.
type State uint32

const (
	Closed   State = iota // calls pass
	Open                  // calls rejected until the reset timeout passes
	HalfOpen              // a trial call is allowed through
)

func (s State) String() string {
	return [...]string{"closed", "open", "half-open"}[s]
}

// ErrOpen is returned by Allow and Execute while the breaker rests.
var ErrOpen = errors.New("circuit breaker open")

// Breaker counts consecutive failures and opens after Config.Threshold of
// them. After ResetTimeout it lets one trial through (half-open) and closes
// again after HalfOpenSuccesses successes; any failure while half-open
// reopens it.
type Breaker struct {
	cfg  Config
	now  func() time.Time
	hook func(from, to State)

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// New creates a closed breaker.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// WithHook registers fn to run after every state change. fn runs without
// the breaker's lock held.
func (b *Breaker) WithHook(fn func(from, to State)) *Breaker {
	b.hook = fn
	return b
}

// WithClock replaces the time source.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Allow returns nil if a call may proceed. An open breaker whose reset
// timeout has passed moves to half-open and allows the call.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	if b.state != Open {
		b.mu.Unlock()
		return nil
	}
	if b.now().Sub(b.openedAt) <= b.cfg.ResetTimeout {
		b.mu.Unlock()
		return ErrOpen
	}
	from := b.setLocked(HalfOpen)
	b.mu.Unlock()
	b.notify(from, HalfOpen)
	return nil
}

// Success records a call that worked.
func (b *Breaker) Success() {
	b.mu.Lock()
	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenSuccesses {
			from := b.setLocked(Closed)
			b.mu.Unlock()
			b.notify(from, Closed)
			return
		}
	}
	b.mu.Unlock()
}

// Failure records a call that failed.
func (b *Breaker) Failure() {
	b.mu.Lock()
	b.failures++
	trip := b.state == HalfOpen || (b.state == Closed && b.failures >= b.cfg.Threshold)
	if !trip {
		if b.state == Open {
			b.openedAt = b.now()
		}
		b.mu.Unlock()
		return
	}
	from := b.setLocked(Open)
	b.mu.Unlock()
	b.notify(from, Open)
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.setLocked(Closed)
	b.failures = 0
	b.mu.Unlock()
	b.notify(from, Closed)
}

// Execute runs fn if the breaker allows it and records the outcome. It
// returns ErrOpen without calling fn while the breaker rests.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.Failure()
		return err
	}
	b.Success()
	return nil
}

// setLocked moves to the given state and returns the previous one.
func (b *Breaker) setLocked(to State) State {
	from := b.state
	b.state = to
	b.successes = 0
	switch to {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.failures = 0
	}
	return from
}

func (b *Breaker) notify(from, to State) {
	if from == to {
		return
	}
	log := slog.With("breaker", b.cfg.Name)
	switch to {
	case Closed:
		log.Info("circuit breaker closed")
	case Open:
		log.Warn("circuit breaker opened", "failures", b.Failures())
	case HalfOpen:
		log.Info("circuit breaker half-open")
	}
	if b.hook != nil {
		b.hook(from, to)
	}
}
