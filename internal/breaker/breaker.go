// Package breaker provides a counting circuit breaker guarding the status
// computation path against a repeatedly failing signal source or engine.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit is open and the call is rejected
// without being attempted.
var ErrOpen = errors.New("circuit breaker open")

// State is the breaker's position.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // failing fast
	StateHalfOpen              // probing recovery with one trial call
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Defaults per the service contract.
const (
	DefaultThreshold = 5
	DefaultRecovery  = 30 * time.Second
)

// Stats is a snapshot of breaker counters.
type Stats struct {
	State               State     `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFailures       int64     `json:"total_failures"`
	TotalSuccesses      int64     `json:"total_successes"`
	Rejected            int64     `json:"rejected"`
	OpenedAt            time.Time `json:"opened_at,omitempty"`
}

// Breaker opens after a run of consecutive failures, fails fast for a
// recovery window, then half-opens to let exactly one trial call decide
// whether to close again.
type Breaker struct {
	mu        sync.Mutex
	state     State
	threshold int
	recovery  time.Duration
	failures  int
	openedAt  time.Time
	probing   bool

	totalFailures  int64
	totalSuccesses int64
	rejected       int64

	onStateChange func(from, to State)

	now func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold sets the consecutive-failure count that opens the circuit.
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithRecovery sets how long the circuit stays open before half-opening.
func WithRecovery(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.recovery = d
		}
	}
}

// WithStateChange registers a callback invoked on every transition. Called
// outside the breaker lock is not guaranteed; keep it cheap.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onStateChange = fn }
}

// withClock overrides time for tests.
func withClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a closed breaker.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		threshold: DefaultThreshold,
		recovery:  DefaultRecovery,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn if the circuit admits it. When open it returns ErrOpen
// immediately; in half-open only one in-flight trial is admitted at a time.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.recovery {
			b.rejected++
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			b.rejected++
			return ErrOpen
		}
		b.probing = true
		return nil
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.totalSuccesses++
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		b.probing = false
		return
	}

	b.totalFailures++
	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.reopen()
	case StateClosed:
		if b.failures >= b.threshold {
			b.reopen()
		}
	}
	b.probing = false
}

// reopen must be called with the lock held.
func (b *Breaker) reopen() {
	b.openedAt = b.now()
	b.transition(StateOpen)
}

// transition must be called with the lock held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}

// State returns the current position, accounting for an elapsed recovery
// window on an open circuit.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.recovery {
		return StateHalfOpen
	}
	return b.state
}

// Stats returns a snapshot of the breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:               b.state,
		ConsecutiveFailures: b.failures,
		TotalFailures:       b.totalFailures,
		TotalSuccesses:      b.totalSuccesses,
		Rejected:            b.rejected,
		OpenedAt:            b.openedAt,
	}
}
