package resilience

import (
	"sync"
	"time"
)

// Circuit breaker defaults. State is process-local and reset on restart: the
// protected dependency is assumed to recover within seconds to minutes.
const (
	FailureThreshold = 5
	RecoveryWindow   = 60 * time.Second
)

// circuitState is the state of one named circuit.
type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

// circuit tracks failures for one logical endpoint name.
type circuit struct {
	failures    int
	lastFailure time.Time
	state       circuitState
}

// CircuitBreaker guards outbound calls per logical endpoint name. The map is
// mutex-guarded so the layer is safe under concurrent request handling.
type CircuitBreaker struct {
	mu       sync.Mutex
	circuits map[string]*circuit
	now      func() time.Time
}

// NewCircuitBreaker creates an empty breaker registry.
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		circuits: make(map[string]*circuit),
		now:      time.Now,
	}
}

// Allow reports whether a call on the named circuit may proceed. An open
// circuit fails fast until the recovery window elapses, at which point it
// turns half-open and exactly one probe call is let through.
func (b *CircuitBreaker) Allow(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[name]
	if !ok {
		return nil
	}

	switch c.state {
	case stateOpen:
		if b.now().Sub(c.lastFailure) < RecoveryWindow {
			return ErrCircuitOpen
		}
		// Window elapsed: let one probe through.
		c.state = stateHalfOpen
		return nil
	case stateHalfOpen:
		// A probe is already in flight.
		return ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess resets the named circuit to closed with a zero failure count.
func (b *CircuitBreaker) RecordSuccess(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[name]
	if !ok {
		return
	}
	c.failures = 0
	c.state = stateClosed
}

// RecordFailure increments the named circuit's failure counter. Crossing the
// threshold, or failing the half-open probe, opens the circuit.
func (b *CircuitBreaker) RecordFailure(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[name]
	if !ok {
		c = &circuit{}
		b.circuits[name] = c
	}

	c.failures++
	c.lastFailure = b.now()
	if c.state == stateHalfOpen || c.failures >= FailureThreshold {
		c.state = stateOpen
	}
}

// State returns the current state name for a circuit, for inspection.
func (b *CircuitBreaker) State(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[name]
	if !ok {
		return "closed"
	}
	switch c.state {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
