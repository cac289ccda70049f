package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting it
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState is the state of a circuit breaker
type CircuitState int

const (
	StateClosed   CircuitState = iota // normal operation
	StateOpen                         // calls fail immediately
	StateHalfOpen                     // probing whether the backend recovered
)

// CircuitBreaker guards calls to an external backend. After maxFailures
// consecutive failures it opens and rejects calls; after resetTimeout it
// lets a small number of probe calls through, closing again once enough
// of them succeed.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	probeMax     int

	mu            sync.RWMutex
	state         CircuitState
	failures      int
	probeSuccess  int
	lastFailure   time.Time
	totalCalls    int64
	totalFailures int64
}

// NewCircuitBreaker creates a closed breaker for the named backend
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		probeMax:     3,
		state:        StateClosed,
	}
}

// Call runs fn under breaker protection. When the breaker is open the
// function is not invoked and ErrCircuitOpen is returned.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.RecordResult(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.probeSuccess = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	}
	return false
}

// RecordResult feeds a call outcome into the breaker's state machine
func (cb *CircuitBreaker) RecordResult(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++

	if success {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.probeSuccess++
			if cb.probeSuccess >= cb.probeMax {
				cb.state = StateClosed
				cb.failures = 0
				cb.probeSuccess = 0
			}
		}
		return
	}

	cb.totalFailures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		// one failed probe reopens the circuit
		cb.state = StateOpen
		cb.probeSuccess = 0
	}
}

// GetState returns the breaker's current state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// GetStats returns cumulative call and failure counts
func (cb *CircuitBreaker) GetStats() (state CircuitState, calls, failures int64) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state, cb.totalCalls, cb.totalFailures
}

// Reset forces the breaker back to closed
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probeSuccess = 0
}
