// Package breaker implements the circuit breaker protecting outbound API
// calls (GitHub, Linear, Anthropic) and the declarative monitoring
// configuration the `ns breaker` command validates and reports on.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of a circuit breaker.
type State int

const (
	StateClosed   State = iota // normal operation, requests pass through
	StateOpen                  // too many failures, fail fast
	StateHalfOpen              // probing recovery, limited requests allowed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpen is returned by Allow when the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker is a classic three-state circuit breaker. After
// failureThreshold consecutive failures the circuit opens and requests
// fail fast; after openTimeout it half-opens and probes, closing again
// after successThreshold consecutive probe successes.
type Breaker struct {
	mu sync.Mutex

	state            State
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	lastStateChange  time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
}

// New creates a circuit breaker in the closed state.
func New(failureThreshold, successThreshold int, openTimeout time.Duration) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openTimeout:      openTimeout,
		lastStateChange:  time.Now(),
	}
}

// FromConfig creates a circuit breaker from a validated config.
func FromConfig(cfg CircuitBreakerConfig) *Breaker {
	return New(cfg.FailureThreshold, cfg.SuccessThreshold, cfg.OpenTimeout())
}

// Allow reports whether a request may proceed. Returns ErrOpen while the
// circuit is open and the open timeout has not yet elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.lastFailureTime) > b.openTimeout {
			b.transition(StateHalfOpen)
			b.successCount = 0
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		return nil
	default:
		return ErrOpen
	}
}

// RecordSuccess records a successful request.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.transition(StateClosed)
			b.failureCount = 0
			b.successCount = 0
		}
	}
}

// RecordFailure records a failed request.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// A failed probe reopens the circuit immediately.
		b.transition(StateOpen)
		b.successCount = 0
	}
}

// Status is a point-in-time snapshot for reporting.
type Status struct {
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}

// Snapshot returns the breaker's current status.
func (b *Breaker) Snapshot() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Status{
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailure:     b.lastFailureTime,
		LastStateChange: b.lastStateChange,
	}
}

func (b *Breaker) transition(to State) {
	b.state = to
	b.lastStateChange = time.Now()
}
