package circuitbreaker

import (
	"sync"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/logger"
)

// State is a point-in-time view of the breaker
type State struct {
	Enabled       bool          `json:"enabled"`
	Open          bool          `json:"open"`
	FailureCount  int           `json:"failure_count"`
	FailThreshold int           `json:"fail_threshold"`
	FailureWindow time.Duration `json:"failure_window"`
	ResetTimeout  time.Duration `json:"reset_timeout"`
	LastFailure   time.Time     `json:"last_failure,omitempty"`
	TripTime      time.Time     `json:"trip_time,omitempty"`
}

// CircuitBreaker stops broadcasts after repeated network failures
type CircuitBreaker struct {
	enabled       bool
	failureCount  int
	failureWindow time.Duration
	failThreshold int
	resetTimeout  time.Duration
	lastFailure   time.Time
	tripped       bool
	tripTime      time.Time
	now           func() time.Time
	logger        logger.Logger
	mu            sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(enabled bool, threshold int, window time.Duration, resetTimeout time.Duration, log logger.Logger) *CircuitBreaker {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &CircuitBreaker{
		enabled:       enabled,
		failThreshold: threshold,
		failureWindow: window,
		resetTimeout:  resetTimeout,
		now:           time.Now,
		logger:        log,
	}
}

// SetClock replaces the time source
func (cb *CircuitBreaker) SetClock(now func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
}

// RecordFailure records a failure and trips the circuit if the threshold is reached
func (cb *CircuitBreaker) RecordFailure() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	if cb.tripped {
		if now.Sub(cb.tripTime) > cb.resetTimeout {
			cb.logger.Notice("Circuit breaker: attempting to reset after timeout")
			cb.tripped = false
			cb.failureCount = 0
		} else {
			return true
		}
	}

	if now.Sub(cb.lastFailure) > cb.failureWindow {
		cb.failureCount = 0
	}

	cb.failureCount++
	cb.lastFailure = now

	if cb.failureCount >= cb.failThreshold {
		cb.tripped = true
		cb.tripTime = now
		cb.logger.Error("Circuit breaker tripped: %d broadcast failures in window", cb.failureCount)
		return true
	}

	return false
}

// RecordSuccess clears the failure count after a broadcast went through
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.tripped {
		cb.failureCount = 0
	}
}

// IsOpen returns true if the circuit is open (tripped)
func (cb *CircuitBreaker) IsOpen() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Half-open after the reset timeout: let the next broadcast through
	if cb.tripped && cb.now().Sub(cb.tripTime) > cb.resetTimeout {
		cb.tripped = false
		cb.failureCount = 0
		return false
	}

	return cb.tripped
}

// Reset manually resets the circuit breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.tripped = false
	cb.failureCount = 0
	cb.logger.Notice("Circuit breaker manually reset")
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	open := cb.IsOpen()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	return State{
		Enabled:       cb.enabled,
		Open:          open,
		FailureCount:  cb.failureCount,
		FailThreshold: cb.failThreshold,
		FailureWindow: cb.failureWindow,
		ResetTimeout:  cb.resetTimeout,
		LastFailure:   cb.lastFailure,
		TripTime:      cb.tripTime,
	}
}

// IsEnabled returns true if the circuit breaker is enabled
func (cb *CircuitBreaker) IsEnabled() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.enabled
}
