package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// CircuitState is one of closed/open/half-open, grounded on the teacher's
// CircuitBreaker (internal/application/executor/circuit_breaker.go).
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
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

// CircuitBreakerConfig mirrors the teacher's CircuitBreakerConfig.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultCircuitBreakerConfig mirrors the teacher's defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
	}
}

// CircuitBreaker trips after FailureThreshold consecutive failures, refuses
// calls for Timeout, then lets SuccessThreshold consecutive half-open
// probes through before closing again. Grounded directly on the teacher's
// CircuitBreaker state machine, stripped of its MaxConcurrentRequests
// half-open gate since a single Provider call is never issued concurrently
// against the same breaker from this deployment's one-request-at-a-time
// Process path.
type CircuitBreaker struct {
	mu     sync.Mutex
	config CircuitBreakerConfig
	state  CircuitState

	consecutiveFailures  int
	consecutiveSuccesses int
	openedAt             time.Time
}

// NewCircuitBreaker builds a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs fn under the breaker's protection: refuses immediately while
// open (before Timeout elapses), lets calls through in half-open, and
// records the outcome against the failure/success counters.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.config.Timeout {
			cb.state = StateHalfOpen
			cb.consecutiveSuccesses = 0
			return nil
		}
		return &CircuitBreakerOpenError{OpenedAt: cb.openedAt, Timeout: cb.config.Timeout}
	case StateHalfOpen:
		return nil
	default:
		return errors.New("provider: unknown circuit breaker state")
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFailures++
		cb.consecutiveSuccesses = 0
		if cb.state == StateHalfOpen || cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}
		return
	}

	cb.consecutiveFailures = 0
	if cb.state == StateHalfOpen {
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
			cb.state = StateClosed
		}
	}
}

// State returns the current state, for the Monitor facade to surface.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CircuitBreakerOpenError is returned by Execute while the breaker is open.
type CircuitBreakerOpenError struct {
	OpenedAt time.Time
	Timeout  time.Duration
}

func (e *CircuitBreakerOpenError) Error() string {
	return fmt.Sprintf("provider: circuit breaker open, retry in %v", e.Timeout-time.Since(e.OpenedAt))
}

// CircuitBreakerProvider wraps a Provider so repeated failures stop hitting
// the backend at all for config.Timeout, rather than retrying (or being
// retried by RetryingProvider) into a backend that is already down.
// Composes with RetryingProvider by wrapping it: the breaker sees one
// failure per exhausted retry sequence, not one per attempt.
type CircuitBreakerProvider struct {
	inner   Provider
	breaker *CircuitBreaker
}

// NewCircuitBreakerProvider wraps inner with a breaker built from config.
func NewCircuitBreakerProvider(inner Provider, config CircuitBreakerConfig) *CircuitBreakerProvider {
	return &CircuitBreakerProvider{inner: inner, breaker: NewCircuitBreaker(config)}
}

func (c *CircuitBreakerProvider) Kind() Kind { return c.inner.Kind() }

func (c *CircuitBreakerProvider) HealthCheck(ctx context.Context) bool { return c.inner.HealthCheck(ctx) }

func (c *CircuitBreakerProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	return c.guard(ctx, req, c.inner.Complete)
}

func (c *CircuitBreakerProvider) CompleteJSON(ctx context.Context, req Request) (*Response, error) {
	return c.guard(ctx, req, c.inner.CompleteJSON)
}

func (c *CircuitBreakerProvider) CompleteWithVision(ctx context.Context, req Request) (*Response, error) {
	return c.guard(ctx, req, c.inner.CompleteWithVision)
}

func (c *CircuitBreakerProvider) CompleteWithGrounding(ctx context.Context, req Request) (*Response, error) {
	return c.guard(ctx, req, c.inner.CompleteWithGrounding)
}

func (c *CircuitBreakerProvider) guard(ctx context.Context, req Request, call completeFunc) (*Response, error) {
	var resp *Response
	var callErr error

	err := c.breaker.Execute(func() error {
		resp, callErr = call(ctx, req)
		if callErr != nil {
			return callErr
		}
		if resp != nil && !resp.OK {
			return errors.New(resp.Error)
		}
		return nil
	})

	if err != nil {
		if _, open := err.(*CircuitBreakerOpenError); open {
			return NewErrorResponse(c.inner.Kind(), "", 0, err), nil
		}
	}
	return resp, callErr
}
