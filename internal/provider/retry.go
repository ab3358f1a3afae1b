package provider

import (
	"context"
	"math"
	"strings"
	"time"
)

// RetryPolicy controls RetryingProvider's backoff behavior, grounded on the
// teacher's RetryPolicy/RetryExecutor in
// internal/application/executor/retry.go — same exponential-backoff-plus-
// jitter shape, narrowed from "retry a workflow node" to "retry a failed
// LLM call".
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryPolicy mirrors the teacher's own defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// retryableErrors are the provider error taxonomy entries worth retrying —
// ErrNetwork and ErrQuota are transient by nature, the rest (bad key,
// malformed response) won't succeed on a second attempt.
var retryableErrors = []string{ErrNetwork.Error(), ErrQuota.Error()}

// RetryingProvider wraps a Provider and retries a failed call (Response.OK
// == false with a retryable Error) using exponential backoff, grounded on
// the teacher's RetryExecutor.Execute loop. Methods that already succeed on
// the first attempt pay no overhead beyond the one wrapped call.
type RetryingProvider struct {
	inner  Provider
	policy RetryPolicy
}

// NewRetryingProvider wraps inner with policy. A zero-value policy (all
// fields unset) disables retries entirely — MaxAttempts of 0 means the
// wrapped call runs exactly once.
func NewRetryingProvider(inner Provider, policy RetryPolicy) *RetryingProvider {
	return &RetryingProvider{inner: inner, policy: policy}
}

func (r *RetryingProvider) Kind() Kind { return r.inner.Kind() }

func (r *RetryingProvider) HealthCheck(ctx context.Context) bool { return r.inner.HealthCheck(ctx) }

func (r *RetryingProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	return r.withRetry(ctx, req, r.inner.Complete)
}

func (r *RetryingProvider) CompleteJSON(ctx context.Context, req Request) (*Response, error) {
	return r.withRetry(ctx, req, r.inner.CompleteJSON)
}

func (r *RetryingProvider) CompleteWithVision(ctx context.Context, req Request) (*Response, error) {
	return r.withRetry(ctx, req, r.inner.CompleteWithVision)
}

func (r *RetryingProvider) CompleteWithGrounding(ctx context.Context, req Request) (*Response, error) {
	return r.withRetry(ctx, req, r.inner.CompleteWithGrounding)
}

type completeFunc func(ctx context.Context, req Request) (*Response, error)

func (r *RetryingProvider) withRetry(ctx context.Context, req Request, call completeFunc) (*Response, error) {
	var resp *Response
	var err error

	for attempt := 0; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return resp, ctx.Err()
			case <-time.After(r.delay(attempt)):
			}
		}

		resp, err = call(ctx, req)
		if err != nil || resp == nil || resp.OK || !isRetryable(resp.Error) {
			return resp, err
		}
	}

	return resp, err
}

func (r *RetryingProvider) delay(attempt int) time.Duration {
	d := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if r.policy.MaxDelay > 0 && d > float64(r.policy.MaxDelay) {
		d = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitter := d * 0.1 * (2*float64(time.Now().UnixNano()%1000)/1000 - 1)
		d += jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func isRetryable(errMsg string) bool {
	for _, candidate := range retryableErrors {
		if strings.Contains(errMsg, candidate) {
			return true
		}
	}
	return false
}
