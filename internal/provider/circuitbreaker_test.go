package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/testutil"
)

func TestCircuitBreakerProvider_OpensAfterConsecutiveFailures(t *testing.T) {
	fake := testutil.NewFakeProvider(provider.KindCheap, provider.NewErrorResponse(provider.KindCheap, "cheap", 1, provider.ErrNetwork))
	cfg := provider.CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute}

	cb := provider.NewCircuitBreakerProvider(fake, cfg)

	for i := 0; i < 2; i++ {
		resp, err := cb.Complete(context.Background(), provider.Request{})
		require.NoError(t, err)
		assert.False(t, resp.OK)
	}

	// Breaker is now open: the call is refused before reaching fake.
	resp, err := cb.Complete(context.Background(), provider.Request{})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, 2, fake.CallCount())
}

func TestCircuitBreakerProvider_StaysClosedOnSuccess(t *testing.T) {
	fake := testutil.NewFakeProvider(provider.KindCheap, provider.NewOKResponse(provider.KindCheap, "cheap", "ok", provider.TokenUsage{}, 1))
	cb := provider.NewCircuitBreakerProvider(fake, provider.DefaultCircuitBreakerConfig())

	resp, err := cb.Complete(context.Background(), provider.Request{})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 1, fake.CallCount())
}
