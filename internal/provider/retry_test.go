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

func fastPolicy(maxAttempts int) provider.RetryPolicy {
	return provider.RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestRetryingProvider_RetriesNetworkErrorThenSucceeds(t *testing.T) {
	fake := testutil.NewFakeProvider(provider.KindCheap, nil)
	fake.Responses = []*provider.Response{
		provider.NewErrorResponse(provider.KindCheap, "cheap", 1, provider.ErrNetwork),
		provider.NewOKResponse(provider.KindCheap, "cheap", "ok", provider.TokenUsage{}, 2),
	}

	r := provider.NewRetryingProvider(fake, fastPolicy(2))
	resp, err := r.Complete(context.Background(), provider.Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 2, fake.CallCount())
}

func TestRetryingProvider_DoesNotRetryNonTransientError(t *testing.T) {
	fake := testutil.NewFakeProvider(provider.KindCheap, provider.NewErrorResponse(provider.KindCheap, "cheap", 1, provider.ErrMissingKey))

	r := provider.NewRetryingProvider(fake, fastPolicy(3))
	resp, err := r.Complete(context.Background(), provider.Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, 1, fake.CallCount())
}

func TestRetryingProvider_ExhaustsAttemptsAndReturnsLastFailure(t *testing.T) {
	fake := testutil.NewFakeProvider(provider.KindCheap, provider.NewErrorResponse(provider.KindCheap, "cheap", 1, provider.ErrQuota))

	r := provider.NewRetryingProvider(fake, fastPolicy(2))
	resp, err := r.Complete(context.Background(), provider.Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, 3, fake.CallCount()) // initial attempt + 2 retries
}
