package router_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/router"
	"github.com/jarvis-brain/core/internal/testutil"
)

func TestRoute_ParsesClassification(t *testing.T) {
	cheap := testutil.NewFakeProvider(provider.KindCheap,
		provider.NewOKResponse(provider.KindCheap, "cheap", `{"complexity":"complex_execution","reasoning":"needs tool use","confidence":0.8,"is_device_command":true}`, provider.TokenUsage{}, 1))

	r := router.New(cheap, nil, []string{"living room tv"})
	decision, err := r.Route(context.Background(), "turn on the living room tv", nil)
	require.NoError(t, err)
	assert.Equal(t, router.ComplexExecution, decision.Complexity)
	assert.Equal(t, provider.KindCoder, decision.TargetProvider)
	assert.True(t, decision.IsDeviceCommand)
}

func TestRoute_FallsBackToSafeDefaultOnProviderFailure(t *testing.T) {
	cheap := testutil.NewFakeProvider(provider.KindCheap, nil)
	cheap.Errors = []error{assertErr("boom")}

	r := router.New(cheap, nil, nil)
	decision, err := r.Route(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, router.Simple, decision.Complexity)
	assert.Equal(t, provider.KindCheap, decision.TargetProvider)
	assert.Equal(t, 0.5, decision.Confidence)
}

func TestRoute_PendingOperationTakesPrecedence(t *testing.T) {
	cheap := testutil.NewFakeProvider(provider.KindCheap, nil)
	r := router.New(cheap, nil, nil)

	pending := &router.PendingOperation{Kind: "device_disambiguation", IssuedAt: time.Now(), TTL: time.Minute}
	decision, err := r.Route(context.Background(), "the first one", map[string]any{"pending_operation": pending})
	require.NoError(t, err)
	assert.True(t, decision.ShouldRespondDirectly)
	assert.Equal(t, 0, cheap.CallCount())
}

func TestRoute_ExplicitCancelOverridesPending(t *testing.T) {
	cheap := testutil.NewFakeProvider(provider.KindCheap, nil)
	r := router.New(cheap, nil, nil)

	pending := &router.PendingOperation{Kind: "device_disambiguation", IssuedAt: time.Now(), TTL: time.Minute}
	decision, err := r.Route(context.Background(), "never mind", map[string]any{"pending_operation": pending})
	require.NoError(t, err)
	assert.Equal(t, router.Simple, decision.Complexity)
	assert.False(t, decision.ShouldRespondDirectly)
}

func TestRoute_OverrideRuleSkipsClassifier(t *testing.T) {
	cheap := testutil.NewFakeProvider(provider.KindCheap, nil)
	rule := router.OverrideRule{Condition: `device_count > 3`, Complexity: router.ComplexExecution, Reasoning: "large fleet needs the coder tier"}

	r := router.New(cheap, nil, []string{"a", "b", "c", "d"}, rule)
	decision, err := r.Route(context.Background(), "turn everything off", nil)
	require.NoError(t, err)
	assert.Equal(t, router.ComplexExecution, decision.Complexity)
	assert.Equal(t, provider.KindCoder, decision.TargetProvider)
	assert.Equal(t, 0, cheap.CallCount())
}

func TestRoute_OverrideRuleFalseFallsThroughToClassifier(t *testing.T) {
	cheap := testutil.NewFakeProvider(provider.KindCheap,
		provider.NewOKResponse(provider.KindCheap, "cheap", `{"complexity":"simple","reasoning":"chit chat","confidence":0.7}`, provider.TokenUsage{}, 1))
	rule := router.OverrideRule{Condition: `device_count > 3`, Complexity: router.ComplexExecution}

	r := router.New(cheap, nil, []string{"a"}, rule)
	decision, err := r.Route(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, router.Simple, decision.Complexity)
	assert.Equal(t, 1, cheap.CallCount())
}

func TestParseOverrideRules(t *testing.T) {
	rules, err := router.ParseOverrideRules(`device_count > 10 => complex_execution, fleet-wide command; contains(text, "urgent") => complex_reasoning`)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "device_count > 10", rules[0].Condition)
	assert.Equal(t, router.ComplexExecution, rules[0].Complexity)
	assert.Equal(t, "fleet-wide command", rules[0].Reasoning)
	assert.Equal(t, router.ComplexReasoning, rules[1].Complexity)
}

func TestParseOverrideRules_EmptyStringYieldsNoRules(t *testing.T) {
	rules, err := router.ParseOverrideRules("")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
