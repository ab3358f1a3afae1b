package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/testutil"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, provider.CleanMarkdownWrapper(in))
	}
}

func TestJSONRepairLoop_ParsesCleanJSONWithoutRepairCall(t *testing.T) {
	diagnoser := testutil.NewFakeProvider(provider.KindCheap, nil)
	loop := provider.NewJSONRepairLoop(diagnoser, 1)

	out, err := loop.Repair(context.Background(), `{"ok": true}`, diagnoser)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, 0, diagnoser.CallCount())
}

func TestJSONRepairLoop_RepairsViaDiagnoseAndFixCalls(t *testing.T) {
	diagnoser := testutil.NewFakeProvider(provider.KindCheap,
		provider.NewOKResponse(provider.KindCheap, "cheap", "trailing comma before closing brace", provider.TokenUsage{}, 1))

	original := testutil.NewFakeProvider(provider.KindCoder,
		provider.NewOKResponse(provider.KindCoder, "coder", `{"ok": true}`, provider.TokenUsage{}, 1))

	loop := provider.NewJSONRepairLoop(diagnoser, 1)
	out, err := loop.Repair(context.Background(), `{"ok": true,}`, original)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, 1, diagnoser.CallCount())
	assert.Equal(t, 1, original.CallCount())
}

func TestJSONRepairLoop_ExhaustsAndReturnsMalformedOutput(t *testing.T) {
	diagnoser := testutil.NewFakeProvider(provider.KindCheap,
		provider.NewOKResponse(provider.KindCheap, "cheap", "still broken", provider.TokenUsage{}, 1))
	original := testutil.NewFakeProvider(provider.KindCoder,
		provider.NewOKResponse(provider.KindCoder, "coder", `not json at all`, provider.TokenUsage{}, 1))

	loop := provider.NewJSONRepairLoop(diagnoser, 1)
	_, err := loop.Repair(context.Background(), `not json at all`, original)
	require.Error(t, err)
}
