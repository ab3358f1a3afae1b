package generator_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/layout/generator"
	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleHTML = "<!DOCTYPE html><html><body>hi</body></html>"

func TestGenerate_SuccessExtractsFencedHTML(t *testing.T) {
	fp := testutil.NewFakeProvider(provider.KindReasoner, provider.NewOKResponse(provider.KindReasoner, "m", "```html\n"+sampleHTML+"\n```", provider.TokenUsage{TotalTokens: 42}, 10))
	g := generator.New(fp, discardLogger())

	result := g.Generate(context.Background(), generator.GenerationContext{UserRequest: "show me trivia", InfoType: "trivia"})
	require.True(t, result.Success)
	assert.Equal(t, sampleHTML, result.HTML)
	assert.Equal(t, 42, result.TokensUsed)
}

func TestGenerate_InvalidStructureFails(t *testing.T) {
	fp := testutil.NewFakeProvider(provider.KindReasoner, provider.NewOKResponse(provider.KindReasoner, "m", "<html><body>no doctype or closing</body>", provider.TokenUsage{}, 5))
	g := generator.New(fp, discardLogger())

	result := g.Generate(context.Background(), generator.GenerationContext{UserRequest: "show me weather"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid HTML structure")
}

func TestGenerate_EmptyRequestFailsFast(t *testing.T) {
	fp := testutil.NewFakeProvider(provider.KindReasoner, provider.NewOKResponse(provider.KindReasoner, "m", sampleHTML, provider.TokenUsage{}, 1))
	g := generator.New(fp, discardLogger())

	result := g.Generate(context.Background(), generator.GenerationContext{})
	assert.False(t, result.Success)
	assert.Equal(t, 0, fp.CallCount())
}

func TestGenerate_ProviderErrorPropagates(t *testing.T) {
	fp := testutil.NewFakeProvider(provider.KindReasoner, provider.NewErrorResponse(provider.KindReasoner, "m", 3, assertErr("boom")))
	g := generator.New(fp, discardLogger())

	result := g.Generate(context.Background(), generator.GenerationContext{UserRequest: "anything"})
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
