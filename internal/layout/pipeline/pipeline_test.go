package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/layout/fixer"
	"github.com/jarvis-brain/core/internal/layout/generator"
	"github.com/jarvis-brain/core/internal/layout/pipeline"
	"github.com/jarvis-brain/core/internal/layout/validate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGenerator struct {
	result generator.Result
}

func (f *fakeGenerator) Generate(ctx context.Context, genCtx generator.GenerationContext) generator.Result {
	return f.result
}

type fakeValidator struct {
	reports []validate.Report
	calls   int
}

func (f *fakeValidator) Run(ctx context.Context, html, userRequest, layoutType string) validate.Report {
	idx := f.calls
	f.calls++
	if idx < len(f.reports) {
		return f.reports[idx]
	}
	return f.reports[len(f.reports)-1]
}

type fakeRepairer struct {
	result *fixer.RepairResult
	err    error
	calls  int
}

func (f *fakeRepairer) Repair(ctx context.Context, html string, report validate.Report) (*fixer.RepairResult, error) {
	f.calls++
	return f.result, f.err
}

func TestProcess_GenerationFailureReturnsNoHTML(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: false, Error: "provider unavailable"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: true}}}
	rep := &fakeRepairer{}

	p := pipeline.New(discardLogger(), gen, val, rep, 2)
	result := p.Process(context.Background(), pipeline.Request{UserRequest: "show trivia"})

	assert.False(t, result.Success)
	assert.Empty(t, result.HTML)
	assert.Contains(t, result.Error, "generation failed")
	assert.Equal(t, 0, val.calls)
}

func TestProcess_SkipValidationReturnsGeneratedHTML(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: true, HTML: "<html>ok</html>"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: true}}}
	rep := &fakeRepairer{}

	p := pipeline.New(discardLogger(), gen, val, rep, 2).WithSkipValidation(true)
	result := p.Process(context.Background(), pipeline.Request{UserRequest: "show trivia"})

	require.True(t, result.Success)
	assert.Equal(t, "<html>ok</html>", result.HTML)
	assert.Equal(t, 1.0, result.FinalScore)
	assert.Equal(t, 0, val.calls)
}

func TestProcess_PassingFirstValidationStopsImmediately(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: true, HTML: "<html>ok</html>"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: true, FinalScore: 0.95}}}
	rep := &fakeRepairer{}

	p := pipeline.New(discardLogger(), gen, val, rep, 2)
	result := p.Process(context.Background(), pipeline.Request{UserRequest: "show trivia"})

	require.True(t, result.Success)
	assert.Equal(t, "<html>ok</html>", result.HTML)
	assert.Equal(t, 0.95, result.FinalScore)
	assert.Equal(t, 1, val.calls)
	assert.Equal(t, 0, rep.calls)
}

func TestProcess_FailingValidationTriggersRepairThenRevalidates(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: true, HTML: "<html>broken</html>"}}
	val := &fakeValidator{reports: []validate.Report{
		{Passed: false, FinalScore: 0.3, Phases: []validate.PhaseResult{{Phase: "interaction", Passed: false}}},
		{Passed: true, FinalScore: 0.9},
	}}
	rep := &fakeRepairer{result: &fixer.RepairResult{Success: true, HTML: "<html>patched</html>", Strategy: "tailwind_patch"}}

	p := pipeline.New(discardLogger(), gen, val, rep, 1)
	result := p.Process(context.Background(), pipeline.Request{UserRequest: "show trivia"})

	require.True(t, result.Success)
	assert.Equal(t, 2, val.calls)
	assert.Equal(t, 1, rep.calls)
	assert.Equal(t, "<html>patched</html>", result.HTML)
	assert.Equal(t, 0.9, result.FinalScore)
}

func TestProcess_RepairFailureKeepsBestSeenHTML(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: true, HTML: "<html>broken</html>"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: false, FinalScore: 0.2}}}
	rep := &fakeRepairer{err: assert.AnError}

	p := pipeline.New(discardLogger(), gen, val, rep, 2)
	result := p.Process(context.Background(), pipeline.Request{UserRequest: "show trivia"})

	assert.Equal(t, "<html>broken</html>", result.HTML)
	assert.Equal(t, 0.2, result.FinalScore)
}

func TestGenerateOnly_ReturnsHTMLWithoutValidating(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: true, HTML: "<html>quick</html>"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: true}}}
	rep := &fakeRepairer{}

	p := pipeline.New(discardLogger(), gen, val, rep, 2)
	result := p.GenerateOnly(context.Background(), pipeline.Request{UserRequest: "quick test"})

	require.True(t, result.Success)
	assert.Equal(t, "<html>quick</html>", result.HTML)
	assert.Equal(t, 0, val.calls)
}
