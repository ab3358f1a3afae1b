package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/intentservice"
	"github.com/jarvis-brain/core/internal/layout/generator"
	"github.com/jarvis-brain/core/internal/layout/pipeline"
	"github.com/jarvis-brain/core/internal/layout/validate"
)

func TestServiceAdapter_SuccessReturnsDisplayResult(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: true, HTML: "<html>ok</html>"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: true, FinalScore: 0.9}}}
	rep := &fakeRepairer{}

	p := pipeline.New(discardLogger(), gen, val, rep, 2)
	adapter := pipeline.NewServiceAdapter(p)

	result, err := adapter.Process(context.Background(), intentservice.DisplayRequest{UserRequest: "show trivia"})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "<html>ok</html>", result.HTML)
	assert.Equal(t, 0.9, result.FinalScore)
}

func TestServiceAdapter_GenerationFailureReturnsError(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Success: false, Error: "provider unavailable"}}
	val := &fakeValidator{reports: []validate.Report{{Passed: true}}}
	rep := &fakeRepairer{}

	p := pipeline.New(discardLogger(), gen, val, rep, 2)
	adapter := pipeline.NewServiceAdapter(p)

	result, err := adapter.Process(context.Background(), intentservice.DisplayRequest{UserRequest: "show trivia"})

	assert.Error(t, err)
	assert.Nil(t, result)
}
