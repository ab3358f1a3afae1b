package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jarvis-brain/core/internal/layout/validate"
)

func TestAggregate_CriticalPhaseFailureFails(t *testing.T) {
	agg := validate.NewAggregator()
	phases := []validate.PhaseResult{
		{Phase: "render", Passed: false},
		{Phase: "visual_analysis", Passed: true},
	}
	report := agg.Aggregate(phases, nil, "trivia")
	assert.False(t, report.Passed)
	assert.Equal(t, 0.0, report.FinalScore)
}

func TestAggregate_NoResponsiveInputsFails(t *testing.T) {
	agg := validate.NewAggregator()
	phases := []validate.PhaseResult{{Phase: "render", Passed: true}}
	interactions := []validate.InteractionResult{{Responsive: false}, {Responsive: false}}
	report := agg.Aggregate(phases, interactions, "trivia")
	assert.False(t, report.Passed)
}

func TestAggregate_SufficientResponsiveRatioPasses(t *testing.T) {
	agg := validate.NewAggregator()
	phases := []validate.PhaseResult{{Phase: "render", Passed: true}}
	interactions := []validate.InteractionResult{{Responsive: true}, {Responsive: true}, {Responsive: true}}
	report := agg.Aggregate(phases, interactions, "trivia")
	assert.True(t, report.Passed)
	assert.Greater(t, report.FinalScore, 0.0)
}

func TestAggregate_StaticLayoutWithNoInputsPasses(t *testing.T) {
	agg := validate.NewAggregator()
	phases := []validate.PhaseResult{{Phase: "render", Passed: true}}
	report := agg.Aggregate(phases, nil, "static")
	assert.True(t, report.Passed)
	assert.InDelta(t, 0.9, report.FinalScore, 0.01)
}
