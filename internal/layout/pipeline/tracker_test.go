package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jarvis-brain/core/internal/layout/pipeline"
)

func TestBestResultTracker_InitialState(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	assert.Equal(t, "<div>original</div>", tr.BestHTML())
	assert.Equal(t, 0.0, tr.BestScore())
	assert.Equal(t, pipeline.PhaseInitial, tr.BestPhase())
	assert.False(t, tr.Improved())
}

func TestBestResultTracker_UpdateImproves(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	improved := tr.Update("<div>fixed</div>", 0.7, pipeline.PhaseDeterministic, 2)

	assert.True(t, improved)
	assert.Equal(t, "<div>fixed</div>", tr.BestHTML())
	assert.Equal(t, 0.7, tr.BestScore())
	assert.Equal(t, pipeline.PhaseDeterministic, tr.BestPhase())
	assert.Equal(t, 2, tr.BestErrors())
}

func TestBestResultTracker_UpdateNoImprovement(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	tr.Update("<div>fixed</div>", 0.8, pipeline.PhaseDeterministic, 0)
	improved := tr.Update("<div>worse</div>", 0.5, pipeline.PhaseLLMFix, 0)

	assert.False(t, improved)
	assert.Equal(t, "<div>fixed</div>", tr.BestHTML())
	assert.Equal(t, 0.8, tr.BestScore())
}

func TestBestResultTracker_UpdateEqualScoreDoesNotReplace(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	tr.Update("<div>first</div>", 0.7, pipeline.PhaseDeterministic, 0)
	improved := tr.Update("<div>second</div>", 0.7, pipeline.PhaseLLMFix, 0)

	assert.False(t, improved)
	assert.Equal(t, "<div>first</div>", tr.BestHTML())
}

func TestBestResultTracker_ImprovedProperty(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	assert.False(t, tr.Improved())

	tr.Update("<div>fixed</div>", 0.5, pipeline.PhaseDeterministic, 0)
	assert.True(t, tr.Improved())
}

func TestBestResultTracker_ImprovedFalseWhenSameHTML(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	tr.Update("<div>original</div>", 0.5, pipeline.PhaseDeterministic, 0)
	assert.False(t, tr.Improved())
}

func TestBestResultTracker_ImprovedFalseWhenZeroScore(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	assert.False(t, tr.Improved())
}

func TestBestResultTracker_OriginalProperty(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	tr.Update("<div>fixed</div>", 0.9, pipeline.PhaseLLMFix, 0)
	assert.Equal(t, "<div>original</div>", tr.Original())
}

func TestBestResultTracker_UpdatesCount(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	assert.Equal(t, 0, tr.UpdatesCount())

	tr.Update("<div>1</div>", 0.5, pipeline.PhaseDeterministic, 0)
	assert.Equal(t, 1, tr.UpdatesCount())

	tr.Update("<div>2</div>", 0.3, pipeline.PhaseLLMFix, 0)
	assert.Equal(t, 2, tr.UpdatesCount())
}

func TestBestResultTracker_MultipleUpdatesTrackBest(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	tr.Update("<div>1</div>", 0.3, pipeline.PhaseDeterministic, 0)
	tr.Update("<div>2</div>", 0.8, pipeline.PhaseLLMFix, 0)
	tr.Update("<div>3</div>", 0.5, pipeline.PhaseLLMFix, 0)
	tr.Update("<div>4</div>", 0.6, pipeline.PhaseLLMFix, 0)

	assert.Equal(t, "<div>2</div>", tr.BestHTML())
	assert.Equal(t, 0.8, tr.BestScore())
	assert.Equal(t, pipeline.PhaseLLMFix, tr.BestPhase())
}

func TestBestResultTracker_Describe(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	tr.Update("<div>fixed</div>", 0.85, pipeline.PhaseDeterministic, 2)

	desc := tr.Describe()
	assert.Contains(t, desc, "IMPROVED")
	assert.Contains(t, desc, "85")
	assert.Contains(t, desc, "deterministic")
	assert.Contains(t, desc, "2")
}

func TestBestResultTracker_DescribeUnchanged(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	assert.Contains(t, tr.Describe(), "UNCHANGED")
}

func TestBestResultTracker_String(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")
	tr.Update("<div>fixed</div>", 0.75, pipeline.PhaseDeterministic, 0)

	s := tr.String()
	assert.Contains(t, s, "75")
	assert.Contains(t, s, "deterministic")
}

func TestBestResultTracker_BestErrorsTracking(t *testing.T) {
	tr := pipeline.NewBestResultTracker("<div>original</div>")

	tr.Update("<div>1</div>", 0.5, pipeline.PhaseDeterministic, 5)
	assert.Equal(t, 5, tr.BestErrors())

	tr.Update("<div>2</div>", 0.8, pipeline.PhaseLLMFix, 2)
	assert.Equal(t, 2, tr.BestErrors())

	tr.Update("<div>3</div>", 0.6, pipeline.PhaseLLMFix, 3)
	assert.Equal(t, 2, tr.BestErrors())
}
