package fixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/layout/validate"
)

func TestClassifyFailure_MatchesKnownKeywords(t *testing.T) {
	cases := []struct {
		msg    string
		reason FailureReason
	}{
		{"element #modal has opacity: 0", ReasonVisibility},
		{".toast is not clickable", ReasonPointerEvents},
		{"#card uses a 3d transform that breaks layout", ReasonTransform3D},
		{".overlay position: fixed creates a stacking context", ReasonStackingContext},
		{"#tooltip is hidden behind the header (z-index)", ReasonZIndex},
	}
	for _, c := range cases {
		reason, ok := classifyFailure(c.msg)
		require.True(t, ok, c.msg)
		assert.Equal(t, c.reason, reason)
	}
}

func TestClassifyFailure_NoMatch(t *testing.T) {
	_, ok := classifyFailure("the button text is misspelled")
	assert.False(t, ok)
}

func TestDeterministicPatches_RequiresConcreteSelector(t *testing.T) {
	report := validate.Report{Phases: []validate.PhaseResult{
		{Phase: "visual_analysis", Passed: false, Errors: []string{"something has opacity: 0 somewhere"}},
	}}
	assert.Empty(t, deterministicPatches(report))
}

func TestDeterministicPatches_BuildsPatchFromRegistry(t *testing.T) {
	report := validate.Report{Phases: []validate.PhaseResult{
		{Phase: "visual_analysis", Passed: false, Errors: []string{"#cta has opacity: 0 and never shows"}},
	}}
	patches := deterministicPatches(report)
	require.Len(t, patches, 1)
	assert.Equal(t, "#cta", patches[0].Selector)
	assert.Contains(t, patches[0].AddClasses, "opacity-100")
	assert.Contains(t, patches[0].RemoveClasses, "opacity-0")
}

func TestDeterministicPatches_SkipsPassedPhases(t *testing.T) {
	report := validate.Report{Phases: []validate.PhaseResult{
		{Phase: "visual_analysis", Passed: true, Errors: []string{"#cta has opacity: 0"}},
	}}
	assert.Empty(t, deterministicPatches(report))
}

func TestClassPatchStep_AppliesRuleBasedPatch(t *testing.T) {
	html := `<html><body><button id="cta" class="opacity-0">go</button></body></html>`
	report := validate.Report{Phases: []validate.PhaseResult{
		{Phase: "visual_analysis", Passed: false, Errors: []string{"#cta has opacity: 0 and never shows"}},
	}}

	step := newClassPatchStep()
	patched, applied, ok := step.apply(html, report)

	require.True(t, ok)
	require.Len(t, applied, 1)
	assert.Contains(t, patched, "opacity-100")
	assert.NotContains(t, patched, "opacity-0")
}

func TestClassPatchStep_FallsThroughWhenNoRuleMatches(t *testing.T) {
	html := `<html><body>broken</body></html>`
	report := validate.Report{Phases: []validate.PhaseResult{
		{Phase: "visual_analysis", Passed: false, Errors: []string{"missing button element entirely"}},
	}}

	step := newClassPatchStep()
	_, _, ok := step.apply(html, report)
	assert.False(t, ok)
}

func TestJSFailureMessages_OnlyFromRenderPhase(t *testing.T) {
	report := validate.Report{Phases: []validate.PhaseResult{
		{Phase: "render", Errors: []string{"Uncaught ReferenceError: foo is not defined", "page appears to be blank (no visible content)"}},
		{Phase: "interaction", Errors: []string{"ReferenceError: ignored, wrong phase"}},
	}}

	msgs := jsFailureMessages(report)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "ReferenceError: foo is not defined")
}
