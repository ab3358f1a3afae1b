package fixer

import (
	"regexp"
	"strings"

	"github.com/jarvis-brain/core/internal/layout/validate"
)

// FailureReason enumerates the layout-defect classes the deterministic
// rule registry can repair without a model call, grounded on the
// CSS-failure groupings tailwind_prompt_builder.py's system prompt uses to
// steer the LLM toward a utility-class family — collapsed here into a
// fixed lookup so the common cases never need a round trip at all.
type FailureReason string

const (
	ReasonVisibility      FailureReason = "visibility"
	ReasonZIndex          FailureReason = "z_index"
	ReasonPointerEvents   FailureReason = "pointer_events"
	ReasonTransform3D     FailureReason = "transform_3d"
	ReasonStackingContext FailureReason = "stacking_context"
)

// classRule is one deterministic registry entry: the Tailwind utility
// classes that resolve a FailureReason, independent of any diagnosis call.
type classRule struct {
	add    []string
	remove []string
}

// ruleRegistry is the fixed FailureReason -> utility-class table.
var ruleRegistry = map[FailureReason]classRule{
	ReasonVisibility:      {add: []string{"opacity-100", "visible", "block"}, remove: []string{"opacity-0", "invisible", "hidden"}},
	ReasonZIndex:          {add: []string{"z-50", "relative"}},
	ReasonPointerEvents:   {add: []string{"pointer-events-auto"}, remove: []string{"pointer-events-none"}},
	ReasonTransform3D:     {add: []string{"transform-none"}},
	ReasonStackingContext: {add: []string{"relative", "z-10"}},
}

// failureKeywords is checked in order, so the more specific transform and
// stacking-context families are tried before the generic overlap/z-index
// catch-all.
var failureKeywords = []struct {
	reason   FailureReason
	keywords []string
}{
	{ReasonVisibility, []string{"opacity: 0", "display: none", "visibility: hidden", "invisible"}},
	{ReasonPointerEvents, []string{"pointer-events: none", "not clickable", "unresponsive to click"}},
	{ReasonTransform3D, []string{"translatez", "perspective", "3d transform", "backface-visibility"}},
	{ReasonStackingContext, []string{"stacking context", "position: fixed", "position: absolute"}},
	{ReasonZIndex, []string{"z-index", "behind", "overlap"}},
}

var selectorPattern = regexp.MustCompile(`[#.][A-Za-z_][\w-]*`)

// classifyFailure maps a single failure message to the FailureReason it
// most likely describes.
func classifyFailure(msg string) (FailureReason, bool) {
	lower := strings.ToLower(msg)
	for _, k := range failureKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				return k.reason, true
			}
		}
	}
	return "", false
}

// deterministicPatches scans report for failures the rule registry
// recognizes and turns each into a TailwindPatch, with no model call
// involved. A failure is only patchable this way when its message names a
// concrete CSS selector (an #id or .class token); free-form failures
// without one are left for the diagnose/rewrite escalation.
func deterministicPatches(report validate.Report) []TailwindPatch {
	var patches []TailwindPatch
	seen := make(map[string]bool)

	for _, phase := range report.Phases {
		if phase.Passed {
			continue
		}
		for _, msg := range append(append([]string{}, phase.Errors...), phase.Warnings...) {
			reason, ok := classifyFailure(msg)
			if !ok {
				continue
			}
			selector := selectorPattern.FindString(msg)
			if selector == "" {
				continue
			}
			key := string(reason) + selector
			if seen[key] {
				continue
			}
			seen[key] = true

			rule := ruleRegistry[reason]
			patches = append(patches, TailwindPatch{
				Selector:      selector,
				AddClasses:    rule.add,
				RemoveClasses: rule.remove,
				Reason:        string(reason) + ": " + msg,
			})
		}
	}
	return patches
}

var jsErrorPattern = regexp.MustCompile(`(?i)(uncaught|referenceerror|typeerror|syntaxerror|rangeerror)`)

// jsFailureMessages returns the render-phase errors that look like a
// JavaScript exception (as opposed to a blank-page or timeout failure),
// the signal classPatchStep/diagnose can't repair but jspatch.go can.
func jsFailureMessages(report validate.Report) []string {
	var out []string
	for _, phase := range report.Phases {
		if phase.Phase != "render" {
			continue
		}
		for _, e := range phase.Errors {
			if jsErrorPattern.MatchString(e) {
				out = append(out, e)
			}
		}
	}
	return out
}
