package fixer

import "github.com/jarvis-brain/core/internal/layout/validate"

// classPatchStep runs the deterministic rule registry over a validation
// report and, if it names any patchable selector, applies the resulting
// patches via injector before any model call is made — grounded on
// tailwind_injector.py's class-level repair, but sourced from rules.go's
// fixed table instead of an LLM diagnosis.
type classPatchStep struct {
	injector *TailwindInjector
}

func newClassPatchStep() *classPatchStep {
	return &classPatchStep{injector: NewTailwindInjector()}
}

// apply returns the patched html, the patches that were applied, and
// whether anything was applied at all. A false return means the caller
// should fall through to the cheap-tier diagnosis step.
func (c *classPatchStep) apply(html string, report validate.Report) (string, []TailwindPatch, bool) {
	patches := deterministicPatches(report)
	if len(patches) == 0 {
		return html, nil, false
	}
	result := c.injector.Inject(html, patches)
	if !result.Success {
		return html, nil, false
	}
	return result.HTML, result.Applied, true
}
