// Package fixer applies deterministic Tailwind class patches and LLM-driven
// two-step repair to HTML that failed validation, grounded on
// app/ai/scene/custom_layout/html_fixer/* and validation/fixer.py.
package fixer

// TailwindPatch is the atomic unit of class-level repair, grounded on
// html_fixer/contracts/patches.py's TailwindPatch.
type TailwindPatch struct {
	Selector      string   `json:"selector"`
	AddClasses    []string `json:"add_classes"`
	RemoveClasses []string `json:"remove_classes"`
	Reason        string   `json:"reason"`
}

// InjectionResult is what Inject returns, grounded on
// tailwind_injector.py's InjectionResult.
type InjectionResult struct {
	Success bool
	HTML    string
	Applied []TailwindPatch
	Failed  []FailedPatch
}

// FailedPatch records a patch that couldn't be applied and why.
type FailedPatch struct {
	Patch  TailwindPatch
	Reason string
}
