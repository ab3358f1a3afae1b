package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jarvis-brain/core/internal/layout/validate"
	"github.com/jarvis-brain/core/internal/provider"
)

// maxPatchRetries bounds how many times the diagnosis and JS-patch calls
// retry after a patch batch came back empty or entirely invalid, grounded
// on spec §4.H: "each call is wrapped with a retry (default 2) carrying
// the previous failed patches as negative context."
const maxPatchRetries = 2

// RepairResult is what Fixer.Repair returns, grounded on
// validation/fixer.py's DirectFixer repair outcome (patched HTML plus a
// strategy label so callers can tell which repair tier produced it).
type RepairResult struct {
	Success  bool
	HTML     string
	Strategy string // "rule_patch", "tailwind_patch", "js_patch", "full_rewrite", or "human_feedback"
	Applied  []TailwindPatch
	Error    string
}

// Fixer runs the escalating diagnose-then-repair flow: the deterministic
// rule registry is tried first with no model call at all; if it finds
// nothing, a cheap provider names what's broken and proposes Tailwind
// class patches; if a JS exception is present, a coder-tier provider
// proposes a JS patch; if none of those fully address the report, a
// reasoner-tier provider rewrites the HTML outright. Grounded on
// validation/fixer.py's DirectFixer.repair() (diagnosis via the Flash-tier
// model, repair via the Pro-tier model) plus js_patch_applier.py's
// JS-specific escalation step.
type Fixer struct {
	diagnoser  provider.Provider
	repairer   provider.Provider
	jsPatcher  provider.Provider
	classPatch *classPatchStep
	injector   *TailwindInjector
	jsApplier  *JSPatcher
	validator  *PatchValidator
	jsonRepair *provider.JSONRepairLoop
}

// NewFixer builds a Fixer. diagnoser should be a cheap-tier Provider,
// repairer a reasoner-tier Provider, and jsPatcher a coder-tier Provider
// used only for the JS-patch escalation, matching the router's tier split.
func NewFixer(diagnoser, repairer, jsPatcher provider.Provider) *Fixer {
	return &Fixer{
		diagnoser:  diagnoser,
		repairer:   repairer,
		jsPatcher:  jsPatcher,
		classPatch: newClassPatchStep(),
		injector:   NewTailwindInjector(),
		jsApplier:  NewJSPatcher(),
		validator:  NewPatchValidator(),
		jsonRepair: provider.NewJSONRepairLoop(diagnoser, 2),
	}
}

type diagnosis struct {
	Patches       []TailwindPatch `json:"patches"`
	NeedsRewrite  bool            `json:"needs_rewrite"`
	RewriteReason string          `json:"rewrite_reason"`
}

// Repair attempts to fix html so it would pass report's failing checks.
// It tries, in order: the deterministic rule registry (no model call), the
// cheap provider's diagnosis + Tailwind patches (retried with negative
// context on an empty/invalid batch), a coder-tier JS patch when the
// report shows a JS exception (retried the same way), and finally a
// reasoner-tier full rewrite, grounded on DirectFixer's escalating
// fallback chain.
func (f *Fixer) Repair(ctx context.Context, html string, report validate.Report) (*RepairResult, error) {
	if patched, applied, ok := f.classPatch.apply(html, report); ok {
		return &RepairResult{Success: true, HTML: patched, Strategy: "rule_patch", Applied: applied}, nil
	}

	diag, appliedHTML, applied, err := f.diagnoseWithRetry(ctx, html, report)
	if err != nil {
		return f.escalate(ctx, html, report, "diagnosis step unavailable")
	}

	if len(applied) > 0 && !diag.NeedsRewrite {
		return &RepairResult{Success: true, HTML: appliedHTML, Strategy: "tailwind_patch", Applied: applied}, nil
	}
	if len(applied) > 0 {
		html = appliedHTML
	}

	if !diag.NeedsRewrite {
		return &RepairResult{Success: false, HTML: html, Strategy: "tailwind_patch", Error: "patches did not resolve the reported failures"}, nil
	}

	return f.escalate(ctx, html, report, diag.RewriteReason)
}

// escalate tries the coder-tier JS patch when report shows a JavaScript
// exception, falling back to the reasoner-tier full rewrite when there's
// no JS signal to act on or the JS patch attempt itself fails to apply.
func (f *Fixer) escalate(ctx context.Context, html string, report validate.Report, reason string) (*RepairResult, error) {
	if msgs := jsFailureMessages(report); len(msgs) > 0 {
		if result, err := f.jsPatchWithRetry(ctx, html, jsErrorPrompt(msgs, html)); err == nil && result.Success {
			return result, nil
		}
	}
	return f.rewrite(ctx, html, report, reason)
}

// FixFromFeedback runs the human-feedback repair path: annotatedHTML
// already carries [ELEMENT #n]/[GLOBAL FEEDBACK] comments describing what a
// user flagged, and feedbackMsgs restates that feedback as plain-text
// negative/positive context for the prompt. This path is JS-patch only —
// no Tailwind diagnosis, no full rewrite — matching spec §4.J's
// human-feedback mode being strictly narrower than the validation-driven
// repair flow. The returned HTML (success or not) still carries the
// annotations; the caller strips them once it's done deciding what to keep.
func (f *Fixer) FixFromFeedback(ctx context.Context, annotatedHTML string, feedbackMsgs []string) (*RepairResult, error) {
	result, err := f.jsPatchWithRetry(ctx, annotatedHTML, feedbackPrompt(feedbackMsgs, annotatedHTML))
	if err != nil || result == nil {
		return &RepairResult{Success: false, HTML: annotatedHTML, Strategy: "human_feedback", Error: "no patch applied"}, nil
	}
	result.Strategy = "human_feedback"
	return result, nil
}

// diagnoseWithRetry calls diagnose up to maxPatchRetries+1 times, feeding
// each prior attempt's dropped/unapplied patches back into the next
// prompt as negative context so the model doesn't propose the same
// invalid or ineffective patch twice. It returns the last diagnosis seen
// (so NeedsRewrite/RewriteReason survive even when no patch ultimately
// applied) plus whatever patches did apply, from whichever attempt first
// produced any.
func (f *Fixer) diagnoseWithRetry(ctx context.Context, html string, report validate.Report) (*diagnosis, string, []TailwindPatch, error) {
	var failedSoFar []FailedPatch
	var lastDiag *diagnosis

	for attempt := 0; attempt <= maxPatchRetries; attempt++ {
		diag, err := f.diagnose(ctx, html, report, failedSoFar)
		if err != nil {
			if lastDiag != nil {
				return lastDiag, html, nil, nil
			}
			return nil, html, nil, err
		}
		lastDiag = diag

		if len(diag.Patches) == 0 {
			continue
		}

		valid, dropped := f.validator.ValidateTailwind(html, diag.Patches)
		for _, d := range dropped {
			slog.Default().Warn("dropped tailwind patch", "selector", d.Patch.Selector, "reason", d.Reason)
		}
		failedSoFar = append(failedSoFar, dropped...)
		if len(valid) == 0 {
			continue
		}

		injected := f.injector.Inject(html, valid)
		for _, d := range injected.Failed {
			slog.Default().Warn("tailwind patch did not apply", "selector", d.Patch.Selector, "reason", d.Reason)
		}
		failedSoFar = append(failedSoFar, injected.Failed...)
		if injected.Success {
			return diag, injected.HTML, injected.Applied, nil
		}
	}

	if lastDiag == nil {
		return nil, html, nil, fmt.Errorf("diagnosis call failed after %d attempts", maxPatchRetries+1)
	}
	return lastDiag, html, nil, nil
}

func (f *Fixer) diagnose(ctx context.Context, html string, report validate.Report, previouslyFailed []FailedPatch) (*diagnosis, error) {
	prompt := fmt.Sprintf(
		"The following HTML layout failed validation.\n\nFailures:\n%s\n\nHTML:\n%s\n\n%s"+
			"Respond with JSON: {\"patches\": [{\"selector\": str, \"add_classes\": [str], "+
			"\"remove_classes\": [str], \"reason\": str}], \"needs_rewrite\": bool, "+
			"\"rewrite_reason\": str}. Propose Tailwind utility-class patches wherever a "+
			"class-level fix would resolve the failure; set needs_rewrite true only when "+
			"no class patch can fix it (missing structure, wrong element type).",
		formatFailures(report), html, formatFailedPatches(previouslyFailed),
	)
	resp, err := f.diagnoser.CompleteJSON(ctx, provider.Request{Prompt: prompt, Temperature: 0.0})
	if err != nil || resp == nil || !resp.OK {
		return nil, fmt.Errorf("diagnosis call failed")
	}

	parsed, err := f.jsonRepair.Repair(ctx, resp.Content, f.diagnoser)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(parsed)
	if err != nil {
		return nil, err
	}
	var d diagnosis
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (f *Fixer) rewrite(ctx context.Context, html string, report validate.Report, reason string) (*RepairResult, error) {
	prompt := fmt.Sprintf(
		"Rewrite the following HTML layout to fix these validation failures. "+
			"Keep the same content and intent, change only what's needed to pass.\n\n"+
			"Failures:\n%s\n\nWhy a full rewrite is needed: %s\n\nOriginal HTML:\n%s\n\n"+
			"Output only the corrected HTML, no commentary.",
		formatFailures(report), reason, html,
	)
	resp, err := f.repairer.Complete(ctx, provider.Request{Prompt: prompt, Temperature: 0.2})
	if err != nil || resp == nil || !resp.OK {
		return &RepairResult{Success: false, HTML: html, Strategy: "full_rewrite", Error: "rewrite call failed"}, nil
	}
	return &RepairResult{Success: true, HTML: extractHTML(resp.Content), Strategy: "full_rewrite"}, nil
}

// jsPatchResponseSchema is the response contract shared by every JS-patch
// prompt, whatever context (rendering errors, human feedback) drove it.
const jsPatchResponseSchema = `Respond with JSON: {"patches": [...]} where each patch is shaped as one of:
{"type": "add_function", "function_code": str, "reason": str}
{"type": "replace_function", "function_name": str, "function_code": str, "reason": str}
{"type": "fix_dom_reference", "old_reference": str, "new_reference": str, "reason": str}
{"type": "modify_handler", "selector": str, "new_handler": str, "reason": str}
Only propose patches that directly address the reported issue. Never use eval, the
Function constructor, document.write, outgoing fetch calls, or storage wipes in a patch.`

// jsPatchWithRetry calls jsPatchCall up to maxPatchRetries+1 times, feeding
// each prior attempt's invalid/unapplied JS patches back as negative
// context via buildPrompt, the same retry-with-failed-patch-history shape
// as diagnoseWithRetry.
func (f *Fixer) jsPatchWithRetry(ctx context.Context, html string, buildPrompt func(previouslyFailed []FailedJSPatch) string) (*RepairResult, error) {
	var failedSoFar []FailedJSPatch
	var lastErr error

	for attempt := 0; attempt <= maxPatchRetries; attempt++ {
		result, failed, err := f.jsPatchCall(ctx, html, buildPrompt(failedSoFar))
		if err != nil {
			lastErr = err
			continue
		}
		failedSoFar = append(failedSoFar, failed...)
		if result != nil && result.Success {
			return result, nil
		}
		lastErr = fmt.Errorf("no js patch applied")
	}
	return nil, lastErr
}

// jsErrorPrompt builds the negative-context-aware prompt for the rendering
// escalation path: msgs are the JS exceptions the orchestrator observed.
func jsErrorPrompt(msgs []string, html string) func([]FailedJSPatch) string {
	return func(previouslyFailed []FailedJSPatch) string {
		return fmt.Sprintf(
			"The following HTML document threw JavaScript errors when rendered.\n\n"+
				"JS errors:\n- %s\n\nHTML:\n%s\n\n%s%s",
			strings.Join(msgs, "\n- "), html, formatFailedJSPatches(previouslyFailed), jsPatchResponseSchema,
		)
	}
}

// feedbackPrompt builds the negative-context-aware prompt for the
// human-feedback path: html already carries [ELEMENT #n]/[GLOBAL FEEDBACK]
// annotations, and msgs restates that feedback as plain-text context.
func feedbackPrompt(msgs []string, html string) func([]FailedJSPatch) string {
	return func(previouslyFailed []FailedJSPatch) string {
		return fmt.Sprintf(
			"A user reviewed this rendered HTML layout and left feedback on specific "+
				"elements and/or the page as a whole. The feedback is embedded as HTML "+
				"comments ([ELEMENT #n] / [GLOBAL FEEDBACK]) directly in the markup below — "+
				"use them to find what to change, but never reproduce an annotation comment "+
				"in your patch code.\n\nFeedback:\n- %s\n\nAnnotated HTML:\n%s\n\n%s%s",
			strings.Join(msgs, "\n- "), html, formatFailedJSPatches(previouslyFailed), jsPatchResponseSchema,
		)
	}
}

// jsPatchCall asks the coder-tier provider to propose JSPatch values for
// prompt, validates and applies them via jsApplier, and reports success
// only if at least one patch actually took — grounded on
// js_prompt_builder.py (prompt construction) and js_patch_applier.py
// (application).
func (f *Fixer) jsPatchCall(ctx context.Context, html, prompt string) (*RepairResult, []FailedJSPatch, error) {
	resp, err := f.jsPatcher.CompleteJSON(ctx, provider.Request{Prompt: prompt, Temperature: 0.1})
	if err != nil || resp == nil || !resp.OK {
		return nil, nil, fmt.Errorf("js patch call failed")
	}

	parsed, err := f.jsonRepair.Repair(ctx, resp.Content, f.jsPatcher)
	if err != nil {
		return nil, nil, err
	}
	raw, err := json.Marshal(parsed)
	if err != nil {
		return nil, nil, err
	}
	var body struct {
		Patches []JSPatch `json:"patches"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, fmt.Errorf("parse js patches: %w", err)
	}
	if len(body.Patches) == 0 {
		return nil, nil, fmt.Errorf("model proposed no js patches")
	}

	valid, dropped := f.validator.ValidateJS(html, body.Patches)
	for _, d := range dropped {
		slog.Default().Warn("dropped js patch", "type", d.Patch.Type, "reason", d.Reason)
	}
	if len(valid) == 0 {
		return nil, dropped, fmt.Errorf("no js patches passed validation")
	}

	result := f.jsApplier.Apply(html, valid)
	for _, d := range result.Failed {
		slog.Default().Warn("js patch did not apply", "type", d.Patch.Type, "reason", d.Reason)
	}
	allFailed := append(dropped, result.Failed...)
	if !result.Success {
		return nil, allFailed, fmt.Errorf("no js patch applied")
	}
	return &RepairResult{Success: true, HTML: result.HTML, Strategy: "js_patch"}, allFailed, nil
}

func formatFailures(report validate.Report) string {
	var b strings.Builder
	for _, p := range report.Phases {
		if p.Passed {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", p.Phase, strings.Join(p.Errors, "; "))
	}
	if b.Len() == 0 {
		return "(no specific phase failures recorded)"
	}
	return b.String()
}

// formatFailedPatches renders previously failed Tailwind patches as a
// negative-context block the next diagnosis prompt is told not to repeat.
func formatFailedPatches(failed []FailedPatch) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("These patches were already tried and did not work — do not propose them again:\n")
	for _, f := range failed {
		fmt.Fprintf(&b, "- selector=%q add=%v remove=%v (%s)\n", f.Patch.Selector, f.Patch.AddClasses, f.Patch.RemoveClasses, f.Reason)
	}
	b.WriteString("\n")
	return b.String()
}

// formatFailedJSPatches renders previously failed JS patches as a
// negative-context block the next JS-patch prompt is told not to repeat.
func formatFailedJSPatches(failed []FailedJSPatch) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("These JS patches were already tried and did not work — do not propose them again:\n")
	for _, f := range failed {
		fmt.Fprintf(&b, "- type=%s function=%q selector=%q (%s)\n", f.Patch.Type, f.Patch.FunctionName, f.Patch.Selector, f.Reason)
	}
	b.WriteString("\n")
	return b.String()
}

func extractHTML(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx != -1 {
			first := strings.TrimSpace(s[:idx])
			if first == "html" || first == "" {
				s = s[idx+1:]
			}
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
