package visionrepair

import (
	"context"
	"fmt"
	"strings"

	"github.com/jarvis-brain/core/internal/layout/fixer"
	"github.com/jarvis-brain/core/internal/layout/validate"
	"github.com/jarvis-brain/core/internal/provider"
)

// Repairer runs the two-step vision repair pipeline: a vision-capable
// diagnoser inspects the HTML plus a rendered screenshot and produces a
// precise diagnosis, then a vision-capable repairer rewrites the HTML using
// that diagnosis and the same screenshot. Grounded on
// validation/fixer.py's DirectFixer.repair_with_vision (Flash analysis,
// Pro repair, both with vision).
type Repairer struct {
	diagnoser provider.Provider
	repairer  provider.Provider
	fallback  *fixer.Fixer // non-vision two-step repair, used on any failure
}

// NewRepairer builds a Repairer. diagnoser and repairer must both support
// CompleteWithVision; fallback is used whenever a vision call fails or
// returns unusable output, mirroring the original's fallback-to-repair()
// behavior at every failure point.
func NewRepairer(diagnoser, repairer provider.Provider, fallback *fixer.Fixer) *Repairer {
	return &Repairer{diagnoser: diagnoser, repairer: repairer, fallback: fallback}
}

// Repair fixes html using the rendered screenshot as additional evidence.
// If report.Passed it returns html unchanged. Any vision-step failure falls
// back to the non-vision fixer.Fixer.Repair flow.
func (r *Repairer) Repair(ctx context.Context, html string, report validate.Report, userRequest string, screenshot []byte) (*fixer.RepairResult, error) {
	if report.Passed {
		return &fixer.RepairResult{Success: true, HTML: html, Strategy: "none"}, nil
	}

	optimized := optimizeScreenshot(screenshot)
	dataURL := toDataURL(optimized)

	diagnosis, err := r.diagnose(ctx, html, report, dataURL)
	if err != nil {
		return r.fallback.Repair(ctx, html, report)
	}

	repaired, err := r.repair(ctx, html, report, userRequest, diagnosis, dataURL)
	if err != nil {
		return r.fallback.Repair(ctx, html, report)
	}

	extracted := extractHTML(repaired)
	if extracted == "" {
		return r.fallback.Repair(ctx, html, report)
	}

	return &fixer.RepairResult{Success: true, HTML: extracted, Strategy: "vision_repair"}, nil
}

func (r *Repairer) diagnose(ctx context.Context, html string, report validate.Report, imageURL string) (string, error) {
	prompt := fmt.Sprintf(
		"Look at the attached screenshot of the rendered page below. This is what the "+
			"HTML currently produces.\n\nValidation failures:\n%s\n\nHTML:\n%s\n\n"+
			"Diagnose precisely what is visually wrong and which elements or classes "+
			"need to change to fix it. Be specific about selectors and the exact change "+
			"needed; this diagnosis will be handed to another model to apply.",
		formatFailures(report), html,
	)
	resp, err := r.diagnoser.CompleteWithVision(ctx, provider.Request{Prompt: prompt, ImageURL: imageURL, Temperature: 0.0, MaxTokens: 4096})
	if err != nil || resp == nil || !resp.OK {
		return "", fmt.Errorf("vision diagnosis call failed")
	}
	return resp.Content, nil
}

func (r *Repairer) repair(ctx context.Context, html string, report validate.Report, userRequest, diagnosis, imageURL string) (string, error) {
	prompt := fmt.Sprintf(
		"Repair the following HTML so it matches what the user asked for and resolves "+
			"the diagnosis below. The attached screenshot shows the current rendered "+
			"state.\n\nUser request: %s\n\nDiagnosis:\n%s\n\nOriginal HTML:\n%s\n\n"+
			"Output only the complete corrected HTML document, no commentary, no "+
			"markdown fences.",
		userRequest, diagnosis, html,
	)
	resp, err := r.repairer.CompleteWithVision(ctx, provider.Request{Prompt: prompt, ImageURL: imageURL, Temperature: 0.2, MaxTokens: 16384})
	if err != nil || resp == nil || !resp.OK {
		return "", fmt.Errorf("vision repair call failed")
	}
	return resp.Content, nil
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
