// Package generator produces a full HTML document from a display request
// using the reasoner provider tier, grounded on
// app/ai/scene/custom_layout/generator/html_generator.py's HTMLGenerator.
package generator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jarvis-brain/core/internal/provider"
)

const defaultMaxTokens = 16000
const defaultTemperature = 0.3

// Generator turns a GenerationContext into a full HTML document, grounded on
// HTMLGenerator.generate.
type Generator struct {
	provider    provider.Provider
	logger      *slog.Logger
	temperature float64
	maxTokens   int
}

// New builds a Generator backed by p, which must be the reasoner tier.
func New(p provider.Provider, logger *slog.Logger) *Generator {
	return &Generator{provider: p, logger: logger, temperature: defaultTemperature, maxTokens: defaultMaxTokens}
}

// Generate produces HTML for ctx.
func (g *Generator) Generate(ctx context.Context, genCtx GenerationContext) Result {
	if g.provider == nil {
		return Result{Success: false, Error: "LLM provider not available"}
	}
	if genCtx.UserRequest == "" {
		return Result{Success: false, Error: "user request must not be empty"}
	}

	userPrompt := buildUserPrompt(genCtx)
	g.logger.Info("generating html", "info_type", genCtx.InfoType, "request_preview", preview(genCtx.UserRequest, 50))

	resp, err := g.provider.Complete(ctx, provider.Request{
		SystemPrompt: systemPrompt,
		Prompt:       userPrompt,
		Temperature:  g.temperature,
		MaxTokens:    g.maxTokens,
	})
	if err != nil {
		g.logger.Error("html generation call failed", "err", err)
		return Result{Success: false, Error: err.Error()}
	}
	if !resp.OK {
		g.logger.Error("html generation failed", "err", resp.Error)
		return Result{Success: false, Error: resp.Error, LatencyMS: resp.LatencyMS, Model: resp.Model}
	}

	html := extractHTML(resp.Content)
	if html == "" {
		g.logger.Warn("no valid html extracted from response")
		return Result{Success: false, Error: "no valid HTML in response", TokensUsed: resp.Usage.TotalTokens, LatencyMS: resp.LatencyMS, Model: resp.Model}
	}
	if !isValidHTML(html) {
		g.logger.Warn("generated html has invalid structure")
		return Result{Success: false, HTML: html, Error: "invalid HTML structure", TokensUsed: resp.Usage.TotalTokens, LatencyMS: resp.LatencyMS, Model: resp.Model}
	}

	g.logger.Info("generated html", "chars", len(html), "latency_ms", resp.LatencyMS)
	return Result{
		Success:      true,
		HTML:         html,
		TokensUsed:   resp.Usage.TotalTokens,
		LatencyMS:    resp.LatencyMS,
		ThinkingUsed: true,
		Model:        resp.Model,
	}
}

// extractHTML strips markdown fences and trims to the DOCTYPE/html boundary,
// grounded on HTMLGenerator._extract_html.
func extractHTML(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(content, "```html"):
		content = content[len("```html"):]
	case strings.HasPrefix(content, "```"):
		content = content[len("```"):]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	lowerHasDoctype := strings.HasPrefix(content, "<!DOCTYPE") || strings.HasPrefix(content, "<!doctype")
	if !lowerHasDoctype && !strings.HasPrefix(content, "<html") {
		if idx := strings.Index(content, "<!DOCTYPE"); idx != -1 {
			content = content[idx:]
		} else if idx := strings.Index(content, "<html"); idx != -1 {
			content = content[idx:]
		} else {
			return ""
		}
	}
	return content
}

// isValidHTML does a minimal structural sanity check, grounded on
// HTMLGenerator._is_valid_html.
func isValidHTML(html string) bool {
	if html == "" {
		return false
	}
	hasDoctype := strings.Contains(html, "<!DOCTYPE") || strings.Contains(html, "<!doctype")
	hasHTMLTag := strings.Contains(html, "<html")
	hasBody := strings.Contains(html, "<body")
	hasClosing := strings.Contains(html, "</html>")
	return hasDoctype && hasHTMLTag && hasBody && hasClosing
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
