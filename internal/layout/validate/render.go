package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	domainerrors "github.com/jarvis-brain/core/internal/domain/errors"
)

// Renderer is phase 1: navigate the shared browser context to html and
// check for blank-page state, grounded on validator.py's LayoutValidator
// (Playwright there, chromedp here — both wrap the same headless-Chromium
// protocol). Page-error subscription happens once at the orchestrator
// level on the one browser context the whole request reuses, so later
// phases' JS errors are also captured. It records uncaught exceptions
// (runtime.EventExceptionThrown) only; console.error calls are not
// collected.
type Renderer struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewRenderer builds a Renderer bounding each navigation by timeout.
func NewRenderer(logger *slog.Logger, timeout time.Duration) *Renderer {
	return &Renderer{logger: logger, timeout: timeout}
}

// Render navigates browserCtx to html and reports blank-page state. Callers
// must check the page errors collected by the orchestrator's shared
// listener (its jsErrors slice) themselves, since zero page errors is part of the phase 1 pass condition
// but the listener outlives this single call.
func (r *Renderer) Render(browserCtx context.Context, html string) (RenderResult, error) {
	start := time.Now()
	if strings.TrimSpace(html) == "" {
		return RenderResult{Valid: false, Errors: []string{"empty HTML provided"}}, nil
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, r.timeout)
	defer timeoutCancel()

	var bodyText string
	var childCount int
	dataURL := "data:text/html;charset=utf-8," + html
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(dataURL),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &bodyText),
		chromedp.Evaluate(`document.body ? document.body.children.length : 0`, &childCount),
	)

	renderMS := float64(time.Since(start).Milliseconds())
	if err != nil {
		r.logger.Error("render failed", "err", err)
		return RenderResult{}, domainerrors.ErrBrowserUnavailable
	}
	if timeoutCtx.Err() != nil {
		return RenderResult{Valid: false, Errors: []string{fmt.Sprintf("page render timed out after %s", r.timeout)}, RenderTime: renderMS}, nil
	}

	var errs, warnings []string
	if strings.TrimSpace(bodyText) == "" {
		errs = append(errs, "page appears to be blank (no visible content)")
	}
	if childCount == 0 {
		warnings = append(warnings, "page has no child elements in body")
	}

	return RenderResult{
		Valid:      len(errs) == 0,
		Errors:     errs,
		Warnings:   warnings,
		RenderTime: renderMS,
	}, nil
}
