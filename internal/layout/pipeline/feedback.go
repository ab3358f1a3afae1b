package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jarvis-brain/core/internal/layout/fixer"
)

// ElementFeedback is one user-reported element issue for human-feedback
// mode, grounded on pipeline.py's human-in-the-loop feedback schema.
type ElementFeedback struct {
	ElementNumber int
	Selector      string
	Status        string // "broken", "wrong", "missing", ...
	UserFeedback  string
}

// FeedbackRepairer is the subset of fixer.Fixer human-feedback mode needs.
// Most Repairer implementations (including fixer.Fixer itself) satisfy it;
// Pipeline discovers support for it at construction time via a type
// assertion rather than widening the Repairer interface every caller must
// implement.
type FeedbackRepairer interface {
	FixFromFeedback(ctx context.Context, annotatedHTML string, feedbackMsgs []string) (*fixer.RepairResult, error)
}

// ProcessFeedback runs spec §4.J's human-feedback pipeline mode: html is
// annotated with [ELEMENT #n]/[GLOBAL FEEDBACK] HTML comments describing
// what the user flagged, repaired via the JS-patch-only FixFromFeedback
// path (no Tailwind diagnosis, no full rewrite, and no re-render through
// the seven-phase validator — this mode trusts the user's own eyes instead
// of re-running visual/interaction checks), and returned with the
// annotations stripped back out.
func (p *Pipeline) ProcessFeedback(ctx context.Context, html string, feedback []ElementFeedback, globalFeedback string) Result {
	start := time.Now()

	if p.feedbackFixer == nil {
		return Result{Success: false, HTML: html, Error: "human-feedback repair is not configured", TotalLatencyMS: elapsedMS(start)}
	}

	msgs := feedbackMessages(feedback, globalFeedback)
	if len(msgs) == 0 {
		return Result{Success: true, HTML: html, FinalScore: 1.0, TotalLatencyMS: elapsedMS(start)}
	}

	annotated := injectFeedbackAnnotations(html, feedback, globalFeedback)
	result, err := p.feedbackFixer.FixFromFeedback(ctx, annotated, msgs)
	if err != nil || result == nil {
		return Result{Success: false, HTML: stripFeedbackAnnotations(html), Error: "feedback repair failed", TotalLatencyMS: elapsedMS(start)}
	}

	finalScore := 0.0
	if result.Success {
		finalScore = 1.0
	}
	return Result{
		Success:        result.Success,
		HTML:           stripFeedbackAnnotations(result.HTML),
		TotalLatencyMS: elapsedMS(start),
		FinalScore:     finalScore,
		Error:          result.Error,
	}
}

func feedbackMessages(feedback []ElementFeedback, globalFeedback string) []string {
	var msgs []string
	for _, f := range feedback {
		msgs = append(msgs, fmt.Sprintf("[ELEMENT #%d] (%s) status=%s: %s", f.ElementNumber, f.Selector, f.Status, f.UserFeedback))
	}
	if globalFeedback != "" {
		msgs = append(msgs, fmt.Sprintf("[GLOBAL FEEDBACK] %s", globalFeedback))
	}
	return msgs
}

// injectFeedbackAnnotations inserts an HTML comment before each flagged
// element (selector must resolve; unresolved feedback is dropped silently
// rather than failing the whole pass) and a page-level comment at the top
// of <body> for globalFeedback, grounded on pipeline.py's feedback
// annotation step. Falls back to the unmodified html if it doesn't parse.
func injectFeedbackAnnotations(html string, feedback []ElementFeedback, globalFeedback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	for _, f := range feedback {
		sel := doc.Find(f.Selector)
		if sel.Length() == 0 {
			continue
		}
		comment := fmt.Sprintf("<!-- [ELEMENT #%d] status:%s user_feedback:%q -->", f.ElementNumber, f.Status, f.UserFeedback)
		sel.First().BeforeHtml(comment)
	}

	if globalFeedback != "" {
		if body := doc.Find("body").First(); body.Length() > 0 {
			body.PrependHtml(fmt.Sprintf("<!-- [GLOBAL FEEDBACK] %s -->", globalFeedback))
		}
	}

	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}

var elementAnnotationRe = regexp.MustCompile(`(?s)<!--\s*\[ELEMENT #\d+\].*?-->`)
var globalAnnotationRe = regexp.MustCompile(`(?s)<!--\s*\[GLOBAL FEEDBACK\].*?-->`)

// stripFeedbackAnnotations removes every [ELEMENT #n]/[GLOBAL FEEDBACK]
// comment from html, grounded on pipeline.py's post-repair annotation
// cleanup — the user never sees their own feedback echoed back as markup.
func stripFeedbackAnnotations(html string) string {
	html = elementAnnotationRe.ReplaceAllString(html, "")
	return globalAnnotationRe.ReplaceAllString(html, "")
}
