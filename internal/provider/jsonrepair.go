package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	coreerrors "github.com/jarvis-brain/core/internal/domain/errors"
)

// CleanMarkdownWrapper strips a ```json ... ``` or ``` ... ``` fence around
// a model's response, grounded on the original's _clean_markdown_wrapper.
func CleanMarkdownWrapper(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx != -1 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "json" || firstLine == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// JSONRepairLoop implements the self-repair flow: parse, diagnose via a
// cheap provider, repair via the original provider, bounded retries,
// grounded on base.py's _validate_json_with_repair / _diagnose_json_error /
// _repair_json.
type JSONRepairLoop struct {
	Diagnoser   Provider
	MaxAttempts int // default 1, per spec's bounded-retry invariant
}

// NewJSONRepairLoop builds a repair loop using the given cheap provider for
// diagnosis calls.
func NewJSONRepairLoop(diagnoser Provider, maxAttempts int) *JSONRepairLoop {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &JSONRepairLoop{Diagnoser: diagnoser, MaxAttempts: maxAttempts}
}

// Repair parses raw as JSON, attempting the diagnose+repair cycle against
// original (the provider whose output this is) up to MaxAttempts times
// before giving up and returning ErrMalformedOutput verbatim.
func (l *JSONRepairLoop) Repair(ctx context.Context, raw string, original Provider) (map[string]any, error) {
	cleaned := CleanMarkdownWrapper(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out, nil
	}

	current := cleaned
	for attempt := 0; attempt < l.MaxAttempts; attempt++ {
		fragment := l.largestParseableFragment(current)
		diagnosis, err := l.diagnose(ctx, current, fragment)
		if err != nil {
			continue
		}

		repaired, err := l.repair(ctx, original, current, diagnosis)
		if err != nil {
			continue
		}
		repaired = CleanMarkdownWrapper(repaired)

		if err := json.Unmarshal([]byte(repaired), &out); err == nil {
			return out, nil
		}
		current = repaired
	}

	return nil, fmt.Errorf("%w: %s", coreerrors.ErrMalformedOutput, current)
}

// largestParseableFragment trims trailing characters off s until the
// remainder both parses as JSON and resolves to an object or array via
// gojq's "type" filter — a bare scalar (a truncated number, "null") parses
// fine but isn't a useful anchor for the diagnosis prompt, so it's rejected
// in favor of a shorter, structurally meaningful prefix.
func (l *JSONRepairLoop) largestParseableFragment(s string) string {
	query, err := gojq.Parse("type")
	if err != nil {
		return ""
	}

	for end := len(s); end > 0; end-- {
		candidate := s[:end]
		var v any
		if err := json.Unmarshal([]byte(candidate), &v); err != nil {
			continue
		}
		iter := query.Run(v)
		result, ok := iter.Next()
		if !ok {
			continue
		}
		if kind, ok := result.(string); ok && (kind == "object" || kind == "array") {
			return candidate
		}
	}
	return ""
}

func (l *JSONRepairLoop) diagnose(ctx context.Context, malformed, fragment string) (string, error) {
	prompt := fmt.Sprintf(
		"The following text was supposed to be valid JSON but failed to parse.\n"+
			"Malformed text:\n%s\n\n"+
			"Largest parseable prefix:\n%s\n\n"+
			"Describe precisely what is wrong (unclosed brace, trailing comma, "+
			"unescaped quote, truncation) in one short paragraph.",
		malformed, fragment,
	)
	resp, err := l.Diagnoser.Complete(ctx, Request{Prompt: prompt, Temperature: 0.0, MaxTokens: 300})
	if err != nil || resp == nil || !resp.OK {
		return "", fmt.Errorf("diagnosis call failed")
	}
	return resp.Content, nil
}

func (l *JSONRepairLoop) repair(ctx context.Context, original Provider, malformed, diagnosis string) (string, error) {
	prompt := fmt.Sprintf(
		"Rewrite the following text as strictly valid JSON. Do not add commentary, "+
			"only output the corrected JSON.\n\nDiagnosis: %s\n\nOriginal text:\n%s",
		diagnosis, malformed,
	)
	resp, err := original.Complete(ctx, Request{Prompt: prompt, Temperature: 0.1})
	if err != nil || resp == nil || !resp.OK {
		return "", fmt.Errorf("repair call failed")
	}
	return resp.Content, nil
}
