package fixer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// classTokenPattern is the utility-class grammar tailwind_validator.py
// accepts: zero or more colon-separated state variants (hover:, focus:,
// md:, group-hover:, ...), a utility name, and an optional bracketed
// arbitrary value ([10px], [#1a1a1a]).
var classTokenPattern = regexp.MustCompile(`^(?:[a-zA-Z][a-zA-Z0-9-]*:)*[a-zA-Z][a-zA-Z0-9-]*(?:\[[^\]\s]+\])?$`)

// forbiddenJSAPIs is the denylist patch_validator.py / js_validator.py
// reject outright — a match anywhere in a patch's code or handler fields
// drops the whole patch regardless of patch type, grounded on spec §4.H's
// "must not invoke forbidden APIs (eval, the Function constructor,
// document.write, outgoing fetch, storage wipes)".
var forbiddenJSAPIs = []string{
	"eval(",
	"new Function(",
	"Function(",
	"document.write(",
	"fetch(",
	"localStorage.clear(",
	"sessionStorage.clear(",
}

// PatchValidator gates every model-proposed patch before it reaches
// TailwindInjector.Inject / JSPatcher.Apply, grounded on
// html_fixer/validators/patch_validator.py + tailwind_validator.py +
// js_validator.py. Invalid patches are dropped, never applied; callers log
// the Reason carried on each dropped entry.
type PatchValidator struct{}

// NewPatchValidator builds a PatchValidator.
func NewPatchValidator() *PatchValidator { return &PatchValidator{} }

// ValidateTailwind drops any patch whose selector doesn't resolve against
// html, or whose class tokens don't match the utility-class grammar,
// grounded on tailwind_validator.py's TailwindPatchValidator.validate.
func (PatchValidator) ValidateTailwind(html string, patches []TailwindPatch) (valid []TailwindPatch, dropped []FailedPatch) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		for _, p := range patches {
			dropped = append(dropped, FailedPatch{Patch: p, Reason: "document did not parse"})
		}
		return nil, dropped
	}

	for _, p := range patches {
		if strings.TrimSpace(p.Selector) == "" {
			dropped = append(dropped, FailedPatch{Patch: p, Reason: "empty selector"})
			continue
		}
		if doc.Find(p.Selector).Length() == 0 {
			dropped = append(dropped, FailedPatch{Patch: p, Reason: "selector does not resolve"})
			continue
		}
		if bad := firstInvalidClassToken(p.AddClasses); bad != "" {
			dropped = append(dropped, FailedPatch{Patch: p, Reason: "invalid class token: " + bad})
			continue
		}
		if bad := firstInvalidClassToken(p.RemoveClasses); bad != "" {
			dropped = append(dropped, FailedPatch{Patch: p, Reason: "invalid class token: " + bad})
			continue
		}
		valid = append(valid, p)
	}
	return valid, dropped
}

func firstInvalidClassToken(tokens []string) string {
	for _, t := range tokens {
		if !classTokenPattern.MatchString(t) {
			return t
		}
	}
	return ""
}

// ValidateJS drops any patch whose code or handler fields reference a
// forbidden API, contain unbalanced braces/parens, or — for
// fix_dom_reference — whose new_reference id doesn't exist in html,
// grounded on js_validator.py's JSPatchValidator.validate.
func (PatchValidator) ValidateJS(html string, patches []JSPatch) (valid []JSPatch, dropped []FailedJSPatch) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		for _, p := range patches {
			dropped = append(dropped, FailedJSPatch{Patch: p, Reason: "document did not parse"})
		}
		return nil, dropped
	}

	for _, p := range patches {
		code := p.FunctionCode + " " + p.NewHandler
		if api := firstForbiddenAPI(code); api != "" {
			dropped = append(dropped, FailedJSPatch{Patch: p, Reason: "forbidden API: " + api})
			continue
		}
		if !bracesBalanced(code) {
			dropped = append(dropped, FailedJSPatch{Patch: p, Reason: "unbalanced braces or parentheses"})
			continue
		}
		if p.Type == JSPatchFixDOMReference && !domReferenceExists(doc, p.NewReference) {
			dropped = append(dropped, FailedJSPatch{Patch: p, Reason: "new_reference not found in document: " + p.NewReference})
			continue
		}
		valid = append(valid, p)
	}
	return valid, dropped
}

func firstForbiddenAPI(code string) string {
	for _, api := range forbiddenJSAPIs {
		if strings.Contains(code, api) {
			return strings.TrimSuffix(api, "(")
		}
	}
	return ""
}

// bracesBalanced checks braces and parens are balanced and never close a
// kind they didn't open, grounded on js_validator.py's bracket-matching
// check ahead of applying any patch.
func bracesBalanced(code string) bool {
	pairs := map[rune]rune{'}': '{', ')': '('}
	var stack []rune
	for _, r := range code {
		switch r {
		case '{', '(':
			stack = append(stack, r)
		case '}', ')':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func domReferenceExists(doc *goquery.Document, id string) bool {
	if id == "" {
		return false
	}
	return doc.Find("#" + id).Length() > 0
}
