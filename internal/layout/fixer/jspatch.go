package fixer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JSPatchType enumerates the JavaScript modifications jspatch.go can
// apply, a subset of html_fixer/fixers/llm/contracts/js_patch.py's
// JSPatchType covering the patch shapes js_prompt_builder.py actually asks
// the model to produce (function add/replace, stale DOM-id retargeting,
// inline handler rewrite).
type JSPatchType string

const (
	JSPatchAddFunction     JSPatchType = "add_function"
	JSPatchReplaceFunction JSPatchType = "replace_function"
	JSPatchFixDOMReference JSPatchType = "fix_dom_reference"
	JSPatchModifyHandler   JSPatchType = "modify_handler"
)

// JSPatch is one JavaScript-level repair, grounded on js_patch.py's
// JSPatch dataclass.
type JSPatch struct {
	Type         JSPatchType `json:"type"`
	FunctionName string      `json:"function_name,omitempty"`
	FunctionCode string      `json:"function_code,omitempty"`
	OldReference string      `json:"old_reference,omitempty"`
	NewReference string      `json:"new_reference,omitempty"`
	Selector     string      `json:"selector,omitempty"`
	NewHandler   string      `json:"new_handler,omitempty"`
	Reason       string      `json:"reason,omitempty"`
}

// FailedJSPatch records a patch that couldn't be applied and why.
type FailedJSPatch struct {
	Patch  JSPatch
	Reason string
}

// JSApplyResult is what JSPatcher.Apply returns.
type JSApplyResult struct {
	Success bool
	HTML    string
	Applied []JSPatch
	Failed  []FailedJSPatch
}

// JSPatcher applies JSPatch values to inline <script> tags and
// event-handler attributes, grounded on js_patch_applier.py's
// JSPatchApplier (BeautifulSoup there, goquery here, matching
// tailwind.go's parse-and-rewrite approach instead of regex surgery over
// the full document).
type JSPatcher struct{}

// NewJSPatcher builds a JSPatcher.
func NewJSPatcher() *JSPatcher { return &JSPatcher{} }

// Apply applies every patch in patches to html in order, skipping (and
// recording) any patch that fails rather than aborting the whole batch.
func (j *JSPatcher) Apply(html string, patches []JSPatch) JSApplyResult {
	current := html
	var applied []JSPatch
	var failed []FailedJSPatch

	for _, patch := range patches {
		out, err := j.applyOne(current, patch)
		if err != nil {
			failed = append(failed, FailedJSPatch{Patch: patch, Reason: err.Error()})
			continue
		}
		current = out
		applied = append(applied, patch)
	}

	return JSApplyResult{Success: len(applied) > 0, HTML: current, Applied: applied, Failed: failed}
}

func (j *JSPatcher) applyOne(html string, patch JSPatch) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	switch patch.Type {
	case JSPatchAddFunction:
		return j.addFunction(doc, patch)
	case JSPatchReplaceFunction:
		return j.replaceFunction(doc, patch)
	case JSPatchFixDOMReference:
		return j.fixDOMReference(doc, patch)
	case JSPatchModifyHandler:
		return j.modifyHandler(doc, patch)
	default:
		return "", fmt.Errorf("unknown js patch type %q", patch.Type)
	}
}

// addFunction appends function_code to the last inline <script> block,
// creating one at the end of <body> if none exists, grounded on
// JSPatchApplier._add_function.
func (j *JSPatcher) addFunction(doc *goquery.Document, patch JSPatch) (string, error) {
	if patch.FunctionCode == "" {
		return "", fmt.Errorf("add_function requires function_code")
	}

	scripts := inlineScripts(doc)
	if len(scripts) > 0 {
		target := scripts[len(scripts)-1]
		target.SetText(target.Text() + "\n\n" + patch.FunctionCode)
		return doc.Html()
	}

	newScript := fmt.Sprintf("<script>\n%s\n</script>", patch.FunctionCode)
	if body := doc.Find("body"); body.Length() > 0 {
		body.AppendHtml(newScript)
	} else if root := doc.Find("html"); root.Length() > 0 {
		root.AppendHtml(newScript)
	} else {
		return "", fmt.Errorf("document has neither body nor html element")
	}
	return doc.Html()
}

// functionPatternTemplates mirror the three function-declaration shapes
// JSPatchApplier._replace_function searches for, ported field-for-field.
var functionPatternTemplates = []string{
	`function\s+%s\s*\([^)]*\)\s*\{[\s\S]*?\}`,
	`(?:const|let|var)\s+%s\s*=\s*function\s*\([^)]*\)\s*\{[\s\S]*?\}`,
	`(?:const|let|var)\s+%s\s*=\s*\([^)]*\)\s*=>\s*\{[\s\S]*?\}`,
}

// replaceFunction rewrites an existing function declaration's body across
// every inline script, falling back to addFunction if no declaration
// matches (the function doesn't exist yet).
func (j *JSPatcher) replaceFunction(doc *goquery.Document, patch JSPatch) (string, error) {
	if patch.FunctionName == "" || patch.FunctionCode == "" {
		return "", fmt.Errorf("replace_function requires function_name and function_code")
	}

	for _, tmpl := range functionPatternTemplates {
		re, err := regexp.Compile(fmt.Sprintf(tmpl, regexp.QuoteMeta(patch.FunctionName)))
		if err != nil {
			continue
		}
		for _, s := range inlineScripts(doc) {
			content := s.Text()
			if !re.MatchString(content) {
				continue
			}
			s.SetText(re.ReplaceAllString(content, escapeRegexpReplacement(patch.FunctionCode)))
			return doc.Html()
		}
	}

	return j.addFunction(doc, patch)
}

// fixDOMReference retargets getElementById/querySelector(#id) calls from
// old_reference to new_reference across every inline script, grounded on
// JSPatchApplier._fix_dom_reference's fixed replacement table.
func (j *JSPatcher) fixDOMReference(doc *goquery.Document, patch JSPatch) (string, error) {
	if patch.OldReference == "" || patch.NewReference == "" {
		return "", fmt.Errorf("fix_dom_reference requires old_reference and new_reference")
	}

	replacements := [][2]string{
		{fmt.Sprintf("getElementById('%s')", patch.OldReference), fmt.Sprintf("getElementById('%s')", patch.NewReference)},
		{fmt.Sprintf(`getElementById("%s")`, patch.OldReference), fmt.Sprintf(`getElementById("%s")`, patch.NewReference)},
		{fmt.Sprintf("querySelector('#%s')", patch.OldReference), fmt.Sprintf("querySelector('#%s')", patch.NewReference)},
		{fmt.Sprintf(`querySelector("#%s")`, patch.OldReference), fmt.Sprintf(`querySelector("#%s")`, patch.NewReference)},
	}

	modified := false
	for _, s := range inlineScripts(doc) {
		content := s.Text()
		updated := content
		for _, r := range replacements {
			if strings.Contains(updated, r[0]) {
				updated = strings.ReplaceAll(updated, r[0], r[1])
				modified = true
			}
		}
		if updated != content {
			s.SetText(updated)
		}
	}

	if !modified {
		return "", fmt.Errorf("no reference to %q found in any inline script", patch.OldReference)
	}
	return doc.Html()
}

// modifyHandler overwrites the onclick attribute of every element matching
// selector, grounded on JSPatchApplier._modify_handler.
func (j *JSPatcher) modifyHandler(doc *goquery.Document, patch JSPatch) (string, error) {
	if patch.Selector == "" || patch.NewHandler == "" {
		return "", fmt.Errorf("modify_handler requires selector and new_handler")
	}
	sel := doc.Find(patch.Selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("selector %q matched no elements", patch.Selector)
	}
	sel.SetAttr("onclick", patch.NewHandler)
	return doc.Html()
}

func inlineScripts(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, hasSrc := s.Attr("src"); !hasSrc {
			out = append(out, s)
		}
	})
	return out
}

// escapeRegexpReplacement neutralizes "$" so ReplaceAllString never
// interprets patch code as a regexp backreference.
func escapeRegexpReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
