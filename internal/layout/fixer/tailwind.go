package fixer

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TailwindInjector applies TailwindPatch values to an HTML document's class
// attributes, grounded on html_fixer/fixers/tailwind_injector.py's
// TailwindInjector (BeautifulSoup there, goquery here).
type TailwindInjector struct{}

// NewTailwindInjector builds a TailwindInjector.
func NewTailwindInjector() *TailwindInjector { return &TailwindInjector{} }

// Inject applies every patch in patches to html, returning the modified
// document and a per-patch success/failure breakdown.
func (t *TailwindInjector) Inject(html string, patches []TailwindPatch) InjectionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return InjectionResult{Success: false, HTML: html, Failed: []FailedPatch{{Reason: fmt.Sprintf("parse html: %v", err)}}}
	}

	var applied []TailwindPatch
	var failed []FailedPatch
	for _, patch := range patches {
		count, err := t.applyPatch(doc, patch)
		if err != nil {
			failed = append(failed, FailedPatch{Patch: patch, Reason: err.Error()})
			continue
		}
		if count == 0 {
			failed = append(failed, FailedPatch{Patch: patch, Reason: "no elements matched selector"})
			continue
		}
		applied = append(applied, patch)
	}

	out, renderErr := doc.Html()
	if renderErr != nil {
		return InjectionResult{Success: false, HTML: html, Applied: applied, Failed: failed}
	}

	return InjectionResult{Success: len(applied) > 0, HTML: out, Applied: applied, Failed: failed}
}

func (t *TailwindInjector) applyPatch(doc *goquery.Document, patch TailwindPatch) (int, error) {
	sel := doc.Find(patch.Selector)
	count := sel.Length()
	if count == 0 {
		return 0, nil
	}
	sel.Each(func(_ int, s *goquery.Selection) {
		t.modifyClasses(s, patch)
	})
	return count, nil
}

// modifyClasses removes patch.RemoveClasses, deduplicates any existing
// z-index utility when the patch adds a new one, then adds
// patch.AddClasses — grounded on TailwindInjector._modify_classes.
func (t *TailwindInjector) modifyClasses(s *goquery.Selection, patch TailwindPatch) {
	existing := strings.Fields(s.AttrOr("class", ""))
	remove := toSet(patch.RemoveClasses)

	var kept []string
	for _, cls := range existing {
		if remove[cls] {
			continue
		}
		kept = append(kept, cls)
	}

	addsZIndex := false
	for _, cls := range patch.AddClasses {
		if strings.HasPrefix(cls, "z-") {
			addsZIndex = true
			break
		}
	}
	if addsZIndex {
		kept = dropZIndexClasses(kept)
	}

	kept = append(kept, patch.AddClasses...)
	s.SetAttr("class", strings.Join(dedupe(kept), " "))
}

func dropZIndexClasses(classes []string) []string {
	var out []string
	for _, c := range classes {
		if !strings.HasPrefix(c, "z-") {
			out = append(out, c)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, i := range items {
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}
