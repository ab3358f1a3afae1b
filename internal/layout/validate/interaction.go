package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// InteractionResult records one tested input's outcome, grounded on
// validation/interaction_validator.py's InteractionResult.
type InteractionResult struct {
	Input          InputCandidate
	Responsive     bool
	Delta          VisualDelta
	CascadeTested  bool
	ReturnedToRoot bool
}

const maxUnitsToTest = 8
const earlyStopResponsive = 5
const maxCascadeCandidates = 4
const maxCascadeLevel = 1

// pauseAnimationsJS freezes CSS animations/transitions globally before each
// click so a still-running animation can't masquerade as (or mask) a
// response to the click, grounded on interaction_validator.py's
// _pause_css_animations.
const pauseAnimationsJS = `(() => {
    if (document.getElementById('__interaction_validator_pause_animations')) return;
    const style = document.createElement('style');
    style.id = '__interaction_validator_pause_animations';
    style.textContent = '*, *::before, *::after { animation-play-state: paused !important; transition: none !important; }';
    document.head.appendChild(style);
})()`

// dispatchEscapeJS synthesizes an Escape keydown so page-level modal-close
// handlers (which listen for keydown and check e.key) fire even though
// chromedp isn't driving real OS-level key input here.
const dispatchEscapeJS = `(() => {
    document.dispatchEvent(new KeyboardEvent('keydown', { key: 'Escape', code: 'Escape', keyCode: 27, which: 27, bubbles: true }));
})()`

// InteractionValidator is phase 5: click each candidate and confirm a
// visible response, grounded on
// validation/interaction_validator.py's InteractionValidator. Candidates
// here are tested directly rather than decomposed into per-option
// interaction units (the original's Sprint 6.2 refinement) — a
// simplification the spec's "test up to N inputs" behavior doesn't require.
type InteractionValidator struct {
	viewportThreshold  float64
	elementThreshold   float64
	modalOpenThreshold float64
	scene              *SceneGraphExtractor
}

// NewInteractionValidator builds an InteractionValidator. viewportThreshold
// and elementThreshold are the two legs of the adaptive
// has_visible_change(t, element_t) check; modalOpenThreshold is the
// pixel-diff ratio (the multi-scale maximum, see isModalOpen) at or above
// which a responsive click is treated as having opened a modal and
// cascade-tested one level deeper.
func NewInteractionValidator(viewportThreshold, elementThreshold, modalOpenThreshold float64) *InteractionValidator {
	return &InteractionValidator{
		viewportThreshold:  viewportThreshold,
		elementThreshold:   elementThreshold,
		modalOpenThreshold: modalOpenThreshold,
		scene:              NewSceneGraphExtractor(),
	}
}

// Validate clicks each candidate in turn and checks for a visual response,
// stopping early once enough candidates have responded. rootGraph is the
// phase 3 scene graph captured before any interaction, used both as the
// scene-graph-delta fallback baseline and as the state cascade testing
// tries to return to. jsErrors is the orchestrator's running page-error log
// shared across all phases; sinceIndex marks where this phase's slice of it
// begins, since the listener keeps appending for the lifetime of the shared
// browser context.
func (v *InteractionValidator) Validate(ctx context.Context, candidates []InputCandidate, rootGraph *ObservedSceneGraph, jsErrors *[]string, sinceIndex int) (PhaseResult, []InteractionResult) {
	start := time.Now()
	if len(candidates) == 0 {
		return PhaseResult{Phase: "interaction", Passed: true, Score: 1, Details: map[string]any{"tested": 0, "responsive": 0, "note": "no inputs to test"}}, nil
	}

	var results []InteractionResult
	responsive := 0
	cascaded := 0
	for _, c := range candidates {
		if len(results) >= maxUnitsToTest || responsive >= earlyStopResponsive {
			break
		}
		result, err := v.testSingleInput(ctx, c, rootGraph, 0)
		if err != nil {
			continue
		}
		results = append(results, result)
		if result.Responsive {
			responsive++
		}
		if result.CascadeTested {
			cascaded++
		}
	}

	var jsErrorsDuringInteraction []string
	if jsErrors != nil && len(*jsErrors) > sinceIndex {
		jsErrorsDuringInteraction = (*jsErrors)[sinceIndex:]
	}

	elapsed := float64(time.Since(start).Milliseconds())
	passed := responsive > 0 && len(jsErrorsDuringInteraction) == 0

	var errMsg string
	if len(jsErrorsDuringInteraction) > 0 {
		errMsg = fmt.Sprintf("JS errors during interaction: %s", jsErrorsDuringInteraction[0])
	} else if responsive == 0 {
		errMsg = fmt.Sprintf("no inputs responded to interaction (%d tested)", len(results))
	}

	details := map[string]any{
		"tested":                       len(results),
		"responsive":                   responsive,
		"cascaded":                     cascaded,
		"js_errors_during_interaction": jsErrorsDuringInteraction,
		"duration_ms":                  elapsed,
	}
	var errs []string
	if errMsg != "" {
		errs = []string{errMsg}
	}
	return PhaseResult{Phase: "interaction", Passed: passed, Score: boolScore(passed), Errors: errs, Details: details}, results
}

// testSingleInput clicks candidate's selector and compares before/after
// state at three pixel scales plus a scene-graph fallback, grounded on
// InteractionValidator._test_single_input. depth is the cascade recursion
// depth (0 at the root); beforeGraph is the scene graph as it stood right
// before this click, used for the scene-graph-delta fallback.
func (v *InteractionValidator) testSingleInput(ctx context.Context, candidate InputCandidate, beforeGraph *ObservedSceneGraph, depth int) (InteractionResult, error) {
	if err := chromedp.Run(ctx, chromedp.Evaluate(pauseAnimationsJS, nil)); err != nil {
		return InteractionResult{Input: candidate}, err
	}

	var beforePNG, afterPNG []byte
	err := chromedp.Run(ctx,
		chromedp.CaptureScreenshot(&beforePNG),
		chromedp.Click(candidate.Selector, chromedp.ByQuery),
		chromedp.Sleep(150*time.Millisecond),
		chromedp.CaptureScreenshot(&afterPNG),
	)
	if err != nil {
		return InteractionResult{Input: candidate}, err
	}

	before, err := analyzeImage(beforePNG)
	if err != nil {
		return InteractionResult{Input: candidate}, err
	}
	after, err := analyzeImage(afterPNG)
	if err != nil {
		return InteractionResult{Input: candidate}, err
	}

	delta, err := v.multiScaleDelta(*before, *after, candidate.Node.BoundingBox)
	if err != nil {
		return InteractionResult{Input: candidate}, err
	}

	_, afterGraph := v.scene.Extract(ctx)

	responsive := delta.HasVisibleChange(v.viewportThreshold, v.elementThreshold)
	if !responsive {
		responsive = sceneGraphChanged(beforeGraph, afterGraph)
	}

	result := InteractionResult{Input: candidate, Responsive: responsive, Delta: delta}

	if responsive && depth < maxCascadeLevel && v.isModalOpen(delta, beforeGraph, afterGraph) {
		result.CascadeTested, result.ReturnedToRoot = v.runCascade(ctx, afterGraph, depth+1)
	}

	return result, nil
}

// multiScaleDelta takes the highest pixel-diff ratio among three scales
// around the clicked element — tight (20px padding), normal (100px
// padding), and the full page — as the viewport-level signal, alongside an
// element-exact ratio for the adaptive element_threshold fallback, grounded
// on interaction_validator.py's multi-scale comparison ("tight/normal/full
// page, take the max").
func (v *InteractionValidator) multiScaleDelta(before, after VisualSnapshot, box BoundingBox) (VisualDelta, error) {
	best, err := CompareRegion(before, after, nil)
	if err != nil {
		return VisualDelta{}, err
	}
	best.RegionAnalyzed = "full_page"

	scales := []struct {
		label string
		pad   float64
	}{
		{"tight", 20},
		{"normal", 100},
	}
	for _, s := range scales {
		region := padRegion(box, s.pad)
		d, err := CompareRegion(before, after, &region)
		if err != nil {
			continue
		}
		if d.PixelDiffRatio > best.PixelDiffRatio {
			d.RegionAnalyzed = s.label
			best = d
		}
	}

	if elementDelta, err := CompareRegion(before, after, &box); err == nil {
		best.ElementPixels = elementDelta.TotalPixels
		best.ElementDiffRatio = elementDelta.PixelDiffRatio
	}

	return best, nil
}

func padRegion(b BoundingBox, pad float64) BoundingBox {
	return BoundingBox{X: b.X - pad, Y: b.Y - pad, Width: b.Width + 2*pad, Height: b.Height + 2*pad}
}

// sceneGraphChanged is the scene-graph-delta fallback: a click is treated
// as responsive if the DOM gained/lost at least 2 visible nodes, or any
// node present in both before and after shifted position or size by more
// than 10px, grounded on interaction_validator.py's fallback used when the
// pixel diff alone is inconclusive (e.g. a change confined to a region the
// multi-scale comparison still missed, or a change with no pixel footprint
// such as an aria-attribute flip).
func sceneGraphChanged(before, after *ObservedSceneGraph) bool {
	if before == nil || after == nil {
		return false
	}
	beforeBySel := map[string]SceneNode{}
	for _, n := range before.Nodes {
		if n.Visible {
			beforeBySel[n.Selector] = n
		}
	}
	afterBySel := map[string]SceneNode{}
	for _, n := range after.Nodes {
		if n.Visible {
			afterBySel[n.Selector] = n
		}
	}

	added, removed := 0, 0
	for sel := range afterBySel {
		if _, ok := beforeBySel[sel]; !ok {
			added++
		}
	}
	for sel := range beforeBySel {
		if _, ok := afterBySel[sel]; !ok {
			removed++
		}
	}
	if added+removed >= 2 {
		return true
	}

	const shiftThreshold = 10.0
	for sel, b := range beforeBySel {
		a, ok := afterBySel[sel]
		if !ok {
			continue
		}
		if absf(int(a.BoundingBox.X)-int(b.BoundingBox.X)) > shiftThreshold ||
			absf(int(a.BoundingBox.Y)-int(b.BoundingBox.Y)) > shiftThreshold ||
			absf(int(a.BoundingBox.Width)-int(b.BoundingBox.Width)) > shiftThreshold ||
			absf(int(a.BoundingBox.Height)-int(b.BoundingBox.Height)) > shiftThreshold {
			return true
		}
	}
	return false
}

// isModalOpen flags a responsive click as having opened a modal/overlay
// when delta.PixelDiffRatio reaches modalOpenThreshold or it added at
// least 5 newly-visible nodes. That ratio is the highest of the tight,
// normal and full-page ratios from multiScaleDelta; the full-page ratio is
// not checked on its own. Grounded on
// interaction_validator.py's modal-open heuristic gating cascade testing.
func (v *InteractionValidator) isModalOpen(delta VisualDelta, before, after *ObservedSceneGraph) bool {
	if delta.PixelDiffRatio >= v.modalOpenThreshold {
		return true
	}
	if before == nil || after == nil {
		return false
	}
	beforeSel := map[string]bool{}
	for _, n := range before.Nodes {
		if n.Visible {
			beforeSel[n.Selector] = true
		}
	}
	added := 0
	for _, n := range after.Nodes {
		if n.Visible && !beforeSel[n.Selector] {
			added++
		}
	}
	return added >= 5
}

// runCascade rescans for newly-available candidates after a modal opens and
// tests up to maxCascadeCandidates of them one level deep, then attempts to
// return to the root state, grounded on
// interaction_validator.py's cascade validation (modal detection -> rescan
// -> bounded re-test -> return-to-root). depth is already the child level
// (root calls are depth 0, a cascade pass runs at depth 1); maxCascadeLevel
// keeps this from recursing through nested overlays indefinitely.
func (v *InteractionValidator) runCascade(ctx context.Context, graph *ObservedSceneGraph, depth int) (tested, returnedToRoot bool) {
	if graph == nil {
		return false, v.returnToRoot(ctx)
	}

	detector := NewInputDetector(maxCascadeCandidates)
	_, candidates := detector.Detect(graph)
	if len(candidates) == 0 {
		return false, v.returnToRoot(ctx)
	}

	for _, c := range candidates {
		if _, err := v.testSingleInput(ctx, c, graph, depth); err != nil {
			continue
		}
		tested = true
	}

	return tested, v.returnToRoot(ctx)
}

// returnToRoot tries a modal close button, then a synthesized Escape
// keydown, then a full reload, grounded on
// interaction_validator.py's _return_to_root — so candidates tested after a
// cascade pass see the page in (as close as possible to) its original
// state.
func (v *InteractionValidator) returnToRoot(ctx context.Context) bool {
	closeSelectors := []string{
		"[aria-label='Close' i]", ".modal-close", ".close-button", "[data-dismiss]", "[data-close]",
	}
	for _, sel := range closeSelectors {
		var count int
		if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, sel), &count)); err != nil || count == 0 {
			continue
		}
		if err := chromedp.Run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err == nil {
			return true
		}
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(dispatchEscapeJS, nil)); err == nil {
		return true
	}
	return chromedp.Run(ctx, chromedp.Reload()) == nil
}
