package validate

import (
	"sort"
	"time"
)

// InputCandidate is a detected interactive element, grounded on
// validation/contracts.py's InputCandidate.
type InputCandidate struct {
	Selector   string
	Node       SceneNode
	Confidence float64
	InputType  string
	Priority   int
}

// inputHeuristic is one (match, type, priority, confidence) rule, ported
// from input_detector.py's INPUT_HEURISTICS table. Lower priority tests
// first; the first matching heuristic wins.
type inputHeuristic struct {
	match      func(SceneNode) bool
	inputType  string
	priority   int
	confidence float64
}

func hasAttr(n SceneNode, key string) bool {
	_, ok := n.Attributes[key]
	return ok
}

var inputHeuristics = []inputHeuristic{
	{func(n SceneNode) bool { return n.Tag == "button" }, "button", 1, 0.95},
	{func(n SceneNode) bool { return n.Tag == "input" && n.Attributes["type"] == "submit" }, "button", 1, 0.95},
	{func(n SceneNode) bool { return n.Tag == "input" && n.Attributes["type"] == "button" }, "button", 1, 0.95},
	{func(n SceneNode) bool { return n.Attributes["role"] == "button" }, "button", 2, 0.90},
	{func(n SceneNode) bool { return n.Tag == "a" && n.Attributes["href"] != "" }, "link", 2, 0.90},
	{func(n SceneNode) bool { return hasAttr(n, "data-option") }, "option", 3, 0.92},
	{func(n SceneNode) bool { return hasAttr(n, "data-submit") }, "button", 2, 0.92},
	{func(n SceneNode) bool { return hasAttr(n, "data-start") }, "button", 2, 0.92},
	{func(n SceneNode) bool { return hasAttr(n, "data-restart") }, "button", 3, 0.90},
	{func(n SceneNode) bool { return n.Tag == "input" && n.Attributes["type"] == "radio" }, "radio", 3, 0.90},
	{func(n SceneNode) bool { return n.Tag == "input" && n.Attributes["type"] == "checkbox" }, "checkbox", 3, 0.90},
	{func(n SceneNode) bool { return n.Tag == "select" }, "select", 3, 0.90},
	{func(n SceneNode) bool { return hasAttr(n, "onclick") }, "custom", 4, 0.85},
	{func(n SceneNode) bool { return n.Attributes["cursor"] == "pointer" }, "custom", 5, 0.70},
	{func(n SceneNode) bool { return n.Tag == "label" && n.Attributes["for"] != "" }, "label", 5, 0.65},
	{func(n SceneNode) bool { return hasAttr(n, "aria-pressed") }, "toggle", 4, 0.80},
	{func(n SceneNode) bool { return hasAttr(n, "aria-selected") }, "option", 4, 0.80},
	{func(n SceneNode) bool { return hasAttr(n, "aria-checked") }, "checkbox", 4, 0.80},
}

const minClickArea = 20 * 20
const minDimension = 10

func (b BoundingBox) area() float64 { return b.Width * b.Height }

func (b BoundingBox) inViewport(vw, vh int) bool {
	return b.X < float64(vw) && b.Y < float64(vh) && b.X+b.Width > 0 && b.Y+b.Height > 0
}

// InputDetector is phase 4: find interactive elements in a scene graph,
// grounded on validation/input_detector.py's InputDetector.
type InputDetector struct {
	MaxInputsToTest int
}

// NewInputDetector builds an InputDetector that selects up to maxInputs
// candidates.
func NewInputDetector(maxInputs int) *InputDetector {
	return &InputDetector{MaxInputsToTest: maxInputs}
}

// Detect finds and ranks interactive elements from graph.
func (d *InputDetector) Detect(graph *ObservedSceneGraph) (PhaseResult, []InputCandidate) {
	start := time.Now()
	vw, vh := 0, 0
	if graph != nil {
		vw, vh = graph.Viewport[0], graph.Viewport[1]
	}

	var candidates []InputCandidate
	if graph != nil {
		for _, node := range graph.Nodes {
			if !node.Visible {
				continue
			}
			if node.BoundingBox.area() < minClickArea {
				continue
			}
			if node.BoundingBox.Width < minDimension || node.BoundingBox.Height < minDimension {
				continue
			}
			if !node.BoundingBox.inViewport(vw, vh) {
				continue
			}
			if _, disabled := node.Attributes["disabled"]; disabled {
				continue
			}
			for _, h := range inputHeuristics {
				if h.match(node) {
					candidates = append(candidates, InputCandidate{
						Selector:   node.Selector,
						Node:       node,
						Confidence: h.confidence,
						InputType:  h.inputType,
						Priority:   h.priority,
					})
					break
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	max := d.MaxInputsToTest
	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}
	top := candidates[:max]

	elapsed := float64(time.Since(start).Milliseconds())
	if len(top) == 0 {
		return PhaseResult{
			Phase:  "input_detection",
			Passed: true,
			Score:  1,
			Details: map[string]any{"found": 0, "selected": 0, "note": "no interactive elements found - may be static content", "duration_ms": elapsed},
		}, nil
	}

	typeCounts := map[string]int{}
	for _, c := range top {
		typeCounts[c.InputType]++
	}
	return PhaseResult{
		Phase:  "input_detection",
		Passed: true,
		Score:  1,
		Details: map[string]any{
			"found":       len(candidates),
			"selected":    len(top),
			"type_counts": typeCounts,
			"duration_ms": elapsed,
		},
	}, top
}
