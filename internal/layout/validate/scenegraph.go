package validate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chromedp/chromedp"
)

// BoundingBox is a node's rendered rectangle.
type BoundingBox struct {
	X, Y, Width, Height float64
}

// SceneNode is one visible DOM element extracted by the scene graph script,
// grounded on validation/contracts.py's SceneNode.
type SceneNode struct {
	Selector    string
	Tag         string
	NodeType    string
	BoundingBox BoundingBox
	Visible     bool
	ZIndex      int
	TextContent string
	Attributes  map[string]string
}

// ObservedSceneGraph is phase 3's output, grounded on
// validation/contracts.py's ObservedSceneGraph.
type ObservedSceneGraph struct {
	Nodes    []SceneNode
	Viewport [2]int
}

// extractSceneGraphJS walks the rendered DOM for visible nodes with their
// geometry, ported verbatim (behavior, not wording) from scene_graph.py's
// JS_EXTRACT_SCENE_GRAPH.
const extractSceneGraphJS = `(() => {
    const nodes = [];
    const seen = new Set();

    function getUniqueSelector(el, index) {
        if (el.id) return '#' + el.id;
        for (const attr of ['data-testid', 'data-option', 'data-submit', 'data-question']) {
            if (el.hasAttribute(attr)) {
                return '[' + attr + '="' + el.getAttribute(attr) + '"]';
            }
        }
        const tag = el.tagName.toLowerCase();
        if (el.className && typeof el.className === 'string') {
            const firstClass = el.className.split(' ')[0];
            if (firstClass) {
                const selector = tag + '.' + firstClass;
                if (document.querySelectorAll(selector).length === 1) return selector;
            }
        }
        const parent = el.parentElement;
        if (parent) {
            const siblings = Array.from(parent.children).filter(c => c.tagName === el.tagName);
            if (siblings.length > 1) {
                const idx = siblings.indexOf(el) + 1;
                return tag + ':nth-of-type(' + idx + ')';
            }
        }
        return tag + '[data-idx="' + index + '"]';
    }

    function getNodeType(el) {
        const tag = el.tagName.toLowerCase();
        const role = el.getAttribute('role');
        if (tag === 'button' || role === 'button' || (tag === 'input' && ['button', 'submit'].includes(el.type))) return 'button';
        if (tag === 'a' && el.href) return 'button';
        if (['input', 'select', 'textarea'].includes(tag)) return 'input';
        if (['img', 'svg', 'canvas', 'video'].includes(tag)) return 'image';
        if (el.childNodes.length > 0) {
            const hasOnlyText = Array.from(el.childNodes).every(
                n => n.nodeType === Node.TEXT_NODE || (n.nodeType === Node.ELEMENT_NODE && getComputedStyle(n).display === 'inline')
            );
            if (hasOnlyText && el.innerText && el.innerText.trim()) return 'text';
        }
        return 'container';
    }

    function isVisible(el) {
        const rect = el.getBoundingClientRect();
        if (rect.width === 0 || rect.height === 0) return false;
        const style = window.getComputedStyle(el);
        if (style.display === 'none' || style.visibility === 'hidden') return false;
        if (parseFloat(style.opacity) === 0) return false;
        return rect.top < window.innerHeight && rect.left < window.innerWidth && rect.bottom > 0 && rect.right > 0;
    }

    const elements = document.body.querySelectorAll('*');
    let index = 0;
    for (const el of elements) {
        index++;
        if (!isVisible(el)) continue;
        const rect = el.getBoundingClientRect();
        const style = window.getComputedStyle(el);
        if (rect.width < 5 || rect.height < 5) continue;
        const selector = getUniqueSelector(el, index);
        if (seen.has(selector)) continue;
        seen.add(selector);

        const attrs = {};
        const interesting = ['type', 'role', 'disabled', 'href', 'onclick', 'data-option', 'data-submit',
            'data-question', 'data-feedback', 'data-trivia', 'data-game', 'data-dashboard',
            'aria-selected', 'aria-checked', 'aria-pressed'];
        for (const attr of interesting) {
            if (el.hasAttribute(attr)) attrs[attr] = el.getAttribute(attr);
        }
        if (style.cursor === 'pointer') attrs['cursor'] = 'pointer';

        nodes.push({
            selector: selector, tag: el.tagName.toLowerCase(), nodeType: getNodeType(el),
            boundingBox: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
            visible: true, zIndex: parseInt(style.zIndex) || 0,
            textContent: (el.innerText || '').slice(0, 100).trim(), attributes: attrs
        });
    }

    return { nodes: nodes, viewport: [window.innerWidth, window.innerHeight] };
})()`

type sceneGraphJS struct {
	Nodes []struct {
		Selector    string            `json:"selector"`
		Tag         string            `json:"tag"`
		NodeType    string            `json:"nodeType"`
		BoundingBox BoundingBox       `json:"boundingBox"`
		Visible     bool              `json:"visible"`
		ZIndex      int               `json:"zIndex"`
		TextContent string            `json:"textContent"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"nodes"`
	Viewport [2]int `json:"viewport"`
}

// SceneGraphExtractor is phase 3: DOM geometry extraction, grounded on
// validation/scene_graph.py's SceneGraphExtractor.
type SceneGraphExtractor struct{}

// NewSceneGraphExtractor builds a SceneGraphExtractor.
func NewSceneGraphExtractor() *SceneGraphExtractor { return &SceneGraphExtractor{} }

// Extract runs the scene graph script against an already-rendered page
// (ctx must be a live chromedp context from orchestrator.go's allocator).
func (e *SceneGraphExtractor) Extract(ctx context.Context) (PhaseResult, *ObservedSceneGraph) {
	start := time.Now()
	var raw json.RawMessage
	if err := chromedp.Run(ctx, chromedp.Evaluate(extractSceneGraphJS, &raw)); err != nil {
		return PhaseResult{Phase: "scene_graph", Passed: false, Errors: []string{err.Error()}}, nil
	}

	var parsed sceneGraphJS
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return PhaseResult{Phase: "scene_graph", Passed: false, Errors: []string{err.Error()}}, nil
	}

	graph := &ObservedSceneGraph{Viewport: parsed.Viewport}
	for _, n := range parsed.Nodes {
		graph.Nodes = append(graph.Nodes, SceneNode{
			Selector:    n.Selector,
			Tag:         n.Tag,
			NodeType:    n.NodeType,
			BoundingBox: n.BoundingBox,
			Visible:     n.Visible,
			ZIndex:      n.ZIndex,
			TextContent: n.TextContent,
			Attributes:  n.Attributes,
		})
	}

	elapsed := float64(time.Since(start).Milliseconds())
	return PhaseResult{
		Phase:   "scene_graph",
		Passed:  len(graph.Nodes) > 0,
		Score:   boolScore(len(graph.Nodes) > 0),
		Details: map[string]any{"node_count": len(graph.Nodes), "duration_ms": elapsed},
	}, graph
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
