package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/layout/validate"
)

func TestDetect_FindsButtonsAndSortsByPriority(t *testing.T) {
	graph := &validate.ObservedSceneGraph{
		Viewport: [2]int{1920, 1080},
		Nodes: []validate.SceneNode{
			{Selector: "a.link", Tag: "a", Visible: true, BoundingBox: validate.BoundingBox{X: 10, Y: 10, Width: 100, Height: 40}, Attributes: map[string]string{"href": "#"}},
			{Selector: "button.submit", Tag: "button", Visible: true, BoundingBox: validate.BoundingBox{X: 10, Y: 60, Width: 100, Height: 40}, Attributes: map[string]string{}},
			{Selector: "div.tiny", Tag: "div", Visible: true, BoundingBox: validate.BoundingBox{X: 0, Y: 0, Width: 2, Height: 2}, Attributes: map[string]string{"onclick": "x()"}},
		},
	}
	d := validate.NewInputDetector(8)
	result, candidates := d.Detect(graph)
	require.True(t, result.Passed)
	require.Len(t, candidates, 2)
	assert.Equal(t, "button.submit", candidates[0].Selector)
	assert.Equal(t, "a.link", candidates[1].Selector)
}

func TestDetect_NoInputsStillPasses(t *testing.T) {
	graph := &validate.ObservedSceneGraph{Viewport: [2]int{1920, 1080}}
	d := validate.NewInputDetector(8)
	result, candidates := d.Detect(graph)
	assert.True(t, result.Passed)
	assert.Empty(t, candidates)
}

func TestDetect_RespectsMaxInputs(t *testing.T) {
	graph := &validate.ObservedSceneGraph{Viewport: [2]int{1920, 1080}}
	for i := 0; i < 5; i++ {
		graph.Nodes = append(graph.Nodes, validate.SceneNode{
			Selector: "button", Tag: "button", Visible: true,
			BoundingBox: validate.BoundingBox{X: 0, Y: 0, Width: 50, Height: 50},
			Attributes:  map[string]string{},
		})
	}
	d := validate.NewInputDetector(2)
	_, candidates := d.Detect(graph)
	assert.Len(t, candidates, 2)
}
