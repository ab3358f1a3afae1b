package fixer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/layout/fixer"
)

func TestInject_AddsAndRemovesClasses(t *testing.T) {
	html := `<html><body><div id="card" class="p-2 text-sm">hi</div></body></html>`
	inj := fixer.NewTailwindInjector()

	result := inj.Inject(html, []fixer.TailwindPatch{
		{Selector: "#card", AddClasses: []string{"p-4"}, RemoveClasses: []string{"p-2"}, Reason: "too cramped"},
	})

	require.True(t, result.Success)
	require.Len(t, result.Applied, 1)
	assert.Contains(t, result.HTML, "p-4")
	assert.NotContains(t, result.HTML, "p-2")
	assert.Contains(t, result.HTML, "text-sm")
}

func TestInject_DeduplicatesZIndex(t *testing.T) {
	html := `<html><body><div id="modal" class="z-10 bg-white">x</div></body></html>`
	inj := fixer.NewTailwindInjector()

	result := inj.Inject(html, []fixer.TailwindPatch{
		{Selector: "#modal", AddClasses: []string{"z-50"}},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, "z-50")
	assert.NotContains(t, result.HTML, "z-10")
	count := strings.Count(result.HTML, "z-")
	assert.Equal(t, 1, count)
}

func TestInject_UnmatchedSelectorFails(t *testing.T) {
	html := `<html><body><div id="card">hi</div></body></html>`
	inj := fixer.NewTailwindInjector()

	result := inj.Inject(html, []fixer.TailwindPatch{
		{Selector: "#missing", AddClasses: []string{"p-4"}},
	})

	assert.False(t, result.Success)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "no elements matched selector", result.Failed[0].Reason)
}
