package fixer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/layout/fixer"
)

func TestJSPatcher_AddFunctionAppendsToLastInlineScript(t *testing.T) {
	html := `<html><body><script>function a(){}</script></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchAddFunction, FunctionCode: "function handleClick(){console.log('hi');}"},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, "function a(){}")
	assert.Contains(t, result.HTML, "function handleClick()")
}

func TestJSPatcher_AddFunctionCreatesScriptWhenNoneInline(t *testing.T) {
	html := `<html><body><div>hi</div></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchAddFunction, FunctionCode: "function handleClick(){}"},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, "<script>")
	assert.Contains(t, result.HTML, "function handleClick()")
}

func TestJSPatcher_ReplaceFunctionRewritesBody(t *testing.T) {
	html := `<html><body><script>function handleClick() { alert('old'); }</script></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchReplaceFunction, FunctionName: "handleClick", FunctionCode: "function handleClick() { alert('new'); }"},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, "alert('new')")
	assert.NotContains(t, result.HTML, "alert('old')")
}

func TestJSPatcher_ReplaceFunctionFallsBackToAddWhenMissing(t *testing.T) {
	html := `<html><body><script>const x = 1;</script></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchReplaceFunction, FunctionName: "missingFn", FunctionCode: "function missingFn() {}"},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, "function missingFn()")
}

func TestJSPatcher_FixDOMReferenceRewritesGetElementById(t *testing.T) {
	html := `<html><body><script>document.getElementById('result').textContent = 'x';</script></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchFixDOMReference, OldReference: "result", NewReference: "output"},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, "getElementById('output')")
	assert.NotContains(t, result.HTML, "getElementById('result')")
}

func TestJSPatcher_FixDOMReferenceFailsWhenNoMatch(t *testing.T) {
	html := `<html><body><script>console.log('nothing to fix here');</script></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchFixDOMReference, OldReference: "result", NewReference: "output"},
	})

	assert.False(t, result.Success)
	require.Len(t, result.Failed, 1)
}

func TestJSPatcher_ModifyHandlerChangesOnclickAttribute(t *testing.T) {
	html := `<html><body><button id="go" onclick="oldHandler()">go</button></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchModifyHandler, Selector: "#go", NewHandler: "newHandler()"},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.HTML, `onclick="newHandler()"`)
}

func TestJSPatcher_UnknownSelectorFails(t *testing.T) {
	html := `<html><body><button id="go">go</button></body></html>`
	p := fixer.NewJSPatcher()

	result := p.Apply(html, []fixer.JSPatch{
		{Type: fixer.JSPatchModifyHandler, Selector: "#missing", NewHandler: "x()"},
	})

	assert.False(t, result.Success)
	require.Len(t, result.Failed, 1)
}
