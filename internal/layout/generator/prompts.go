package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPrompt is the fixed instruction set handed to the reasoner tier on
// every generation call, grounded on
// app/ai/scene/custom_layout/generator/prompts.py's SYSTEM_PROMPT. Kept as a
// versioned asset (a single const) rather than assembled at runtime, since
// nothing in this domain varies it.
const systemPrompt = `You are an expert HTML/Tailwind CSS developer creating interactive layouts for a 1920x1080 touchscreen TV display.

## Your Task
Generate a complete, self-contained HTML document based on the user's request. The HTML must:
1. Be fully functional with all interactivity working
2. Use Tailwind CSS (via CDN) for all styling
3. Include all necessary JavaScript inline
4. Follow the mandatory rules below to pass validation

## Target Environment
- Display: 1920x1080 touchscreen TV
- Theme: Dark mode (bg-gray-900, text-white)
- Framework: Tailwind CSS v3 (CDN included)
- No external dependencies (everything inline)

## Mandatory interaction rules
- All buttons must have relative z-10 and visible active:* feedback
- All overlays must have pointer-events-none or an explicit z-index
- All modals must be dismissable
- Use transition-all duration-150 for smooth interactions
- Add data-* attributes for validator identification

## Output Format
Respond with ONLY the HTML document. No explanations, no markdown code blocks.
Start with <!DOCTYPE html> and end with </html>.
`

// contentTypeHints supplements the system prompt with per-info_type
// guidance, ported verbatim in intent (not wording) from
// generator/prompts.py's CONTENT_TYPE_HINTS table.
var contentTypeHints = map[string]string{
	"trivia": "For trivia content:\n- Display 4 answer options as clickable buttons\n" +
		"- Show a question counter (e.g., \"Question 1/10\")\n- Include a score display\n" +
		"- Add visual feedback for correct/incorrect answers\n- Optionally include a timer",
	"dashboard": "For dashboard content:\n- Use a grid layout for metrics\n" +
		"- Include interactive filters if applicable\n- Add hover states for data cards\n" +
		"- Consider using charts or progress bars",
	"game": "For game content:\n- Include a start button\n- Show score and lives\n" +
		"- Add a restart/play again button\n- Include clear win/lose states",
	"calendar": "For calendar content:\n- Display events in a clear timeline\n" +
		"- Include navigation (prev/next day/week)\n- Show event details on click\n" +
		"- Use color coding for event types",
	"weather": "For weather content:\n- Show current conditions prominently\n" +
		"- Include forecast for coming days\n- Use appropriate weather icons\n- Add location display",
	"list": "For list content:\n- Allow item selection\n- Include add/remove functionality",
}

// contentTypeHint returns the hint for infoType, or "" when none is defined.
func contentTypeHint(infoType string) string {
	return contentTypeHints[infoType]
}

// buildUserPrompt assembles the generation request from ctx, grounded on
// build_user_prompt in generator/prompts.py.
func buildUserPrompt(ctx GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an interactive HTML layout for: %s", ctx.UserRequest)

	if ctx.InfoType != "" {
		fmt.Fprintf(&b, "\n\nContent type: %s", ctx.InfoType)
	}
	if ctx.Title != "" {
		fmt.Fprintf(&b, "\nTitle: %s", ctx.Title)
	}
	if len(ctx.Data) > 0 {
		if encoded, err := json.MarshalIndent(ctx.Data, "", "  "); err == nil {
			fmt.Fprintf(&b, "\n\nData to display:\n```json\n%s\n```", encoded)
		}
	}
	if ctx.AdditionalContext != "" {
		fmt.Fprintf(&b, "\n\nAdditional context: %s", ctx.AdditionalContext)
	}

	if hint := contentTypeHint(ctx.InfoType); hint != "" {
		return hint + "\n\n" + b.String()
	}
	return b.String()
}
