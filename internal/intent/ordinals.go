package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// ordinalPatterns is the regexp table used to detect a selection ordinal
// ("the first one", "1st", "number 2"), grounded on parser.py's
// ordinal-parsing helper.
var ordinalPatterns = []struct {
	re    *regexp.Regexp
	value int
}{
	{regexp.MustCompile(`(?i)\bfirst\b`), 1},
	{regexp.MustCompile(`(?i)\bsecond\b`), 2},
	{regexp.MustCompile(`(?i)\bthird\b`), 3},
	{regexp.MustCompile(`(?i)\bfourth\b`), 4},
	{regexp.MustCompile(`(?i)\bfifth\b`), 5},
	{regexp.MustCompile(`(?i)(\d+)(?:st|nd|rd|th)\b`), 0}, // numeric captured below
	{regexp.MustCompile(`(?i)number\s+(\d+)`), 0},
}

// ParseSelector detects an ordinal reference in text ("the first one",
// "2nd", "number 3"); it returns a zero Selector.Ordinal when none is found,
// leaving Title set to the raw text for title-based lookup instead.
func ParseSelector(text string) Selector {
	trimmed := strings.TrimSpace(text)
	for _, p := range ordinalPatterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		if p.value > 0 {
			return Selector{Ordinal: p.value}
		}
		if len(m) > 1 {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return Selector{Ordinal: n}
			}
		}
	}
	return Selector{Title: trimmed}
}

// editFieldKeywords infers which event field a bare value belongs to when
// the caller didn't name the field explicitly, grounded on parser.py's
// bare-value edit-field inference logic.
var editFieldKeywords = map[string][]string{
	"time":     {"am", "pm", ":", "o'clock"},
	"title":    {"call", "meeting", "lunch", "appointment"},
	"location": {"room", "office", "street", "ave", "building"},
}

// InferEditField resolves (field, value) for a calendar edit: if field is
// already named, it's used as-is; otherwise the bare value is matched
// against editFieldKeywords, defaulting to "title" when nothing matches.
func InferEditField(field, value string) (resolvedField, resolvedValue, bareValue string) {
	if field != "" {
		return field, value, ""
	}
	if value == "" {
		return "title", "", ""
	}

	lower := strings.ToLower(value)
	for f, keywords := range editFieldKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return f, value, value
			}
		}
	}
	return "title", value, value
}
