package generator

// GenerationContext carries everything a generation call needs, grounded on
// generator/contracts.py's GenerationContext dataclass.
type GenerationContext struct {
	UserRequest       string
	InfoType          string
	Title             string
	Data              map[string]any
	AdditionalContext string
}

// Result is what Generate returns, grounded on
// generator/contracts.py's HTMLGenerationResult.
type Result struct {
	Success      bool
	HTML         string
	Error        string
	TokensUsed   int
	LatencyMS    float64
	ThinkingUsed bool
	Model        string
}
