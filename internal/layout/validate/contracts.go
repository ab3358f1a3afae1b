// Package validate renders and scores generated HTML layouts across the
// seven validation phases, grounded on
// app/ai/scene/custom_layout/validation/*.py and validator.py.
package validate

// RenderResult is the phase 1 (render) output, grounded on
// validator.py's ValidationResult.
type RenderResult struct {
	Valid         bool
	Errors        []string
	Warnings      []string
	RenderTime    float64 // ms
	ScreenshotPNG []byte
}

// PhaseResult is the uniform per-phase scoring output the aggregator
// collects, grounded on validation/contracts.py.
type PhaseResult struct {
	Phase    string
	Passed   bool
	Score    float64
	Errors   []string
	Warnings []string
	Details  map[string]any
}

// Report is the full seven-phase validation result handed to the pipeline,
// grounded on validation/aggregator.py's AggregatedResult.
type Report struct {
	Phases     []PhaseResult
	FinalScore float64
	Passed     bool
}
