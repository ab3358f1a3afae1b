package pipeline

import "fmt"

// FixPhase names the stage a repair attempt came from, grounded on
// html_fixer/orchestrator/contracts.py's FixPhase enum.
type FixPhase string

const (
	PhaseInitial       FixPhase = "initial"
	PhaseDeterministic FixPhase = "deterministic"
	PhaseLLMFix        FixPhase = "llm_fix"
	PhaseVisionFix     FixPhase = "vision_fix"
)

// BestResultTracker remembers the highest-scoring HTML seen across a
// generate/validate/repair run, since a repair attempt can make things
// worse and the pipeline should still return the best candidate it ever
// produced. Grounded on html_fixer/orchestrator/best_result_tracker.py's
// BestResultTracker (reconstructed from its test suite, the module itself
// not being in the retrieved source).
type BestResultTracker struct {
	original string

	bestHTML   string
	bestScore  float64
	bestPhase  FixPhase
	bestErrors int

	updates int
}

// NewBestResultTracker seeds the tracker with the original HTML at score 0.
func NewBestResultTracker(original string) *BestResultTracker {
	return &BestResultTracker{original: original, bestHTML: original, bestPhase: PhaseInitial}
}

// Update records a new candidate. It replaces the best result only on a
// strict improvement (ties keep the earlier result), and always counts
// toward UpdatesCount. Returns true when html became the new best.
func (t *BestResultTracker) Update(html string, score float64, phase FixPhase, errorsRemaining int) bool {
	t.updates++
	if score <= t.bestScore {
		return false
	}
	t.bestHTML = html
	t.bestScore = score
	t.bestPhase = phase
	t.bestErrors = errorsRemaining
	return true
}

// BestHTML is the highest-scoring HTML seen so far.
func (t *BestResultTracker) BestHTML() string { return t.bestHTML }

// BestScore is the score of BestHTML.
func (t *BestResultTracker) BestScore() float64 { return t.bestScore }

// BestPhase is which phase produced BestHTML.
func (t *BestResultTracker) BestPhase() FixPhase { return t.bestPhase }

// BestErrors is the error count recorded alongside BestHTML.
func (t *BestResultTracker) BestErrors() int { return t.bestErrors }

// Original returns the HTML the tracker was seeded with.
func (t *BestResultTracker) Original() string { return t.original }

// UpdatesCount is how many times Update has been called.
func (t *BestResultTracker) UpdatesCount() int { return t.updates }

// Improved reports whether the best result differs from the original and
// scored above zero.
func (t *BestResultTracker) Improved() bool {
	return t.bestScore > 0 && t.bestHTML != t.original
}

// Describe renders a one-line human-readable summary.
func (t *BestResultTracker) Describe() string {
	if t.Improved() {
		return fmt.Sprintf("IMPROVED: score=%.0f%% phase=%s errors_remaining=%d", t.bestScore*100, t.bestPhase, t.bestErrors)
	}
	return fmt.Sprintf("UNCHANGED: score=%.0f%% phase=%s", t.bestScore*100, t.bestPhase)
}

func (t *BestResultTracker) String() string {
	return fmt.Sprintf("BestResultTracker(score=%.2f phase=%s)", t.bestScore, t.bestPhase)
}
