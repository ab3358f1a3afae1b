package validate

import "strings"

const minResponsiveRatio = 0.70

var criticalPhases = map[string]bool{
	"render":           true,
	"visual_analysis":  true,
	"scene_graph":      true,
	"input_detection":  true,
}

var staticLayoutTypes = map[string]bool{"static": true, "info": true, "display": true, "content": true}

// Aggregator is phase 6: fold phase results into a final decision,
// grounded on validation/aggregator.py's ValidationAggregator.
type Aggregator struct{}

// NewAggregator builds an Aggregator.
func NewAggregator() *Aggregator { return &Aggregator{} }

// Aggregate combines phases and interaction results into a Report.
// "If the system saw a button, that button has to respond — no layout name
// excuses it from working" is the load-bearing rule here (ported from the
// original's interaction-gating logic), not just "all phases passed."
func (a *Aggregator) Aggregate(phases []PhaseResult, interactions []InteractionResult, layoutType string) Report {
	for _, p := range phases {
		if criticalPhases[p.Phase] && !p.Passed {
			return Report{Phases: phases, FinalScore: 0, Passed: false}
		}
	}

	tested := len(interactions)
	responsive := 0
	for _, r := range interactions {
		if r.Responsive {
			responsive++
		}
	}

	if tested > 0 {
		ratio := float64(responsive) / float64(tested)
		if responsive == 0 || ratio < minResponsiveRatio {
			return Report{Phases: phases, FinalScore: ratio, Passed: false}
		}
	}

	confidence := a.calculateConfidence(phases, tested, responsive, layoutType)
	return Report{Phases: phases, FinalScore: confidence, Passed: true}
}

func (a *Aggregator) calculateConfidence(phases []PhaseResult, tested, responsive int, layoutType string) float64 {
	var confidence float64
	if tested > 0 {
		ratio := float64(responsive) / float64(tested)
		confidence = 0.5 + 0.5*ratio
	} else if staticLayoutTypes[strings.ToLower(layoutType)] {
		confidence = 0.9
	} else {
		confidence = 0.6
	}

	warningCount := 0
	for _, p := range phases {
		warningCount += len(p.Warnings)
	}
	if warningCount > 0 {
		penalty := float64(warningCount) * 0.05
		if penalty > 0.20 {
			penalty = 0.20
		}
		confidence -= penalty
	}

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return confidence
}
