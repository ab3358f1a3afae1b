// Package pipeline wires generation, validation, and repair into the
// single entry point the rest of the system calls to turn a display
// request into a validated HTML document. Grounded on
// app/ai/scene/custom_layout/pipeline.py's CustomLayoutPipeline.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jarvis-brain/core/internal/layout/fixer"
	"github.com/jarvis-brain/core/internal/layout/generator"
	"github.com/jarvis-brain/core/internal/layout/validate"
	"github.com/jarvis-brain/core/internal/layout/visionrepair"
)

// Request is the input to Process, grounded on pipeline.py's process()
// signature.
type Request struct {
	UserRequest string
	InfoType    string
	Title       string
	Data        map[string]any
	Context     map[string]any
}

// Result is what Process returns, grounded on generator/contracts.py's
// PipelineResult.
type Result struct {
	Success         bool
	HTML            string
	GenerationResult generator.Result
	ValidationReport *validate.Report
	TotalLatencyMS  float64
	TokensUsed      int
	FinalScore      float64
	Error           string
	Tracker         *BestResultTracker
}

// Generator is the subset of generator.Generator Process needs, narrowed
// to an interface so tests can substitute a fake.
type Generator interface {
	Generate(ctx context.Context, genCtx generator.GenerationContext) generator.Result
}

// Validator is the subset of validate.Orchestrator Process needs.
type Validator interface {
	Run(ctx context.Context, html, userRequest, layoutType string) validate.Report
}

// Repairer is the subset of fixer.Fixer Process needs.
type Repairer interface {
	Repair(ctx context.Context, html string, report validate.Report) (*fixer.RepairResult, error)
}

// Pipeline runs generate -> validate -> repair, grounded on
// CustomLayoutPipeline.
type Pipeline struct {
	logger          *slog.Logger
	generator       Generator
	orchestrator    Validator
	fixer           Repairer
	feedbackFixer   FeedbackRepairer
	maxRepairCycles int
	skipValidation  bool
}

// New builds a Pipeline. maxRepairCycles bounds how many validate/repair
// rounds run before the pipeline gives up and returns its best candidate,
// grounded on CustomLayoutPipeline's max_repair_cycles (default 2). If fx
// also implements FeedbackRepairer (fixer.Fixer does), ProcessFeedback's
// human-feedback mode becomes available.
func New(logger *slog.Logger, gen Generator, orch Validator, fx Repairer, maxRepairCycles int) *Pipeline {
	if maxRepairCycles <= 0 {
		maxRepairCycles = 2
	}
	p := &Pipeline{logger: logger, generator: gen, orchestrator: orch, fixer: fx, maxRepairCycles: maxRepairCycles}
	if fb, ok := fx.(FeedbackRepairer); ok {
		p.feedbackFixer = fb
	}
	return p
}

// WithSkipValidation returns a copy of p that skips the validate/repair
// phase entirely, grounded on CustomLayoutPipeline's skip_validation
// testing flag.
func (p *Pipeline) WithSkipValidation(skip bool) *Pipeline {
	cp := *p
	cp.skipValidation = skip
	return &cp
}

// Process runs the full generate -> validate -> repair flow and returns
// the best HTML the pipeline produced.
func (p *Pipeline) Process(ctx context.Context, req Request) Result {
	start := time.Now()

	genCtx := generator.GenerationContext{
		UserRequest: req.UserRequest,
		InfoType:    req.InfoType,
		Title:       req.Title,
		Data:        req.Data,
	}
	if req.Context != nil {
		genCtx.AdditionalContext = formatContext(req.Context)
	}

	p.logger.Info("pipeline started", "request_preview", preview(req.UserRequest, 50))

	genResult := p.generator.Generate(ctx, genCtx)
	if !genResult.Success {
		p.logger.Error("generation failed", "err", genResult.Error)
		return Result{
			Success:          false,
			GenerationResult: genResult,
			TotalLatencyMS:   elapsedMS(start),
			TokensUsed:       genResult.TokensUsed,
			Error:            "generation failed: " + genResult.Error,
		}
	}

	if p.skipValidation {
		return Result{
			Success:          true,
			HTML:             genResult.HTML,
			GenerationResult: genResult,
			TotalLatencyMS:   elapsedMS(start),
			TokensUsed:       genResult.TokensUsed,
			FinalScore:       1.0,
		}
	}

	tracker := NewBestResultTracker(genResult.HTML)
	totalTokens := genResult.TokensUsed
	var lastReport *validate.Report

	// Each iteration validates the current candidate and scores it into the
	// tracker before attempting a repair, so a repaired candidate is never
	// accepted as "best" until it has actually been re-validated. This runs
	// one more validate pass than maxRepairCycles repair attempts (an
	// initial validation, then one validate+repair per cycle), grounded on
	// CustomLayoutPipeline's max_repair_cycles bounding the validate/repair
	// rounds rather than the repair calls alone.
	html := genResult.HTML
	prevScore := 0.0
	stagnantCycles := 0
	for cycle := 0; cycle <= p.maxRepairCycles; cycle++ {
		report := p.orchestrator.Run(ctx, html, req.UserRequest, req.InfoType)
		lastReport = &report

		phase := PhaseDeterministic
		if cycle == 0 {
			phase = PhaseInitial
		}
		tracker.Update(html, report.FinalScore, phase, countFailures(report))

		if report.Passed || cycle == p.maxRepairCycles {
			break
		}

		// Stop early if the repair loop is stuck: the score hasn't moved
		// across two consecutive cycles, grounded on CustomLayoutPipeline's
		// step 6 ("stop early if no change in score for two consecutive
		// cycles, or if a repair pass returned the same HTML").
		if cycle > 0 && report.FinalScore == prevScore {
			stagnantCycles++
		} else {
			stagnantCycles = 0
		}
		prevScore = report.FinalScore
		if stagnantCycles >= 2 {
			p.logger.Info("repair loop stagnant, stopping early", "cycle", cycle, "score", report.FinalScore)
			break
		}

		repairResult, err := p.fixer.Repair(ctx, html, report)
		if err != nil || repairResult == nil || !repairResult.Success {
			break
		}
		if repairResult.HTML == html {
			p.logger.Info("repair pass returned unchanged HTML, stopping early", "cycle", cycle)
			break
		}
		html = repairResult.HTML
	}

	p.logger.Info("pipeline finished", "summary", tracker.Describe())

	return Result{
		Success:          tracker.BestHTML() != "",
		HTML:             tracker.BestHTML(),
		GenerationResult: genResult,
		ValidationReport: lastReport,
		TotalLatencyMS:   elapsedMS(start),
		TokensUsed:       totalTokens,
		FinalScore:       tracker.BestScore(),
		Tracker:          tracker,
	}
}

// GenerateOnly runs generation without validation, for quick iteration.
func (p *Pipeline) GenerateOnly(ctx context.Context, req Request) Result {
	start := time.Now()
	genCtx := generator.GenerationContext{UserRequest: req.UserRequest, InfoType: req.InfoType, Title: req.Title, Data: req.Data}
	genResult := p.generator.Generate(ctx, genCtx)

	score := 0.0
	if genResult.Success {
		score = 1.0
	}
	return Result{
		Success:          genResult.Success,
		HTML:             genResult.HTML,
		GenerationResult: genResult,
		TotalLatencyMS:   elapsedMS(start),
		TokensUsed:       genResult.TokensUsed,
		FinalScore:       score,
		Error:            genResult.Error,
	}
}

// ValidateOnly runs validation and repair over pre-existing HTML, for
// testing the validate/repair loop independent of generation.
func (p *Pipeline) ValidateOnly(ctx context.Context, html, userRequest, infoType string) Result {
	start := time.Now()
	report := p.orchestrator.Run(ctx, html, userRequest, infoType)

	tracker := NewBestResultTracker(html)
	tracker.Update(html, report.FinalScore, PhaseInitial, countFailures(report))

	if !report.Passed {
		if repairResult, err := p.fixer.Repair(ctx, html, report); err == nil && repairResult != nil && repairResult.Success {
			tracker.Update(repairResult.HTML, report.FinalScore, PhaseLLMFix, countFailures(report))
		}
	}

	return Result{
		Success:          report.Passed || tracker.BestScore() > 0.5,
		HTML:             tracker.BestHTML(),
		ValidationReport: &report,
		TotalLatencyMS:   elapsedMS(start),
		FinalScore:       tracker.BestScore(),
		Tracker:          tracker,
	}
}

// RepairWithVision runs the vision-based repair path over html using a
// screenshot the caller already captured, for when a richer visual signal
// is available than the orchestrator's own render pass produced (e.g. a
// user-submitted annotated screenshot). Grounded on
// validation/fixer.py's DirectFixer.repair_with_vision being a distinct,
// separately-invoked path from the main process() flow.
func (p *Pipeline) RepairWithVision(ctx context.Context, vr *visionrepair.Repairer, html, userRequest string, report validate.Report, screenshot []byte) (*fixer.RepairResult, error) {
	return vr.Repair(ctx, html, report, userRequest, screenshot)
}

func countFailures(report validate.Report) int {
	n := 0
	for _, p := range report.Phases {
		if !p.Passed {
			n++
		}
	}
	return n
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func formatContext(ctx map[string]any) string {
	if len(ctx) == 0 {
		return ""
	}
	out := ""
	for k, v := range ctx {
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, v)
	}
	return out
}
