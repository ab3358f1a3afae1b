package validate

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/jarvis-brain/core/internal/infrastructure/tracing"
	"github.com/jarvis-brain/core/internal/provider"
)

// Thresholds configures the seven-phase run, grounded on
// validation/contracts.py's ValidationContract.
type Thresholds struct {
	BlankPageThreshold      float64
	ViewportChangeThreshold float64
	ElementChangeThreshold  float64
	ModalOpenThreshold      float64
	MaxInputsToTest         int
	RenderTimeout           time.Duration
}

// Orchestrator runs all seven validation phases against a single rendered
// page context and hands the result to the Aggregator, grounded on
// app/ai/scene/custom_layout/validator.py + __init__.py's phase pipeline.
type Orchestrator struct {
	logger     *slog.Logger
	tracer     *tracing.Tracer
	thresholds Thresholds
	visual     *VisualAnalyzer
	scene      *SceneGraphExtractor
	inputs     *InputDetector
	interact   *InteractionValidator
	aggregator *Aggregator
	allocOpts  []chromedp.ExecAllocatorOption
}

// New builds an Orchestrator. concordanceProvider is handed to the
// VisualAnalyzer for CheckVisualConcordance and may be nil; Run itself does
// not call the concordance check.
func New(logger *slog.Logger, tracer *tracing.Tracer, thresholds Thresholds, concordanceProvider provider.Provider) *Orchestrator {
	return &Orchestrator{
		logger:     logger,
		tracer:     tracer,
		thresholds: thresholds,
		visual:     NewVisualAnalyzer(concordanceProvider),
		scene:      NewSceneGraphExtractor(),
		inputs:     NewInputDetector(thresholds.MaxInputsToTest),
		interact:   NewInteractionValidator(thresholds.ViewportChangeThreshold, thresholds.ElementChangeThreshold, thresholds.ModalOpenThreshold),
		aggregator: NewAggregator(),
		allocOpts: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.WindowSize(1920, 1080),
		),
	}
}

// Run renders html and executes all seven phases against a single browser
// context, released on every exit path via the deferred cancels below —
// spec §5's strongest invariant (one browser per request, matched release
// on every exit, including early-return and cancellation).
func (o *Orchestrator) Run(ctx context.Context, html, userRequest, layoutType string) Report {
	var phases []PhaseResult

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, o.allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var jsErrors []string
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if exc, ok := ev.(*runtime.EventExceptionThrown); ok && exc.ExceptionDetails != nil {
			jsErrors = append(jsErrors, exc.ExceptionDetails.Text)
		}
	})

	renderer := NewRenderer(o.logger, o.thresholds.RenderTimeout)
	renderSpan, endRender := o.span(browserCtx, "render")
	renderResult, err := renderer.Render(renderSpan, html)
	endRender(err)
	renderErrs := append(append([]string{}, renderResult.Errors...), jsErrors...)
	renderPassed := err == nil && renderResult.Valid && len(jsErrors) == 0
	phases = append(phases, PhaseResult{
		Phase:    "render",
		Passed:   renderPassed,
		Score:    boolScore(renderPassed),
		Errors:   renderErrs,
		Warnings: renderResult.Warnings,
	})
	if !renderPassed {
		return o.aggregator.Aggregate(phases, nil, layoutType)
	}

	var screenshot []byte
	_ = chromedp.Run(browserCtx, chromedp.CaptureScreenshot(&screenshot))

	_, endVisual := o.span(ctx, "visual_analysis")
	visualPhase, snapshot := o.visual.Analyze(screenshot, o.thresholds.BlankPageThreshold)
	endVisual(nil)
	phases = append(phases, visualPhase)
	if !visualPhase.Passed {
		return o.aggregator.Aggregate(phases, nil, layoutType)
	}
	_ = snapshot

	_, endScene := o.span(ctx, "scene_graph")
	scenePhase, graph := o.scene.Extract(browserCtx)
	endScene(nil)
	phases = append(phases, scenePhase)
	if !scenePhase.Passed {
		return o.aggregator.Aggregate(phases, nil, layoutType)
	}

	_, endInputs := o.span(ctx, "input_detection")
	inputPhase, candidates := o.inputs.Detect(graph)
	endInputs(nil)
	phases = append(phases, inputPhase)

	_, endInteraction := o.span(ctx, "interaction")
	interactionStart := len(jsErrors)
	interactionPhase, results := o.interact.Validate(browserCtx, candidates, graph, &jsErrors, interactionStart)
	endInteraction(nil)
	phases = append(phases, interactionPhase)

	return o.aggregator.Aggregate(phases, results, layoutType)
}

func (o *Orchestrator) span(ctx context.Context, phase string) (context.Context, func(error)) {
	if o.tracer == nil {
		return ctx, func(error) {}
	}
	return o.tracer.PhaseSpan(ctx, phase, nil)
}
