// Package jarvisbrain wires every component spec.md names into the single
// process() entry point: classify, parse, dispatch, respond. Grounded on
// the teacher's top-level mbflow.go (the public facade over its internal
// packages) but replacing its generic Workflow/Execution/Node surface with
// this domain's route-parse-dispatch surface — nothing here models a DAG.
package jarvisbrain

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jarvis-brain/core/internal/devicehub"
	"github.com/jarvis-brain/core/internal/docreader"
	"github.com/jarvis-brain/core/internal/infrastructure/config"
	"github.com/jarvis-brain/core/internal/infrastructure/monitoring"
	"github.com/jarvis-brain/core/internal/infrastructure/tracing"
	"github.com/jarvis-brain/core/internal/intent"
	"github.com/jarvis-brain/core/internal/intentservice"
	"github.com/jarvis-brain/core/internal/layout/fixer"
	"github.com/jarvis-brain/core/internal/layout/generator"
	"github.com/jarvis-brain/core/internal/layout/pipeline"
	"github.com/jarvis-brain/core/internal/layout/validate"
	"github.com/jarvis-brain/core/internal/layout/visionrepair"
	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/router"
)

// Response is what Process returns: the routing decision, the parsed
// intent, and the dispatch result, bundled under one request_id so a
// caller (or the Monitor's log) can correlate all three.
type Response struct {
	RequestID string
	Intent    *intent.Intent
	Routing   *router.Decision
	Result    intentservice.IntentResult
}

// Brain is the fully wired process-wide instance: one Router, one Parser,
// one intentservice.Service, one Monitor, one device Hub.
type Brain struct {
	logger       *slog.Logger
	monitor      *monitoring.Monitor
	router       router.Router
	parser       *intent.Parser
	service      *intentservice.Service
	hub          *devicehub.Hub
	pipeline     *pipeline.Pipeline
	visionRepair *visionrepair.Repairer
}

// New builds a Brain from cfg, reusing hub as both the outbound
// device-dispatch collaborator and the device-name directory the router's
// and intent service's device resolution consult.
func New(cfg *config.Config, logger *slog.Logger, hub *devicehub.Hub) *Brain {
	retryPolicy := provider.DefaultRetryPolicy()
	retryPolicy.MaxAttempts = cfg.Thresholds.ProviderRetryAttempts

	withRetry := func(kind provider.Kind, pc config.ProviderConfig) provider.Provider {
		retrying := provider.NewRetryingProvider(provider.NewOpenAIProvider(kind, pc.APIKey, pc.BaseURL, pc.Model), retryPolicy)
		return provider.NewCircuitBreakerProvider(retrying, provider.DefaultCircuitBreakerConfig())
	}

	cheap := withRetry(provider.KindCheap, cfg.Cheap)
	coder := withRetry(provider.KindCoder, cfg.Coder)
	reasoner := withRetry(provider.KindReasoner, cfg.Reasoner)

	var repair *provider.JSONRepairLoop
	if cfg.Flags.JSONRepairEnabled {
		repair = provider.NewJSONRepairLoop(cheap, cfg.Thresholds.JSONRepairAttempts)
	}

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	monitor := monitoring.New(zl, cfg.MonitorHistorySize)

	deviceNames := hub.DeviceNames(context.Background())
	overrideRules, err := router.ParseOverrideRules(cfg.RoutingOverrideRules)
	if err != nil {
		logger.Warn("ignoring malformed routing override rules", "error", err)
		overrideRules = nil
	}
	rtr := router.New(cheap, repair, deviceNames, overrideRules...)
	parser := intent.New(cheap, repair)

	var (
		layoutAdapter intentservice.LayoutPipeline
		pl            *pipeline.Pipeline
		vr            *visionrepair.Repairer
	)
	if cfg.Flags.CustomLayoutEnabled {
		pl, vr = buildLayoutPipeline(cfg, logger, cheap, coder, reasoner)
		layoutAdapter = pipeline.NewServiceAdapter(pl)
	}

	docs := docreader.New()
	sender := devicehub.HubSender{Hub: hub}
	svc := intentservice.New(logger, hub, sender, docs, layoutAdapter)

	return newBrain(logger, monitor, rtr, parser, svc, hub, pl, vr)
}

// newBrain assembles a Brain from already-built collaborators, split out
// from New so tests can substitute fakes for the router/parser/service
// without constructing real provider clients.
func newBrain(logger *slog.Logger, monitor *monitoring.Monitor, rtr router.Router, parser *intent.Parser, svc *intentservice.Service, hub *devicehub.Hub, pl *pipeline.Pipeline, vr *visionrepair.Repairer) *Brain {
	return &Brain{
		logger:       logger,
		monitor:      monitor,
		router:       rtr,
		parser:       parser,
		service:      svc,
		hub:          hub,
		pipeline:     pl,
		visionRepair: vr,
	}
}

// buildLayoutPipeline wires components F-J (generate/validate/fix/vision
// repair), grounded on CustomLayoutPipeline's own lazy
// _get_generator/_get_fixer construction — collapsed here into a single
// eager build since this entry point only constructs one Brain per
// process. The vision repairer is returned separately since it is an
// opt-in path (RepairWithVision) the main Process flow never calls on its
// own, matching repair_with_vision being a distinct, separately-invoked
// method in the original.
func buildLayoutPipeline(cfg *config.Config, logger *slog.Logger, cheap, coder, reasoner provider.Provider) (*pipeline.Pipeline, *visionrepair.Repairer) {
	tracer := tracing.New()

	gen := generator.New(reasoner, logger)

	orch := validate.New(logger, tracer, validate.Thresholds{
		BlankPageThreshold:      0.95,
		ViewportChangeThreshold: cfg.Thresholds.ViewportChangeRatio,
		ElementChangeThreshold:  cfg.Thresholds.ElementChangeRatio,
		ModalOpenThreshold:      cfg.Thresholds.ModalOpenRatio,
		MaxInputsToTest:         cfg.Thresholds.MaxInputsToTest,
		RenderTimeout:           5 * cfg.InteractionTimeout,
	}, cheap)

	fx := fixer.NewFixer(cheap, reasoner, coder)
	vr := visionrepair.NewRepairer(cheap, reasoner, fx)

	var repairer pipeline.Repairer = fx
	if !cfg.Flags.HTMLRepairEnabled {
		repairer = noopRepairer{}
	}

	pl := pipeline.New(logger, gen, orch, repairer, cfg.Thresholds.MaxRepairCycles)
	return pl, vr
}

// noopRepairer disables the deterministic/LLM repair cycle when
// HTML_REPAIR_ENABLED is off, leaving the pipeline's best-seen tracker to
// fall back to the unrepaired generation.
type noopRepairer struct{}

func (noopRepairer) Repair(_ context.Context, _ string, _ validate.Report) (*fixer.RepairResult, error) {
	return nil, errors.New("html repair disabled")
}

// Process is the single entry point the rest of the world calls: classify
// complexity, parse intent, dispatch, respond. Grounded on
// app/ai/router/orchestrator.py + app/ai/intent/parser.py's combined
// request handling, folded into one call since this port has no separate
// HTTP-handler layer to split them across.
func (b *Brain) Process(ctx context.Context, text, userID string, reqContext map[string]any) Response {
	requestID := uuid.NewString()
	b.monitor.LogRequest(requestID, userID, text)

	decision, err := b.router.Route(ctx, text, reqContext)
	if err != nil || decision == nil {
		decision = &router.Decision{Complexity: router.Simple, TargetProvider: provider.KindCheap, Reasoning: "routing failed, defaulting to cheap tier"}
	}
	b.monitor.LogRouting(requestID, string(decision.Complexity), string(decision.TargetProvider), decision.Confidence)

	parsed := b.parser.Parse(ctx, text, reqContext)
	b.monitor.LogIntent(requestID, string(parsed.Type), parsed.Confidence)

	result := b.service.Handle(ctx, parsed)
	if result.CommandSent {
		b.monitor.LogCommand(requestID, deviceNameFor(parsed), result.CommandID, result.OK)
	}
	if !result.OK && result.Message != "" {
		b.monitor.LogError(requestID, result.Message, errors.New(result.Message))
	}

	return Response{RequestID: requestID, Intent: parsed, Routing: decision, Result: result}
}

// History returns the Monitor's bounded in-memory event ring, for a
// manual-testing harness to surface alongside a response.
func (b *Brain) History() []*monitoring.LogEvent { return b.monitor.History() }

// MetricsSummary returns the Monitor's per-provider aggregate metrics.
func (b *Brain) MetricsSummary() *monitoring.MetricsSummary { return b.monitor.MetricsSummary() }

// RepairWithVision re-runs repair over html using a caller-supplied
// screenshot (e.g. one captured by a device's own display, richer than
// the orchestrator's own headless render). Returns an error if the custom
// layout pipeline isn't wired in this deployment.
func (b *Brain) RepairWithVision(ctx context.Context, html, userRequest string, report validate.Report, screenshot []byte) (*fixer.RepairResult, error) {
	if b.pipeline == nil || b.visionRepair == nil {
		return nil, errors.New("custom layout pipeline isn't enabled in this deployment")
	}
	return b.pipeline.RepairWithVision(ctx, b.visionRepair, html, userRequest, report, screenshot)
}

func deviceNameFor(in *intent.Intent) string {
	switch {
	case in.DeviceCommand != nil:
		return in.DeviceCommand.DeviceName
	case in.DeviceQuery != nil:
		return in.DeviceQuery.DeviceName
	case in.DisplayContent != nil:
		return in.DisplayContent.DeviceName
	default:
		return ""
	}
}

// requestTimeout bounds how long a single Process call may run end to end,
// matching the teacher's per-request context deadline idiom in its REST
// handlers.
const requestTimeout = 30 * time.Second

// WithTimeout returns a context bounded by requestTimeout, for callers
// (cmd/server) that don't already carry a deadline.
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, requestTimeout)
}
