// Package router classifies a request's complexity and picks a provider
// tier to answer it, grounded on app/ai/router/orchestrator.py's AIRouter.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jarvis-brain/core/internal/provider"
)

// Complexity mirrors the original's TaskComplexity enum.
type Complexity string

const (
	Simple           Complexity = "simple"
	ComplexExecution Complexity = "complex_execution"
	ComplexReasoning Complexity = "complex_reasoning"
	Unknown          Complexity = "unknown"
)

// complexityToProvider is the fixed routing table from spec §3.
var complexityToProvider = map[Complexity]provider.Kind{
	Simple:           provider.KindCheap,
	ComplexExecution: provider.KindCoder,
	ComplexReasoning: provider.KindReasoner,
	Unknown:          provider.KindCheap,
}

// Decision mirrors the original's RoutingDecision dataclass.
type Decision struct {
	Complexity            Complexity
	TargetProvider         provider.Kind
	Reasoning              string
	Confidence             float64
	IsDeviceCommand        bool
	ShouldRespondDirectly  bool
}

// safeDefault is returned whenever classification fails or errors out,
// grounded on the original's analyze_request fallback path.
func safeDefault(reasoning string) *Decision {
	return &Decision{
		Complexity:     Simple,
		TargetProvider: provider.KindCheap,
		Reasoning:      reasoning,
		Confidence:     0.5,
	}
}

// PendingOperation describes an in-flight multi-turn operation awaiting a
// follow-up (e.g. "which one?" after a disambiguation prompt). When present
// and still fresh, it takes precedence over classification — the most
// recent pending operation wins, and explicit phrasing in the new request
// can override it outright.
type PendingOperation struct {
	Kind      string
	IssuedAt  time.Time
	TTL       time.Duration
}

// stillPending reports whether p has not expired.
func (p *PendingOperation) stillPending(now time.Time) bool {
	if p == nil {
		return false
	}
	if p.TTL <= 0 {
		return true
	}
	return now.Sub(p.IssuedAt) < p.TTL
}

// explicitOverridePhrases cancel a pending operation outright regardless of
// its freshness, grounded on the teacher's short-circuit-before-evaluator
// pattern in internal/application/executor/conditions.go.
var explicitOverridePhrases = []string{"never mind", "cancel", "forget it", "start over"}

// Router is the interface the intent service calls to pick a provider tier.
type Router interface {
	Route(ctx context.Context, text string, reqContext map[string]any) (*Decision, error)
}

// cheapModelRouter is the sole concrete Router: it asks the cheap provider
// to classify the request, grounded on AIRouter.analyze_request.
type cheapModelRouter struct {
	cheap       provider.Provider
	repair      *provider.JSONRepairLoop
	deviceNames []string
	rules       []OverrideRule
	ruleEval    *ruleEvaluator
}

// New builds a Router backed by the given cheap provider. rules is optional:
// when non-empty, each request's text/device context is checked against
// rules (in order) before the LLM classifier is called at all, letting an
// operator force routing decisions for known phrasing without paying for a
// classification call.
func New(cheap provider.Provider, repair *provider.JSONRepairLoop, deviceNames []string, rules ...OverrideRule) Router {
	return &cheapModelRouter{
		cheap:       cheap,
		repair:      repair,
		deviceNames: deviceNames,
		rules:       rules,
		ruleEval:    newRuleEvaluator(),
	}
}

func (r *cheapModelRouter) Route(ctx context.Context, text string, reqContext map[string]any) (*Decision, error) {
	if pending, ok := reqContext["pending_operation"].(*PendingOperation); ok {
		if overridden := matchesOverride(text); overridden {
			return &Decision{Complexity: Simple, TargetProvider: provider.KindCheap, Reasoning: "pending operation cancelled by explicit phrasing", Confidence: 0.9}, nil
		}
		if pending.stillPending(time.Now()) {
			return &Decision{
				Complexity:            Simple,
				TargetProvider:        provider.KindCheap,
				Reasoning:             fmt.Sprintf("continuing pending operation %q", pending.Kind),
				Confidence:            0.9,
				ShouldRespondDirectly: true,
			}, nil
		}
	}

	if forced, ok := reqContext["force_provider"].(provider.Kind); ok {
		return &Decision{Complexity: Unknown, TargetProvider: forced, Reasoning: "forced provider override", Confidence: 1.0}, nil
	}

	if len(r.rules) > 0 {
		if decision := r.ruleEval.firstMatch(r.rules, ruleVariables(text, reqContext, r.deviceNames)); decision != nil {
			return decision, nil
		}
	}

	prompt := r.buildPrompt(text, reqContext)
	resp, err := r.cheap.CompleteJSON(ctx, provider.Request{
		SystemPrompt: r.systemPrompt(reqContext),
		Prompt:       prompt,
		Temperature:  0.0,
		MaxTokens:    300,
	})
	if err != nil || resp == nil || !resp.OK {
		return safeDefault("classification call failed"), nil
	}

	parsed, parseErr := r.parse(ctx, resp.Content)
	if parseErr != nil {
		return safeDefault("classification response unparseable"), nil
	}
	return parsed, nil
}

func (r *cheapModelRouter) parse(ctx context.Context, raw string) (*Decision, error) {
	var fields map[string]any
	var err error
	if unmarshalErr := json.Unmarshal([]byte(provider.CleanMarkdownWrapper(raw)), &fields); unmarshalErr != nil {
		if r.repair == nil {
			return nil, unmarshalErr
		}
		fields, err = r.repair.Repair(ctx, raw, r.cheap)
		if err != nil {
			return nil, err
		}
	}

	complexity := Complexity(fmt.Sprint(fields["complexity"]))
	target, ok := complexityToProvider[complexity]
	if !ok {
		complexity = Simple
		target = provider.KindCheap
	}

	confidence := 0.5
	if c, ok := fields["confidence"].(float64); ok {
		confidence = c
	}

	return &Decision{
		Complexity:            complexity,
		TargetProvider:        target,
		Reasoning:             fmt.Sprint(fields["reasoning"]),
		Confidence:            confidence,
		IsDeviceCommand:       asBool(fields["is_device_command"]),
		ShouldRespondDirectly: asBool(fields["should_respond_directly"]),
	}, nil
}

func (r *cheapModelRouter) buildPrompt(text string, reqContext map[string]any) string {
	return fmt.Sprintf("Request: %s\nContext: %v", text, reqContext)
}

// systemPrompt mirrors _get_system_prompt_for_task: it includes the device
// list and device-command-specific instructions when relevant.
func (r *cheapModelRouter) systemPrompt(reqContext map[string]any) string {
	var b strings.Builder
	b.WriteString("Classify the request's complexity as one of: simple, complex_execution, complex_reasoning. ")
	b.WriteString("Respond with JSON: {complexity, reasoning, confidence, is_device_command, should_respond_directly}.")
	if len(r.deviceNames) > 0 {
		b.WriteString(" Known devices: ")
		b.WriteString(strings.Join(r.deviceNames, ", "))
	}
	return b.String()
}

// ruleVariables builds the map an OverrideRule's Condition is evaluated
// against: the raw request text, the device count known to this router, and
// whatever the caller stashed in reqContext, flattened into one map so a
// rule can reference "text" and "device_count" alongside caller-supplied
// keys without the caller needing to know the reserved names in advance.
func ruleVariables(text string, reqContext map[string]any, deviceNames []string) map[string]any {
	vars := make(map[string]any, len(reqContext)+2)
	for k, v := range reqContext {
		vars[k] = v
	}
	vars["text"] = text
	vars["device_count"] = len(deviceNames)
	return vars
}

func matchesOverride(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range explicitOverridePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
