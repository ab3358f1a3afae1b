package router

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// OverrideRule forces a Decision without calling the classifier when its
// Condition evaluates true against the request context, grounded on the
// teacher's ConditionEvaluator (internal/application/executor/conditions.go)
// — the same compile-cache-then-run shape, narrowed from conditional-edge
// routing to conditional-complexity routing.
type OverrideRule struct {
	Condition  string
	Complexity Complexity
	Reasoning  string
}

// ruleEvaluator compiles and caches expr programs for a fixed set of
// OverrideRules, evaluated against the per-request variable map
// (text, device_count, is_device_command, ...).
type ruleEvaluator struct {
	mu       sync.Mutex
	compiled map[string]*vm.Program
}

func newRuleEvaluator() *ruleEvaluator {
	return &ruleEvaluator{compiled: make(map[string]*vm.Program)}
}

func (e *ruleEvaluator) eval(condition string, vars map[string]any) (bool, error) {
	e.mu.Lock()
	program, ok := e.compiled[condition]
	e.mu.Unlock()

	if !ok {
		// Compiled against a generic map env rather than this call's vars,
		// since the program is cached and reused across requests whose
		// variable sets differ, mirroring the teacher's own envType :=
		// map[string]interface{}{} compile-time placeholder.
		var err error
		program, err = expr.Compile(condition, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compile override rule %q: %w", condition, err)
		}
		e.mu.Lock()
		e.compiled[condition] = program
		e.mu.Unlock()
	}

	out, err := expr.Run(program, vars)
	if err != nil {
		// A variable the rule references wasn't present for this request;
		// treat the rule as not matching rather than failing routing.
		return false, nil
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("override rule %q did not evaluate to bool", condition)
	}
	return result, nil
}

// firstMatch returns the Decision of the first rule whose Condition is true
// for vars, in declaration order, or nil if none match.
func (e *ruleEvaluator) firstMatch(rules []OverrideRule, vars map[string]any) *Decision {
	for _, rule := range rules {
		matched, err := e.eval(rule.Condition, vars)
		if err != nil || !matched {
			continue
		}
		target, ok := complexityToProvider[rule.Complexity]
		if !ok {
			continue
		}
		reasoning := rule.Reasoning
		if reasoning == "" {
			reasoning = fmt.Sprintf("override rule matched: %s", rule.Condition)
		}
		return &Decision{Complexity: rule.Complexity, TargetProvider: target, Reasoning: reasoning, Confidence: 1.0}
	}
	return nil
}

// ParseOverrideRules parses the operator-configured rule list out of a single
// env-var-friendly string: rules are ";"-separated, each one
// "condition => complexity[, reasoning]". Blank entries are skipped so a
// trailing separator or unset env var yields an empty, harmless rule set.
func ParseOverrideRules(raw string) ([]OverrideRule, error) {
	var rules []OverrideRule
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		condPart, rest, ok := strings.Cut(entry, "=>")
		if !ok {
			return nil, fmt.Errorf("override rule %q missing '=>'", entry)
		}
		complexityPart, reasoning, _ := strings.Cut(rest, ",")
		rules = append(rules, OverrideRule{
			Condition:  strings.TrimSpace(condPart),
			Complexity: Complexity(strings.TrimSpace(complexityPart)),
			Reasoning:  strings.TrimSpace(reasoning),
		})
	}
	return rules, nil
}
