package workflow

import (
	"fmt"
	"log"

	"github.com/minerva/erp/pkg/expression"
)

// CompletionRule is a pure predicate deciding whether a step payload is filled in.
type CompletionRule interface {
	IsComplete(p Payload) bool
}

// MissingReporter is implemented by rules that can name the fields still missing.
type MissingReporter interface {
	Missing(p Payload) []string
}

// RuleFunc adapts a plain function to CompletionRule.
type RuleFunc func(p Payload) bool

func (f RuleFunc) IsComplete(p Payload) bool {
	return f(p)
}

// RequiredFields is complete when none of the listed fields is blank.
type RequiredFields []string

func (r RequiredFields) IsComplete(p Payload) bool {
	return len(r.Missing(p)) == 0
}

func (r RequiredFields) Missing(p Payload) []string {
	var missing []string
	for _, field := range r {
		if expression.IsBlank(p[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

// ExprRule evaluates a boolean expression against the payload.
// Evaluation errors count as incomplete.
type ExprRule struct {
	Expression string
	engine     *expression.Engine
}

func NewExprRule(engine *expression.Engine, expr string) (*ExprRule, error) {
	if err := engine.Validate(expr); err != nil {
		return nil, fmt.Errorf("invalid completion rule %q: %w", expr, err)
	}
	return &ExprRule{Expression: expr, engine: engine}, nil
}

func (r *ExprRule) IsComplete(p Payload) bool {
	ok, err := r.engine.EvaluateBool(r.Expression, p)
	if err != nil {
		log.Printf("⚠️ Completion rule %q failed: %v", r.Expression, err)
		return false
	}
	return ok
}

// AllOf combines rules; the result is complete when every rule is.
type AllOf []CompletionRule

func (a AllOf) IsComplete(p Payload) bool {
	for _, rule := range a {
		if !rule.IsComplete(p) {
			return false
		}
	}
	return true
}

func (a AllOf) Missing(p Payload) []string {
	var missing []string
	for _, rule := range a {
		if reporter, ok := rule.(MissingReporter); ok {
			missing = append(missing, reporter.Missing(p)...)
		}
	}
	return missing
}

// Evaluator maps step ids to completion rules.
type Evaluator struct {
	rules  map[int]CompletionRule
	policy MissingRulePolicy
}

func NewEvaluator(policy MissingRulePolicy) *Evaluator {
	if policy == "" {
		policy = MissingRuleComplete
	}
	return &Evaluator{rules: make(map[int]CompletionRule), policy: policy}
}

// SetRule installs or replaces the rule for a step. A nil rule removes it.
func (e *Evaluator) SetRule(step int, rule CompletionRule) {
	if rule == nil {
		delete(e.rules, step)
		return
	}
	e.rules[step] = rule
}

func (e *Evaluator) HasRule(step int) bool {
	_, ok := e.rules[step]
	return ok
}

// IsComplete evaluates the step rule. A nil payload is treated as empty.
func (e *Evaluator) IsComplete(step int, p Payload) bool {
	rule, ok := e.rules[step]
	if !ok {
		return e.policy == MissingRuleComplete
	}
	if p == nil {
		p = Payload{}
	}
	return rule.IsComplete(p)
}

// Missing lists the fields a required-field rule still wants. Expression
// rules cannot name fields, so an incomplete step without a reporter yields nil.
func (e *Evaluator) Missing(step int, p Payload) []string {
	rule, ok := e.rules[step]
	if !ok {
		return nil
	}
	if p == nil {
		p = Payload{}
	}
	if reporter, ok := rule.(MissingReporter); ok {
		return reporter.Missing(p)
	}
	return nil
}

// BuildEvaluator compiles the rules declared in a definition.
func BuildEvaluator(def *Definition, engine *expression.Engine) (*Evaluator, error) {
	eval := NewEvaluator(def.MissingRule)
	for _, step := range def.Steps {
		var rules AllOf
		if len(step.RequiredFields) > 0 {
			rules = append(rules, RequiredFields(step.RequiredFields))
		}
		if step.Rule != "" {
			rule, err := NewExprRule(engine, step.Rule)
			if err != nil {
				return nil, fmt.Errorf("workflow %s step %d: %w", def.OSType, step.ID, err)
			}
			rules = append(rules, rule)
		}

		switch len(rules) {
		case 0:
		case 1:
			eval.SetRule(step.ID, rules[0])
		default:
			eval.SetRule(step.ID, rules)
		}
	}
	return eval, nil
}
