package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/miradorstack/credit-risk/internal/models"
)

// ruleCostLimit bounds evaluation of a single guidance expression.
const ruleCostLimit = 10000

// RuleEngine attaches reviewer guidance notes to scored applications.
type RuleEngine struct {
	rules  []compiledRule
	logger *slog.Logger
}

// Rule is one entry of the guidance rule pack.
type Rule struct {
	ID    string   `yaml:"id"`
	When  string   `yaml:"when"`
	Notes []string `yaml:"notes"`
}

// RuleConfigFile is the YAML root structure.
type RuleConfigFile struct {
	Rules []Rule `yaml:"rules"`
}

type compiledRule struct {
	Rule
	program cel.Program
}

// NewRuleEngine loads rules from path. An empty path or a missing file yields
// a nil engine, which matches nothing.
func NewRuleEngine(path string, logger *slog.Logger) (*RuleEngine, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rule pack %s: %w", path, err)
	}
	return NewRuleEngineFromRules(cfg.Rules, logger)
}

// NewRuleEngineFromRules compiles rules against the guidance environment.
func NewRuleEngineFromRules(rules []Rule, logger *slog.Logger) (*RuleEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("probability", cel.DoubleType),
		cel.Variable("tier", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule.When == "" {
			return nil, fmt.Errorf("rule %s: empty when expression", rule.ID)
		}
		ast, issues := env.Compile(rule.When)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile: %w", rule.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: expression yields %s, want bool", rule.ID, ast.OutputType())
		}
		prog, err := env.Program(ast, cel.CostLimit(ruleCostLimit))
		if err != nil {
			return nil, fmt.Errorf("rule %s: program: %w", rule.ID, err)
		}
		compiled = append(compiled, compiledRule{Rule: rule, program: prog})
	}
	return &RuleEngine{rules: compiled, logger: logger}, nil
}

// Len returns the number of loaded rules.
func (e *RuleEngine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.rules)
}

// Notes evaluates every rule and returns the de-duplicated notes of those that match.
func (e *RuleEngine) Notes(rec models.InputRecord, probability float64, tier models.RiskTier) []string {
	if e == nil {
		return nil
	}

	activation := map[string]any{
		"record":      rec.Columns(),
		"probability": probability,
		"tier":        string(tier),
	}
	matched := make([]string, 0)
	for _, rule := range e.rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			e.logger.Debug("guidance rule failed", slog.String("rule", rule.ID), slog.Any("error", err))
			continue
		}
		if ok, isBool := out.Value().(bool); isBool && ok {
			matched = appendUnique(matched, rule.Notes...)
		}
	}
	return matched
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
