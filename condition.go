package guide2pdf

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"

	"github.com/alnah/go-guide2pdf/internal/logger"
)

// ConditionEvaluator decides whether a template applies to a set of answers.
// Conditions are expr boolean expressions over the answers, with variable
// names matched case-insensitively.
type ConditionEvaluator struct {
	log *logger.Logger
}

// NewConditionEvaluator creates an evaluator that logs excluded templates.
// A nil logger discards.
func NewConditionEvaluator(log *logger.Logger) *ConditionEvaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &ConditionEvaluator{log: log}
}

// Applies reports whether t applies to answers.
// A condition that cannot be evaluated excludes the template.
func (e *ConditionEvaluator) Applies(t Template, answers map[string]any) bool {
	ok, err := EvaluateCondition(t.Condition, answers)
	if err != nil {
		e.log.Warn("excluding template with failing condition",
			"template_id", t.ID,
			"condition", t.Condition,
			"error", err,
		)
		return false
	}
	return ok
}

// Filter returns the templates that apply, in their original order.
func (e *ConditionEvaluator) Filter(templates []Template, answers map[string]any) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if e.Applies(t, answers) {
			out = append(out, t)
		}
	}
	return out
}

// EvaluateCondition evaluates condition against answers.
// An empty condition is true. Unknown variables, type mismatches and
// non-boolean results are errors.
func EvaluateCondition(condition string, answers map[string]any) (bool, error) {
	if strings.TrimSpace(condition) == "" {
		return true, nil
	}

	env, err := foldKeys(answers)
	if err != nil {
		return false, err
	}
	program, err := expr.Compile(condition,
		expr.Env(env),
		expr.AsBool(),
		expr.Patch(identifierFolder{env: env}),
	)
	if err != nil {
		return false, fmt.Errorf("compiling condition: %w", err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating condition: %w", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out)
	}
	return b, nil
}

// identifierFolder rewrites identifiers to their lower-cased form when only
// that form is known, so "Name" and "name" refer to the same answer.
// Builtins are untouched because they are not env keys.
type identifierFolder struct {
	env map[string]any
}

func (f identifierFolder) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	if _, known := f.env[id.Value]; known {
		return
	}
	if lower := strings.ToLower(id.Value); lower != id.Value {
		if _, known := f.env[lower]; known {
			id.Value = lower
		}
	}
}

// foldKeys copies m with lower-cased keys. Keys that differ only in case
// are ambiguous and rejected.
func foldKeys(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	seen := make(map[string]string, len(m))
	for k, v := range m {
		folded := strings.ToLower(k)
		if prev, ok := seen[folded]; ok {
			a, b := prev, k
			if a > b {
				a, b = b, a
			}
			return nil, fmt.Errorf("answers %q and %q differ only in case", a, b)
		}
		seen[folded] = k
		out[folded] = v
	}
	return out, nil
}
