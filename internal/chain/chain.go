// Package chain implements the declarative tool-chain executor: $var
// substitution, tool_call/transform/condition/aggregate steps, and a fixed
// set of transforms and aggregates.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// ToolInvoker is the narrow contract chain needs from the tool registry.
type ToolInvoker interface {
	Invoke(ctx context.Context, call models.ToolCall) models.ToolResult
}

// Executor runs ToolChains.
type Executor struct {
	tools ToolInvoker
}

// New returns an Executor that dispatches tool_call steps to tools.
func New(tools ToolInvoker) *Executor {
	return &Executor{tools: tools}
}

// Run executes chain's steps in order against a shared variable scope,
// returning that scope on completion. A condition step jumps to its then or
// else step; a step named as a condition's branch target runs only when
// jumped to, and sequential order skips over it. Any step failure
// terminates the chain immediately.
func (e *Executor) Run(ctx context.Context, tc models.ToolChain, initialVars map[string]any) (map[string]any, error) {
	vars := map[string]any{}
	for k, v := range initialVars {
		vars[k] = v
	}

	byID := map[string]models.ChainStep{}
	branchTargets := map[string]bool{}
	for _, s := range tc.Steps {
		byID[s.ID] = s
		if s.Type == models.ChainStepCondition {
			for _, target := range []string{s.ThenStep, s.ElseStep} {
				if target != "" {
					branchTargets[target] = true
				}
			}
		}
	}

	next := ""
	if len(tc.Steps) > 0 {
		next = tc.Steps[0].ID
	}
	visited := map[string]bool{}
	for next != "" {
		if visited[next] {
			return vars, apperr.New(apperr.KindProtocol, "tool chain step cycle detected at "+next)
		}
		visited[next] = true

		step, ok := byID[next]
		if !ok {
			return vars, apperr.New(apperr.KindValidation, "unknown chain step id: "+next)
		}

		result, branch, err := e.runStep(ctx, step, vars)
		if err != nil {
			return vars, apperr.Wrap(apperr.KindRefused, "chain step "+step.ID+" failed", err)
		}
		if step.SaveAs != "" {
			vars[step.SaveAs] = result
		}

		if branch != "" {
			next = branch
			continue
		}
		next = nextStepID(tc.Steps, step.ID)
		for branchTargets[next] {
			next = nextStepID(tc.Steps, next)
		}
	}
	return vars, nil
}

func nextStepID(steps []models.ChainStep, currentID string) string {
	for i, s := range steps {
		if s.ID == currentID && i+1 < len(steps) {
			return steps[i+1].ID
		}
	}
	return ""
}

func (e *Executor) runStep(ctx context.Context, step models.ChainStep, vars map[string]any) (any, string, error) {
	switch step.Type {
	case models.ChainStepToolCall:
		args := substituteMap(step.Args, vars)
		input, err := json.Marshal(args)
		if err != nil {
			return nil, "", err
		}
		result := e.tools.Invoke(ctx, models.ToolCall{ID: step.ID, Name: step.Tool, Input: input})
		if result.IsError {
			return nil, "", fmt.Errorf("%s", result.Content)
		}
		return decodeToolContent(result.Content), "", nil

	case models.ChainStepTransform:
		input := substituteValue(step.Input, vars)
		out, err := applyTransform(step.Transform, input, step.Separator)
		return out, "", err

	case models.ChainStepCondition:
		left := substituteValue(step.Left, vars)
		right := substituteValue(step.Right, vars)
		ok, err := evalCondition(left, step.Operator, right)
		if err != nil {
			return nil, "", err
		}
		if ok {
			return ok, step.ThenStep, nil
		}
		return ok, step.ElseStep, nil

	case models.ChainStepAggregate:
		values := make([]any, 0, len(step.Sources))
		for _, src := range step.Sources {
			values = append(values, vars[src])
		}
		out, err := applyAggregate(step.Aggregate, values)
		return out, "", err

	default:
		return nil, "", apperr.New(apperr.KindValidation, "unknown chain step type: "+string(step.Type))
	}
}

// decodeToolContent parses a tool's result as JSON when it is one, so a
// glob/grep-style tool that reports a list of matches is carried through the
// variable scope as a real list rather than as opaque text downstream
// transforms would have to re-split. Plain-text output that isn't valid JSON
// (a search snippet, a file's contents) is kept as the string it is.
func decodeToolContent(content string) any {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		return v
	}
	return content
}

// substitute recursively replaces every $name token in s with the string
// form of vars[name].
func substitute(s string, vars map[string]any) string {
	for name, val := range vars {
		s = strings.ReplaceAll(s, "$"+name, fmt.Sprintf("%v", val))
	}
	return s
}

func substituteValue(v any, vars map[string]any) any {
	if s, ok := v.(string); ok {
		if val, ok := vars[strings.TrimPrefix(s, "$")]; ok && strings.HasPrefix(s, "$") {
			return val
		}
		return substitute(s, vars)
	}
	if m, ok := v.(map[string]any); ok {
		return substituteMap(m, vars)
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = substituteValue(item, vars)
		}
		return out
	}
	return v
}

func substituteMap(m map[string]any, vars map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = substituteValue(v, vars)
	}
	return out
}

// applyTransform dispatches on kind against input, which carries the actual
// resolved variable value (a list, a string, or anything else
// substituteValue produced) rather than its stringified form, so
// count/first/last/join operate on real collection elements instead of a
// comma-split re-rendering of a %v-formatted string.
func applyTransform(kind string, input any, separator string) (any, error) {
	switch kind {
	case "to_json":
		b, err := json.Marshal(input)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case "from_json":
		s, ok := input.(string)
		if !ok {
			s = fmt.Sprintf("%v", input)
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		return v, nil
	case "to_list":
		return asItems(input, separator), nil
	case "count":
		return len(asItems(input, separator)), nil
	case "first":
		items := asItems(input, separator)
		if len(items) == 0 {
			return nil, nil
		}
		return items[0], nil
	case "last":
		items := asItems(input, separator)
		if len(items) == 0 {
			return nil, nil
		}
		return items[len(items)-1], nil
	case "join":
		items := asItems(input, separator)
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = fmt.Sprintf("%v", item)
		}
		sep := separator
		if sep == "" {
			sep = ", "
		}
		return strings.Join(parts, sep), nil
	case "split":
		s, ok := input.(string)
		if !ok {
			s = fmt.Sprintf("%v", input)
		}
		return strings.Split(s, separatorOr(separator, ",")), nil
	default:
		return nil, apperr.New(apperr.KindValidation, "unknown transform: "+kind)
	}
}

// asItems normalizes input into a slice: a []any or []string variable (e.g.
// a prior tool_call's list result) passes through element-for-element,
// while a plain string falls back to splitting on separator (defaulting to
// ","), matching the comma-separated-string behavior callers relied on
// before list-typed variables were threaded through unstringified.
func asItems(input any, separator string) []any {
	switch v := input.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case string:
		parts := strings.Split(v, separatorOr(separator, ","))
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out
	default:
		return []any{v}
	}
}

func separatorOr(sep, fallback string) string {
	if sep == "" {
		return fallback
	}
	return sep
}

func applyAggregate(kind string, values []any) (any, error) {
	switch kind {
	case "collect":
		return values, nil
	case "concat":
		var b strings.Builder
		for _, v := range values {
			b.WriteString(fmt.Sprintf("%v", v))
		}
		return b.String(), nil
	case "merge":
		out := map[string]any{}
		for _, v := range values {
			if m, ok := v.(map[string]any); ok {
				for k, mv := range m {
					out[k] = mv
				}
			}
		}
		return out, nil
	default:
		return nil, apperr.New(apperr.KindValidation, "unknown aggregate: "+kind)
	}
}

// evalCondition compares left and right with operator, coercing numeric-
// looking strings to float64 before comparing, matching the original's
// best-effort JSON-decode-then-compare behavior (so "1" == 1 is true).
func evalCondition(left any, operator string, right any) (bool, error) {
	if operator == "exists" {
		return left != nil, nil
	}
	left = coerceNumeric(left)
	right = coerceNumeric(right)

	switch operator {
	case "==":
		return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right), nil
	case "!=":
		return fmt.Sprintf("%v", left) != fmt.Sprintf("%v", right), nil
	case "<", "<=", ">", ">=":
		lf, lok := toFloat(left)
		rf, rok := toFloat(right)
		if !lok || !rok {
			return false, apperr.New(apperr.KindValidation, "non-numeric comparison with operator "+operator)
		}
		switch operator {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		default:
			return lf >= rf, nil
		}
	default:
		return false, apperr.New(apperr.KindValidation, "unknown condition operator: "+operator)
	}
}

func coerceNumeric(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
