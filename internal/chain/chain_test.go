package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

type scriptedInvoker struct {
	results map[string]models.ToolResult
}

func (s *scriptedInvoker) Invoke(ctx context.Context, call models.ToolCall) models.ToolResult {
	if r, ok := s.results[call.Name]; ok {
		return r
	}
	return models.ToolResult{IsError: true, Content: "no such tool: " + call.Name}
}

func TestRun_ToolCallStepSubstitutesVarsAndSavesResult(t *testing.T) {
	invoker := &scriptedInvoker{results: map[string]models.ToolResult{
		"web_search": {Content: "TODO: fix the login bug"},
	}}
	executor := New(invoker)

	tc := models.ToolChain{
		Name: "search-todos",
		Steps: []models.ChainStep{
			{ID: "s1", Type: models.ChainStepToolCall, Tool: "web_search", Args: map[string]any{"query": "$topic"}, SaveAs: "result"},
		},
	}

	vars, err := executor.Run(context.Background(), tc, map[string]any{"topic": "todos"})
	require.NoError(t, err)
	assert.Equal(t, "TODO: fix the login bug", vars["result"])
}

func TestRun_ToolCallErrorAbortsChain(t *testing.T) {
	invoker := &scriptedInvoker{results: map[string]models.ToolResult{
		"broken": {IsError: true, Content: "boom"},
	}}
	executor := New(invoker)

	tc := models.ToolChain{Steps: []models.ChainStep{
		{ID: "s1", Type: models.ChainStepToolCall, Tool: "broken", SaveAs: "x"},
		{ID: "s2", Type: models.ChainStepTransform, Transform: "to_list", Input: "a,b", SaveAs: "never"},
	}}

	vars, err := executor.Run(context.Background(), tc, nil)
	require.Error(t, err)
	assert.NotContains(t, vars, "never")
}

func TestRun_ConditionBranchesOnNumericStringCoercion(t *testing.T) {
	invoker := &scriptedInvoker{}
	executor := New(invoker)

	tc := models.ToolChain{Steps: []models.ChainStep{
		{ID: "check", Type: models.ChainStepCondition, Left: "$count", Operator: "==", Right: 1.0, ThenStep: "yes", ElseStep: "no"},
		{ID: "yes", Type: models.ChainStepTransform, Transform: "join", Input: "matched", SaveAs: "outcome"},
		{ID: "no", Type: models.ChainStepTransform, Transform: "join", Input: "unmatched", SaveAs: "outcome"},
	}}

	vars, err := executor.Run(context.Background(), tc, map[string]any{"count": "1"})
	require.NoError(t, err)
	assert.Equal(t, "matched", vars["outcome"])
}

func TestRun_AggregateCollectsSourceValues(t *testing.T) {
	invoker := &scriptedInvoker{}
	executor := New(invoker)

	tc := models.ToolChain{Steps: []models.ChainStep{
		{ID: "s1", Type: models.ChainStepAggregate, Aggregate: "collect", Sources: []string{"a", "b"}, SaveAs: "all"},
	}}

	vars, err := executor.Run(context.Background(), tc, map[string]any{"a": "x", "b": "y"})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, vars["all"])
}

func TestRun_UnknownStepIDReturnsValidationError(t *testing.T) {
	invoker := &scriptedInvoker{}
	executor := New(invoker)

	tc := models.ToolChain{Steps: []models.ChainStep{
		{ID: "s1", Type: models.ChainStepCondition, Left: 1, Operator: "==", Right: 1, ThenStep: "missing"},
	}}

	_, err := executor.Run(context.Background(), tc, nil)
	require.Error(t, err)
}

func TestApplyTransform_ListHelpers(t *testing.T) {
	out, err := applyTransform("to_list", "a, b, c", "")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, out)

	count, err := applyTransform("count", "a,b,c", "")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	first, err := applyTransform("first", "a,b,c", "")
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	last, err := applyTransform("last", "a,b,c", "")
	require.NoError(t, err)
	assert.Equal(t, "c", last)
}

func TestApplyTransform_ListHelpersOperateOnActualListValuesNotStringifiedForm(t *testing.T) {
	list := []any{"foo.py: TODO fix", "bar.py: TODO cleanup"}

	count, err := applyTransform("count", list, "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	first, err := applyTransform("first", list, "")
	require.NoError(t, err)
	assert.Equal(t, "foo.py: TODO fix", first)

	last, err := applyTransform("last", list, "")
	require.NoError(t, err)
	assert.Equal(t, "bar.py: TODO cleanup", last)
}

func TestApplyTransform_JoinActuallyJoinsWithSeparator(t *testing.T) {
	out, err := applyTransform("join", []any{"a", "b", "c"}, "-")
	require.NoError(t, err)
	assert.Equal(t, "a-b-c", out)

	defaultSep, err := applyTransform("join", []any{"a", "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, "a, b", defaultSep)
}

func TestApplyTransform_ToJSONSerializesValue(t *testing.T) {
	out, err := applyTransform("to_json", map[string]any{"a": float64(1)}, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out.(string))
}

func TestApplyTransform_FromJSONParsesString(t *testing.T) {
	out, err := applyTransform("from_json", `{"a":1}`, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, out)
}

func TestRun_GlobGrepCountPipelineCountsActualMatches(t *testing.T) {
	invoker := &scriptedInvoker{results: map[string]models.ToolResult{
		"glob": {Content: `["a.py", "b.py"]`},
		"grep": {Content: `["a.py:1: TODO fix", "b.py:3: TODO cleanup"]`},
	}}
	executor := New(invoker)

	tc := models.ToolChain{Steps: []models.ChainStep{
		{ID: "find_files", Type: models.ChainStepToolCall, Tool: "glob", Args: map[string]any{"pattern": "*.py", "root": "$project_root"}, SaveAs: "python_files"},
		{ID: "search", Type: models.ChainStepToolCall, Tool: "grep", Args: map[string]any{"pattern": "$search_pattern", "files": "$python_files"}, SaveAs: "todo_matches"},
		{ID: "count", Type: models.ChainStepTransform, Transform: "count", Input: "$todo_matches", SaveAs: "todo_count"},
	}}

	vars, err := executor.Run(context.Background(), tc, map[string]any{"project_root": "/tmp/p", "search_pattern": "TODO"})
	require.NoError(t, err)
	assert.Equal(t, 2, vars["todo_count"])
}

func TestSubstitute_ReplacesEveryOccurrence(t *testing.T) {
	out := substitute("$greeting, $greeting!", map[string]any{"greeting": "hi"})
	assert.Equal(t, "hi, hi!", out)
}

func TestSubstituteValue_ExactVarReferencePreservesType(t *testing.T) {
	vars := map[string]any{"matches": []any{"x", "y"}}
	out := substituteValue("$matches", vars)
	assert.Equal(t, []any{"x", "y"}, out)
}
