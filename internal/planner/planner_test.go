package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

type scriptedReasoner struct {
	reply string
	err   error
}

func (s *scriptedReasoner) Ask(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

func TestCreatePlan_ParsesJSONPlanAndDropsCycles(t *testing.T) {
	reasoner := &scriptedReasoner{reply: `Here is the plan:
{"steps": [
  {"description": "search for the bug report", "agent": "researcher", "priority": "high", "depends_on": ["step_2"]},
  {"description": "fix the bug", "agent": "coder", "priority": "critical", "depends_on": []}
]}`}
	p := New(reasoner)

	plan, err := p.CreatePlan(context.Background(), "sess-1", "fix the reported bug")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)

	assert.Equal(t, models.AgentResearcher, plan.Steps[0].Agent)
	assert.Equal(t, models.PriorityHigh, plan.Steps[0].Priority)
	// step_1 declares a forward dependency on step_2, which hasn't been
	// "seen" yet in declaration order, so dropCycles removes that edge.
	assert.Empty(t, plan.Steps[0].DependsOn)
	assert.Equal(t, models.AgentCoder, plan.Steps[1].Agent)
}

func TestCreatePlan_FallsBackToLinePlanWhenJSONInvalid(t *testing.T) {
	reasoner := &scriptedReasoner{reply: `GOAL: investigate the outage
STEP 1: check the logs
STEP 2: roll back the deploy`}
	p := New(reasoner)

	plan, err := p.CreatePlan(context.Background(), "sess-1", "investigate the outage")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "step_2", plan.Steps[1].ID)
	assert.Equal(t, []string{"step_1"}, plan.Steps[1].DependsOn)
}

func TestCreatePlan_FallsBackToTrivialPlanOnReasonerError(t *testing.T) {
	reasoner := &scriptedReasoner{err: assertErr("transport down")}
	p := New(reasoner)

	plan, err := p.CreatePlan(context.Background(), "sess-1", "do the thing")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, models.AgentGeneral, plan.Steps[0].Agent)
	assert.Equal(t, "do the thing", plan.Steps[0].Description)
}

func TestNormalizeAgent_UnknownAgentFallsBackToGeneral(t *testing.T) {
	assert.Equal(t, models.AgentGeneral, normalizeAgent("not-a-real-agent"))
	assert.Equal(t, models.AgentCoder, normalizeAgent("CODER"))
}

func TestDropCycles_RemovesForwardAndSelfReferences(t *testing.T) {
	steps := []models.PlanStep{
		{ID: "step_1", DependsOn: []string{"step_2"}},
		{ID: "step_2", DependsOn: []string{"step_1", "step_2"}},
	}
	out := dropCycles(steps)
	assert.Empty(t, out[0].DependsOn)
	assert.Equal(t, []string{"step_1"}, out[1].DependsOn)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
