package planexec

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

type scriptedRunner struct {
	fail map[string]error
}

func (r *scriptedRunner) RunStep(ctx context.Context, step models.PlanStep) (string, error) {
	if err, ok := r.fail[step.ID]; ok {
		return "", err
	}
	return "ok:" + step.ID, nil
}

func TestRun_ExecutesStepsInDependencyOrder(t *testing.T) {
	plan := &models.ExecutionPlan{Steps: []models.PlanStep{
		{ID: "step_1", Agent: models.AgentResearcher, Priority: models.PriorityMedium, Status: models.StepPending},
		{ID: "step_2", Agent: models.AgentCoder, Priority: models.PriorityMedium, Status: models.StepPending, DependsOn: []string{"step_1"}},
	}}
	executor := New(&scriptedRunner{})

	require.NoError(t, executor.Run(context.Background(), plan))

	completed, failed, skipped, pending, total := plan.Progress()
	assert.Equal(t, 2, completed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 0, pending)
	assert.Equal(t, 2, total)
	assert.Equal(t, "ok:step_2", plan.Steps[1].Result)
}

func TestRun_CriticalStepFailureAbortsPlan(t *testing.T) {
	plan := &models.ExecutionPlan{Steps: []models.PlanStep{
		{ID: "step_1", Agent: models.AgentCoder, Priority: models.PriorityCritical, Status: models.StepPending},
		{ID: "step_2", Agent: models.AgentCoder, Priority: models.PriorityMedium, Status: models.StepPending, DependsOn: []string{"step_1"}},
	}}
	executor := New(&scriptedRunner{fail: map[string]error{"step_1": fmt.Errorf("boom")}})

	err := executor.Run(context.Background(), plan)
	require.Error(t, err)

	assert.Equal(t, models.StepFailed, plan.Steps[0].Status)
	assert.Equal(t, models.StepSkipped, plan.Steps[1].Status)
}

func TestRun_NonCriticalFailureCascadesSkipWithoutAborting(t *testing.T) {
	plan := &models.ExecutionPlan{Steps: []models.PlanStep{
		{ID: "step_1", Agent: models.AgentCoder, Priority: models.PriorityLow, Status: models.StepPending},
		{ID: "step_2", Agent: models.AgentCoder, Priority: models.PriorityMedium, Status: models.StepPending, DependsOn: []string{"step_1"}},
		{ID: "step_3", Agent: models.AgentCoder, Priority: models.PriorityMedium, Status: models.StepPending},
	}}
	executor := New(&scriptedRunner{fail: map[string]error{"step_1": fmt.Errorf("minor failure")}})

	require.NoError(t, executor.Run(context.Background(), plan))

	assert.Equal(t, models.StepFailed, plan.Steps[0].Status)
	assert.Equal(t, models.StepSkipped, plan.Steps[1].Status)
	assert.Equal(t, models.StepCompleted, plan.Steps[2].Status, "step_3 has no dependency on the failed step")
}

func TestStepTimeout_CriticalStepsGetDoubleTheBaseBudget(t *testing.T) {
	assert.Equal(t, 2*stepTimeout(models.PriorityMedium), stepTimeout(models.PriorityCritical))
}
