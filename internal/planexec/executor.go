// Package planexec runs an ExecutionPlan's steps in dependency order,
// aborting the whole plan on a critical step's failure and cascading a skip
// to the dependents of any other failed step.
package planexec

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// StepRunner executes a single plan step and returns its textual result.
type StepRunner interface {
	RunStep(ctx context.Context, step models.PlanStep) (string, error)
}

// Executor runs plans against a StepRunner.
type Executor struct {
	runner StepRunner
}

// New returns an Executor that dispatches steps to runner.
func New(runner StepRunner) *Executor {
	return &Executor{runner: runner}
}

// Run executes plan's steps until every step is completed, failed, or
// skipped, or until a critical step fails (which aborts immediately). It
// mutates plan.Steps in place so plan.Progress() reflects live state.
func (e *Executor) Run(ctx context.Context, plan *models.ExecutionPlan) error {
	for {
		ready := e.readySteps(plan)
		if len(ready) == 0 {
			return nil
		}
		for _, idx := range ready {
			step := &plan.Steps[idx]
			now := time.Now()
			step.Status = models.StepInProgress
			step.StartedAt = &now

			stepCtx, cancel := context.WithTimeout(ctx, stepTimeout(step.Priority))
			result, err := e.runner.RunStep(stepCtx, *step)
			cancel()

			completed := time.Now()
			step.CompletedAt = &completed

			if err != nil {
				step.Status = models.StepFailed
				step.Result = err.Error()
				if step.Priority == models.PriorityCritical {
					cascadeSkip(plan, step.ID, "aborted: critical step "+step.ID+" failed")
					return apperr.Wrap(apperr.KindRefused, fmt.Sprintf("critical step %s failed", step.ID), err)
				}
				cascadeSkip(plan, step.ID, "skipped: dependency "+step.ID+" failed")
				continue
			}
			step.Status = models.StepCompleted
			step.Result = result
		}
	}
}

// readySteps returns the indices of pending steps whose dependencies have
// all completed, in source (declaration) order.
func (e *Executor) readySteps(plan *models.ExecutionPlan) []int {
	var ready []int
	for i, s := range plan.Steps {
		if s.Status != models.StepPending {
			continue
		}
		if allDepsCompleted(plan, s.DependsOn) {
			ready = append(ready, i)
		}
	}
	return ready
}

func allDepsCompleted(plan *models.ExecutionPlan, deps []string) bool {
	for _, dep := range deps {
		found := false
		for _, s := range plan.Steps {
			if s.ID == dep {
				found = true
				if s.Status != models.StepCompleted {
					return false
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// cascadeSkip marks every pending step that (transitively) depends on
// failedID as skipped, recording reason.
func cascadeSkip(plan *models.ExecutionPlan, failedID, reason string) {
	skipped := map[string]bool{failedID: true}
	changed := true
	for changed {
		changed = false
		for i, s := range plan.Steps {
			if s.Status != models.StepPending {
				continue
			}
			for _, dep := range s.DependsOn {
				if skipped[dep] {
					plan.Steps[i].Status = models.StepSkipped
					plan.Steps[i].SkipReason = reason
					skipped[s.ID] = true
					changed = true
					break
				}
			}
		}
	}
}

func stepTimeout(priority models.StepPriority) time.Duration {
	base := 30 * time.Second
	if priority == models.PriorityCritical {
		return 2 * base
	}
	return base
}
