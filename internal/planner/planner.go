// Package planner turns a goal into an ExecutionPlan by asking a reasoner
// backend for a JSON plan, falling back to a line-oriented parser, and
// finally to a single trivial step, then dropping any dependency cycle.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Reasoner is the narrow contract the planner needs from the agent engine:
// ask a question, get back raw text.
type Reasoner interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Planner builds ExecutionPlans.
type Planner struct {
	reasoner Reasoner
}

// New returns a Planner that asks reasoner for plans.
func New(reasoner Reasoner) *Planner {
	return &Planner{reasoner: reasoner}
}

const planPrompt = `Break the following goal into a dependency-ordered list of steps.
Respond with a JSON object: {"steps": [{"description": "...", "agent": "coder|researcher|executor|reasoner|consultant|security|vision_local|vision_cloud|general", "priority": "critical|high|medium|low", "depends_on": ["step_1", ...]}]}.
Goal: %s`

// CreatePlan asks the reasoner for a plan for goal and parses its response,
// falling back through a JSON parse, a line-oriented GOAL:/STEP N: parse,
// and finally a single trivial step if both fail.
func (p *Planner) CreatePlan(ctx context.Context, sessionID, goal string) (*models.ExecutionPlan, error) {
	raw, err := p.reasoner.Ask(ctx, fmt.Sprintf(planPrompt, goal))
	if err != nil {
		return trivialPlan(sessionID, goal), nil
	}

	steps := parseJSONPlan(raw)
	if steps == nil {
		steps = parseLinePlan(raw)
	}
	if len(steps) == 0 {
		return trivialPlan(sessionID, goal), nil
	}

	steps = dropCycles(steps)

	return &models.ExecutionPlan{
		ID:        uuid.NewString(),
		Goal:      goal,
		SessionID: sessionID,
		Steps:     steps,
	}, nil
}

func trivialPlan(sessionID, goal string) *models.ExecutionPlan {
	return &models.ExecutionPlan{
		ID:        uuid.NewString(),
		Goal:      goal,
		SessionID: sessionID,
		Steps: []models.PlanStep{{
			ID:          "step_1",
			Description: goal,
			Agent:       models.AgentGeneral,
			Priority:    models.PriorityMedium,
			Status:      models.StepPending,
		}},
	}
}

type jsonPlanStep struct {
	Description string   `json:"description"`
	Agent       string   `json:"agent"`
	Priority    string   `json:"priority"`
	DependsOn   []string `json:"depends_on"`
}

type jsonPlan struct {
	Steps []jsonPlanStep `json:"steps"`
}

// parseJSONPlan extracts the outermost {...} object from raw (the model may
// wrap it in prose or a code fence) and decodes it as a jsonPlan.
func parseJSONPlan(raw string) []models.PlanStep {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}
	var plan jsonPlan
	if err := json.Unmarshal([]byte(raw[start:end+1]), &plan); err != nil {
		return nil
	}
	if len(plan.Steps) == 0 {
		return nil
	}
	out := make([]models.PlanStep, len(plan.Steps))
	for i, s := range plan.Steps {
		out[i] = models.PlanStep{
			ID:          fmt.Sprintf("step_%d", i+1),
			Description: s.Description,
			Agent:       normalizeAgent(s.Agent),
			Priority:    normalizePriority(s.Priority),
			Status:      models.StepPending,
			DependsOn:   s.DependsOn,
		}
	}
	return out
}

// parseLinePlan handles a "GOAL: ...\nSTEP 1: ...\nSTEP 2: ..." fallback
// format for models that won't produce valid JSON. Each step implicitly
// depends on the one before it.
func parseLinePlan(raw string) []models.PlanStep {
	var steps []models.PlanStep
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		if !strings.HasPrefix(upper, "STEP ") {
			continue
		}
		rest := line[len("STEP "):]
		colon := strings.Index(rest, ":")
		if colon < 0 {
			continue
		}
		numStr := strings.TrimSpace(rest[:colon])
		if _, err := strconv.Atoi(numStr); err != nil {
			continue
		}
		desc := strings.TrimSpace(rest[colon+1:])
		if desc == "" {
			continue
		}
		id := fmt.Sprintf("step_%d", len(steps)+1)
		var deps []string
		if len(steps) > 0 {
			deps = []string{steps[len(steps)-1].ID}
		}
		steps = append(steps, models.PlanStep{
			ID:          id,
			Description: desc,
			Agent:       models.AgentGeneral,
			Priority:    models.PriorityMedium,
			Status:      models.StepPending,
			DependsOn:   deps,
		})
	}
	return steps
}

func normalizeAgent(s string) models.AgentID {
	a := models.AgentID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range models.AllAgents {
		if known == a {
			return a
		}
	}
	return models.AgentGeneral
}

func normalizePriority(s string) models.StepPriority {
	switch models.StepPriority(strings.ToLower(strings.TrimSpace(s))) {
	case models.PriorityCritical:
		return models.PriorityCritical
	case models.PriorityHigh:
		return models.PriorityHigh
	case models.PriorityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

// dropCycles removes any dependency edge that would create a cycle, walking
// steps in declared order and only keeping an edge to an id already seen.
func dropCycles(steps []models.PlanStep) []models.PlanStep {
	seen := make(map[string]bool, len(steps))
	out := make([]models.PlanStep, len(steps))
	for i, s := range steps {
		var kept []string
		for _, dep := range s.DependsOn {
			if seen[dep] {
				kept = append(kept, dep)
			}
		}
		s.DependsOn = kept
		out[i] = s
		seen[s.ID] = true
	}
	return out
}
