// Package delegation implements point-to-point task hand-off between
// agents, capability-phrase request_help routing, and coordinator-led
// multi-agent collaboration with synthesis.
package delegation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Executor is the narrow contract delegation needs from the agent engine:
// run agent against task and return its textual result.
type Executor interface {
	Execute(ctx context.Context, agent models.AgentID, task string) (string, error)
}

// Manager runs delegations and collaborations.
type Manager struct {
	exec Executor
	// capabilities maps each agent to the free-text phrases request_help
	// matches against via word overlap.
	capabilities map[models.AgentID][]string
}

// New returns a Manager backed by exec, using a default capability phrase
// table covering every known agent except reasoner, which request_help
// reaches only as its default.
func New(exec Executor) *Manager {
	return &Manager{exec: exec, capabilities: defaultCapabilities()}
}

func defaultCapabilities() map[models.AgentID][]string {
	return map[models.AgentID][]string{
		models.AgentCoder:       {"writing code", "debugging", "refactoring software"},
		models.AgentResearcher:  {"finding information", "researching topics", "summarizing sources"},
		models.AgentExecutor:    {"running commands", "deploying", "operating systems"},
		models.AgentConsultant:  {"giving advice", "comparing options"},
		models.AgentSecurity:    {"security analysis", "vulnerability assessment"},
		models.AgentVisionLocal: {"analyzing images", "describing pictures"},
		models.AgentVisionCloud: {"analyzing images", "describing pictures"},
		models.AgentGeneral:     {"general assistance"},
	}
}

// Delegate hands task off from "from" to "to" and runs it, recording the
// result on the returned Delegation.
func (m *Manager) Delegate(ctx context.Context, from, to models.AgentID, task string) (*models.Delegation, error) {
	d := &models.Delegation{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Task:      task,
		Status:    models.DelegationPending,
		CreatedAt: time.Now(),
	}
	result, err := m.exec.Execute(ctx, to, task)
	if err != nil {
		d.Status = models.DelegationFailed
		d.Result = err.Error()
		return d, err
	}
	d.Status = models.DelegationCompleted
	d.Result = result
	return d, nil
}

// RequestHelp picks the agent whose capability phrases share the most words
// with query (excluding requester itself), defaulting to reasoner, or to
// general if requester is already reasoner, when nothing scores above zero.
// This mirrors the original's global default rather than preferring any
// particular collaboration's coordinator, an open question left as-is (see
// DESIGN.md).
func (m *Manager) RequestHelp(ctx context.Context, requester models.AgentID, query string) (*models.Delegation, error) {
	target := m.bestCapabilityMatch(requester, query)
	return m.Delegate(ctx, requester, target, query)
}

func (m *Manager) bestCapabilityMatch(requester models.AgentID, query string) models.AgentID {
	queryWords := wordSet(query)
	best := models.AgentID("")
	bestScore := 0
	for _, agent := range models.AllAgents {
		if agent == requester {
			continue
		}
		for _, phrase := range m.capabilities[agent] {
			score := overlap(queryWords, wordSet(phrase))
			if score > bestScore {
				bestScore = score
				best = agent
			}
		}
	}
	if best == "" {
		if requester == models.AgentReasoner {
			return models.AgentGeneral
		}
		return models.AgentReasoner
	}
	return best
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

func overlap(a, b map[string]bool) int {
	count := 0
	for w := range a {
		if b[w] {
			count++
		}
	}
	return count
}

// Collaborate runs a coordinator-led flow: the coordinator is asked to plan
// the goal, each participant executes sequentially (seeing that plan and
// prior results in its task text), and finally the coordinator synthesizes
// every result.
func (m *Manager) Collaborate(ctx context.Context, coordinator models.AgentID, participants []models.AgentID, goal string) (*models.Collaboration, error) {
	collab := &models.Collaboration{
		ID:           uuid.NewString(),
		Goal:         goal,
		Coordinator:  coordinator,
		Participants: participants,
		Results:      map[models.AgentID]string{},
		CreatedAt:    time.Now(),
	}

	planTask := fmt.Sprintf("Plan how the participants %v should split the work on the goal %q.", participants, goal)
	plan, err := m.exec.Execute(ctx, coordinator, planTask)
	if err != nil {
		plan = "error: " + err.Error()
	}

	var priorResults strings.Builder
	for _, participant := range participants {
		task := goal + "\n\nCoordinator plan:\n" + plan
		if priorResults.Len() > 0 {
			task += "\n\nPrior contributions:\n" + priorResults.String()
		}
		result, err := m.exec.Execute(ctx, participant, task)
		if err != nil {
			result = "error: " + err.Error()
		}
		collab.Results[participant] = result
		priorResults.WriteString(string(participant) + ": " + result + "\n")
	}

	synthesisTask := fmt.Sprintf("Synthesize the following contributions into a single answer for the goal %q:\n%s", goal, priorResults.String())
	synthesis, err := m.exec.Execute(ctx, coordinator, synthesisTask)
	if err != nil {
		return collab, err
	}
	collab.Synthesis = synthesis
	return collab, nil
}
