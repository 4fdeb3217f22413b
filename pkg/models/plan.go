package models

import "time"

// StepPriority controls execution urgency and failure semantics: a failed
// critical step aborts the whole plan, others only cascade a skip.
type StepPriority string

const (
	PriorityCritical StepPriority = "critical"
	PriorityHigh     StepPriority = "high"
	PriorityMedium   StepPriority = "medium"
	PriorityLow      StepPriority = "low"
)

// StepStatus is a plan step's lifecycle state.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepSkipped    StepStatus = "skipped"
)

// PlanStep is one node of a plan's dependency DAG.
type PlanStep struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Agent        AgentID      `json:"agent"`
	Priority     StepPriority `json:"priority"`
	Status       StepStatus   `json:"status"`
	DependsOn    []string     `json:"depends_on"`
	Result       string       `json:"result,omitempty"`
	SkipReason   string       `json:"skip_reason,omitempty"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// ExecutionPlan is a full plan: its goal and its ordered steps.
type ExecutionPlan struct {
	ID        string     `json:"id"`
	Goal      string     `json:"goal"`
	SessionID string     `json:"session_id"`
	Steps     []PlanStep `json:"steps"`
	CreatedAt time.Time  `json:"created_at"`
}

// Progress returns plan-level counts, safe to call at any point in execution.
func (p *ExecutionPlan) Progress() (completed, failed, skipped, pending, total int) {
	total = len(p.Steps)
	for _, s := range p.Steps {
		switch s.Status {
		case StepCompleted:
			completed++
		case StepFailed:
			failed++
		case StepSkipped:
			skipped++
		default:
			pending++
		}
	}
	return
}
