package models

import "time"

// TaskState tracks a classified task's lifecycle through execution.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// TaskComplexity mirrors the original's three-tier complexity estimate,
// used to size iteration and timeout budgets.
type TaskComplexity string

const (
	ComplexitySimple TaskComplexity = "simple"
	ComplexityMedium TaskComplexity = "medium"
	ComplexityComplex TaskComplexity = "complex"
)

// Classification is the output of the classifier: the chosen agent, the
// confidence score behind that choice, and the estimated complexity.
type Classification struct {
	Agent      AgentID        `json:"agent"`
	Confidence float64        `json:"confidence"`
	Complexity TaskComplexity `json:"complexity"`
	Scores     map[AgentID]float64 `json:"scores"`
}

// Task is a unit of work submitted to the orchestrator.
type Task struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	State     TaskState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}
