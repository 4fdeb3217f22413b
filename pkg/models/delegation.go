package models

import "time"

// AgentMessageType distinguishes the kinds of inter-agent traffic the
// delegation layer can enqueue.
type AgentMessageType string

const (
	MessageDelegation AgentMessageType = "delegation"
	MessageHelpRequest AgentMessageType = "help_request"
	MessageCollaboration AgentMessageType = "collaboration"
)

// AgentMessage is a point-to-point message queued between two agents.
type AgentMessage struct {
	ID        string           `json:"id"`
	Type      AgentMessageType `json:"type"`
	From      AgentID          `json:"from"`
	To        AgentID          `json:"to"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
}

// DelegationStatus tracks a single delegation's completion state.
type DelegationStatus string

const (
	DelegationPending   DelegationStatus = "pending"
	DelegationCompleted DelegationStatus = "completed"
	DelegationFailed    DelegationStatus = "failed"
)

// Delegation is one hand-off of a task from one agent to another.
type Delegation struct {
	ID        string           `json:"id"`
	From      AgentID          `json:"from"`
	To        AgentID          `json:"to"`
	Task      string           `json:"task"`
	Status    DelegationStatus `json:"status"`
	Result    string           `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Collaboration is a coordinator-led session where several agents each work
// a piece of a goal and the coordinator synthesizes their results.
type Collaboration struct {
	ID           string    `json:"id"`
	Goal         string    `json:"goal"`
	Coordinator  AgentID   `json:"coordinator"`
	Participants []AgentID `json:"participants"`
	Results      map[AgentID]string `json:"results"`
	Synthesis    string    `json:"synthesis,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
