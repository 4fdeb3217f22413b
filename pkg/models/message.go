package models

import "time"

// Role identifies who authored a message in a session's history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a session's append-only conversation log.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Agent       AgentID      `json:"agent,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Session is a single conversation's durable state: its message log plus
// rollup counters that let callers avoid rescanning the full history.
type Session struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	Messages      []Message `json:"messages"`
	TotalMessages int       `json:"total_messages"`
	AgentsUsed    []AgentID `json:"agents_used"`
	ToolsUsed     []string  `json:"tools_used"`
	LastAgent     AgentID   `json:"last_agent,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
