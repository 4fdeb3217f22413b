package models

import "time"

// ExecutionRecord is one logged agent invocation, truncated before storage
// so the telemetry log cannot grow unbounded on pathological inputs.
type ExecutionRecord struct {
	ID         string    `json:"id"`
	Agent      AgentID   `json:"agent"`
	Category   string    `json:"category"`
	Task       string    `json:"task"`
	Response   string    `json:"response"`
	DurationMS int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	ToolsUsed  []string  `json:"tools_used"`
	Rating     float64   `json:"rating,omitempty"`
	Feedback   string    `json:"feedback,omitempty"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	MaxTaskChars     = 200
	MaxResponseChars = 500
)

// Truncate caps Task/Response to their storage limits, matching the
// evaluator's original behavior of keeping log rows bounded in size.
func (r *ExecutionRecord) Truncate() {
	if len(r.Task) > MaxTaskChars {
		r.Task = r.Task[:MaxTaskChars]
	}
	if len(r.Response) > MaxResponseChars {
		r.Response = r.Response[:MaxResponseChars]
	}
}

// AgentMetrics is the evaluator's rolled-up per-agent view, cached and
// invalidated as new ExecutionRecords land.
type AgentMetrics struct {
	Agent          AgentID            `json:"agent"`
	TotalRuns      int                `json:"total_runs"`
	SuccessCount   int                `json:"success_count"`
	SuccessRate    float64            `json:"success_rate"`
	AvgDurationMS  float64            `json:"avg_duration_ms"`
	AvgRating      float64            `json:"avg_rating"`
	CategoryCounts map[string]int     `json:"category_counts"`
	Weaknesses     []string           `json:"weaknesses,omitempty"`
}
