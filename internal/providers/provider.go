// Package providers implements the orchestrator's backend adapters: the
// common LLMProvider contract plus one concrete implementation per
// models.BackendKind.
package providers

import (
	"context"
	"encoding/json"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// CompletionMessage is one turn fed into a provider's Complete call.
type CompletionMessage struct {
	Role        models.Role        `json:"role"`
	Content     string              `json:"content"`
	ToolCalls   []models.ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
}

// CompletionRequest is the input to a provider's Complete call.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []CompletionMessage
	Tools     []models.ToolDescriptor
	MaxTokens int

	// Local-model sizing hints sourced from the device profile (spec.md
	// §4.13); zero means "let the backend use its own default". Only the
	// adapters that front a locally-hosted model (ollama_local today) act
	// on these — cloud backends ignore them since the remote service
	// controls its own serving parameters.
	ContextWindow int
	NumThreads    int
	NumGPULayers  int
	BatchSize     int
}

// CompletionChunk is one unit of a streamed response: either a piece of
// text, a tool call, or the final chunk (Done=true, optionally carrying
// Error).
type CompletionChunk struct {
	Text         string
	ToolCall     *models.ToolCall
	Done         bool
	Error        error
	InputTokens  int
	OutputTokens int
}

// LLMProvider is the contract every backend adapter satisfies. Complete
// returns a channel the caller drains until a chunk with Done=true arrives;
// the channel is always closed by the provider after that chunk.
type LLMProvider interface {
	Name() string
	SupportsTools() bool
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
}

// EncodeArgs marshals v into a json.RawMessage, defaulting to an empty
// object on a nil/zero value so downstream consumers never see a nil slice.
func EncodeArgs(v any) json.RawMessage {
	if v == nil {
		return json.RawMessage(`{}`)
	}
	b, err := json.Marshal(v)
	if err != nil || len(b) == 0 {
		return json.RawMessage(`{}`)
	}
	return b
}
