package agent

import (
	"context"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/providers"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// reactLoop runs the ReAct text-protocol loop: each iteration asks the
// provider for a completion, checks the accumulated text for a TOOL:/ARGS:
// pair, executes it if present, appends the result as a synthetic tool
// message, and repeats. It terminates on a response with no TOOL: line, on
// reaching MaxIterations (flagging Budget on the done chunk), or on a
// provider error.
func (e *Engine) reactLoop(ctx context.Context, profile models.AgentProfile, provider providers.LLMProvider, history []providers.CompletionMessage, out chan<- *ResponseChunk) error {
	toolDescriptors := e.Registry.Descriptors(profile.ToolFamilies...)
	system := SystemPrompt(profile, namesOf(toolDescriptors), ProtocolReAct)
	messages := append([]providers.CompletionMessage{}, history...)

	for iter := 1; iter <= MaxIterations; iter++ {
		req := &providers.CompletionRequest{
			Model:    profile.Model,
			System:   system,
			Messages: messages,
		}
		e.sizingHints(req)
		chunks, err := provider.Complete(ctx, req)
		if err != nil {
			out <- &ResponseChunk{Type: ChunkErr, Error: err}
			return err
		}

		var text string
		for chunk := range chunks {
			if chunk.Error != nil {
				out <- &ResponseChunk{Type: ChunkErr, Error: chunk.Error}
				return chunk.Error
			}
			if chunk.Text != "" {
				text += chunk.Text
				out <- &ResponseChunk{Type: ChunkText, Text: chunk.Text}
			}
		}

		call := parseReActCall(text)
		if call == nil {
			out <- &ResponseChunk{Type: ChunkDone, Iterations: iter}
			return nil
		}

		result := e.Registry.Invoke(ctx, models.ToolCall{ID: call.Name, Name: call.Name, Input: call.Args})
		out <- &ResponseChunk{Type: ChunkTool, ToolName: call.Name, ToolResult: result.Content}

		messages = append(messages,
			providers.CompletionMessage{Role: models.RoleAssistant, Content: text},
			providers.CompletionMessage{Role: models.RoleTool, Content: result.Content},
		)
	}

	out <- &ResponseChunk{Type: ChunkDone, Iterations: MaxIterations, Budget: true}
	return apperr.New(apperr.KindBudgetExhausted, "max ReAct iterations reached")
}
