package agent

import (
	"context"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/providers"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// nativeLoop runs the structured tool-call loop for cloud_tool_native
// backends: the provider returns real tool_use blocks rather than text to
// parse, so each iteration dispatches every tool call the provider emitted
// in a turn, appends their results, and continues until a turn produces no
// tool calls at all.
func (e *Engine) nativeLoop(ctx context.Context, profile models.AgentProfile, provider providers.LLMProvider, history []providers.CompletionMessage, out chan<- *ResponseChunk) error {
	toolDescriptors := e.Registry.Descriptors(profile.ToolFamilies...)
	system := SystemPrompt(profile, namesOf(toolDescriptors), ProtocolNative)
	messages := append([]providers.CompletionMessage{}, history...)

	for iter := 1; iter <= MaxIterations; iter++ {
		req := &providers.CompletionRequest{
			Model:    profile.Model,
			System:   system,
			Messages: messages,
			Tools:    toolDescriptors,
		}
		chunks, err := provider.Complete(ctx, req)
		if err != nil {
			out <- &ResponseChunk{Type: ChunkErr, Error: err}
			return err
		}

		var text string
		var calls []models.ToolCall
		for chunk := range chunks {
			if chunk.Error != nil {
				out <- &ResponseChunk{Type: ChunkErr, Error: chunk.Error}
				return chunk.Error
			}
			if chunk.Text != "" {
				text += chunk.Text
				out <- &ResponseChunk{Type: ChunkText, Text: chunk.Text}
			}
			if chunk.ToolCall != nil {
				calls = append(calls, *chunk.ToolCall)
			}
		}

		if len(calls) == 0 {
			out <- &ResponseChunk{Type: ChunkDone, Iterations: iter}
			return nil
		}

		assistantMsg := providers.CompletionMessage{Role: models.RoleAssistant, Content: text, ToolCalls: calls}
		var results []models.ToolResult
		for _, call := range calls {
			result := e.Registry.Invoke(ctx, call)
			out <- &ResponseChunk{Type: ChunkTool, ToolName: call.Name, ToolResult: result.Content}
			results = append(results, result)
		}

		messages = append(messages, assistantMsg, providers.CompletionMessage{Role: models.RoleTool, ToolResults: results})
	}

	out <- &ResponseChunk{Type: ChunkDone, Iterations: MaxIterations, Budget: true}
	return apperr.New(apperr.KindBudgetExhausted, "max native tool iterations reached")
}

func namesOf(descs []models.ToolDescriptor) []string {
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	return names
}
