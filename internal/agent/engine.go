// Package agent implements the dual-mode agent execution engine: a
// ReAct-style prompt/tool-text-protocol loop for local backends, and a
// native structured tool-call loop for backends that support it.
package agent

import (
	"context"
	"strings"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/device"
	"github.com/nexus-orchestrator/orchestrator/internal/providers"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// MaxIterations caps both the ReAct loop and the native tool loop, per the
// spec's explicit 5-iteration budget (diverging from a larger configurable
// default a generic agent loop might otherwise use).
const MaxIterations = 5

// Protocol identifies how an agent's backend expects to see tool calls.
type Protocol string

const (
	ProtocolReAct  Protocol = "react"
	ProtocolNative Protocol = "native"
)

func protocolFor(backend models.BackendKind) Protocol {
	if backend == models.BackendCloudToolNative {
		return ProtocolNative
	}
	return ProtocolReAct
}

// ChunkType identifies what kind of event a ResponseChunk carries, mirroring
// the SSE event types the gateway streams to clients.
type ChunkType string

const (
	ChunkText     ChunkType = "chunk"
	ChunkTool     ChunkType = "tool"
	ChunkDone     ChunkType = "done"
	ChunkErr      ChunkType = "error"
)

// ResponseChunk is one event emitted by Engine.Run, forwarded to the SSE
// gateway as-is.
type ResponseChunk struct {
	Type        ChunkType
	Text        string
	ToolName    string
	ToolResult  string
	Error       error
	Iterations  int
	Budget      bool // true when MaxIterations was hit before a final answer
}

// Engine dispatches a task to the right provider and loop strategy for an
// agent profile.
type Engine struct {
	Providers map[models.BackendKind]providers.LLMProvider
	Registry  *tools.Registry
	Profiles  map[models.AgentID]models.AgentProfile
	Fallback  *FallbackChain

	// Device is the immutable profile detected at startup (spec.md §4.13).
	// Zero value means "no sizing hints" rather than a panic: every loop
	// treats a nil/zero Device the same as one with all-zero fields.
	Device *device.Info
}

// NewEngine builds an Engine from a fully populated provider map and the
// closed set of agent profiles it can dispatch to.
func NewEngine(provs map[models.BackendKind]providers.LLMProvider, registry *tools.Registry, profiles map[models.AgentID]models.AgentProfile) *Engine {
	return &Engine{Providers: provs, Registry: registry, Profiles: profiles}
}

// Execute runs agent against task to completion (non-streaming) and returns
// its final text, concatenating every ChunkText event. It satisfies the
// delegation.Executor and voting.Responder interfaces directly; RunStep
// adapts it to planexec.StepRunner and the gateway's engineReasoner adapts
// it to planner.Reasoner, letting every non-streaming caller share one code
// path through Run.
func (e *Engine) Execute(ctx context.Context, agentID models.AgentID, task string) (string, error) {
	profile, ok := e.Profiles[agentID]
	if !ok {
		return "", apperr.New(apperr.KindValidation, "unknown agent: "+string(agentID))
	}
	history := []providers.CompletionMessage{{Role: models.RoleUser, Content: task}}

	var text strings.Builder
	for chunk := range e.Run(ctx, profile, history) {
		if chunk.Error != nil {
			return text.String(), chunk.Error
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
		}
	}
	return text.String(), nil
}

// RunStep adapts Execute to the planexec.StepRunner contract.
func (e *Engine) RunStep(ctx context.Context, step models.PlanStep) (string, error) {
	return e.Execute(ctx, step.Agent, step.Description)
}

// Run executes profile against task's conversation history, streaming
// ResponseChunks on the returned channel until exactly one terminal event
// (done or error) is sent, after which the channel is closed. A transport
// failure triggers the fallback chain: the failed attempt's error is
// swallowed, a ChunkTool{ToolName: "fallback_to_<agent>"} marker is emitted
// in its place, and the fallback agent's own attempt (with its own single
// terminal event) is relayed instead. This preserves the "exactly one
// terminal event, last" invariant across a fallback hop.
func (e *Engine) Run(ctx context.Context, profile models.AgentProfile, history []providers.CompletionMessage) <-chan *ResponseChunk {
	out := make(chan *ResponseChunk, 16)
	go func() {
		defer close(out)
		e.runAttempt(ctx, profile, history, out)
	}()
	return out
}

// fallbackMarker names the tools_used entry recorded for a fallback hop to
// next. The spec's own end-to-end scenario names the vision_cloud ->
// vision_local hop "fallback_to_local_vision" rather than the templated
// "fallback_to_vision_local", so that one case is special-cased; every other
// hop uses the generic "fallback_to_<agent>" form.
func fallbackMarker(next models.AgentID) string {
	if next == models.AgentVisionLocal {
		return "fallback_to_local_vision"
	}
	return "fallback_to_" + string(next)
}

// runAttempt runs one profile attempt, forwarding every chunk to out except
// that a transport-kind terminal error is intercepted and replaced by a
// fallback hop when one is configured and available.
func (e *Engine) runAttempt(ctx context.Context, profile models.AgentProfile, history []providers.CompletionMessage, out chan<- *ResponseChunk) {
	inner := make(chan *ResponseChunk, 16)
	go func() {
		defer close(inner)
		provider, ok := e.Providers[profile.Backend]
		if !ok {
			inner <- &ResponseChunk{Type: ChunkErr, Error: apperr.New(apperr.KindInternal, "no provider configured for backend "+string(profile.Backend))}
			return
		}
		if protocolFor(profile.Backend) == ProtocolNative {
			_ = e.nativeLoop(ctx, profile, provider, history, inner)
		} else {
			_ = e.reactLoop(ctx, profile, provider, history, inner)
		}
	}()

	for chunk := range inner {
		if chunk.Type == ChunkErr && apperr.KindOf(chunk.Error) == apperr.KindTransport && e.Fallback != nil {
			if next, ok := e.Fallback.Next(profile.ID); ok {
				if nextProfile, ok := e.Profiles[next]; ok {
					out <- &ResponseChunk{Type: ChunkTool, ToolName: fallbackMarker(next)}
					e.runAttempt(ctx, nextProfile, history, out)
					return
				}
			}
		}
		out <- chunk
	}
}

// sizingHints copies the device profile's local-model tuning fields onto a
// CompletionRequest; a nil Device leaves the request's zero values (meaning
// "use the backend's own defaults") untouched.
func (e *Engine) sizingHints(req *providers.CompletionRequest) {
	if e.Device == nil {
		return
	}
	req.ContextWindow = e.Device.ContextWindow
	req.NumThreads = e.Device.Threads
	req.NumGPULayers = e.Device.GPULayers
	req.BatchSize = e.Device.BatchSize
}
