// Package tools implements the tool registry: registration, family-filtered
// lookup, JSON-Schema parameter validation, and result truncation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

const (
	// MaxToolNameLength bounds a tool name accepted at registration or
	// dispatch time.
	MaxToolNameLength = 128
	// MaxToolParamsSize bounds the raw JSON byte size of a tool call's
	// arguments.
	MaxToolParamsSize = 64 * 1024
	// MaxResultChars bounds a tool result before it is appended to a
	// session or sent back to the model.
	MaxResultChars = 8 * 1024
)

// Handler executes one tool invocation and returns its textual result.
type Handler func(ctx context.Context, args map[string]any) (string, error)

type registered struct {
	descriptor models.ToolDescriptor
	handler    Handler
	schema     *jsonschema.Schema
}

// Registry is the thread-safe collection of all tools known to the
// orchestrator, grouped by family.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*registered
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*registered)}
}

// Register adds a tool. It recompiles the tool's parameter schema once, so
// invocation-time validation never pays the compile cost.
func (r *Registry) Register(d models.ToolDescriptor, h Handler) error {
	if len(d.Name) == 0 || len(d.Name) > MaxToolNameLength {
		return apperr.New(apperr.KindValidation, fmt.Sprintf("tool name %q invalid length", d.Name))
	}
	schema, err := compileSchema(d)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "compile tool schema", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[d.Name] = &registered{descriptor: d, handler: h, schema: schema}
	return nil
}

func compileSchema(d models.ToolDescriptor) (*jsonschema.Schema, error) {
	props := make(map[string]any, len(d.Parameters))
	required := []string{}
	for name, p := range d.Parameters {
		entry := map[string]any{"type": p.Type}
		if len(p.Enum) > 0 {
			entry["enum"] = p.Enum
		}
		props[name] = entry
		if p.Required {
			required = append(required, name)
		}
	}
	schemaDoc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(d.Name+".json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(d.Name + ".json")
}

// Descriptors returns every registered tool's descriptor whose family is in
// families (or all of them, when families is empty).
func (r *Registry) Descriptors(families ...string) []models.ToolDescriptor {
	allow := make(map[string]bool, len(families))
	for _, f := range families {
		allow[f] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		if len(allow) > 0 && !allow[t.descriptor.Family] {
			continue
		}
		out = append(out, t.descriptor)
	}
	return out
}

// Invoke validates call.Input against the tool's schema, then runs its
// handler, truncating an overlong result before returning it. The result
// is not redacted.
func (r *Registry) Invoke(ctx context.Context, call models.ToolCall) models.ToolResult {
	if len(call.Name) > MaxToolNameLength {
		return errorResult(call.ID, "tool name too long")
	}
	if len(call.Input) > MaxToolParamsSize {
		return errorResult(call.ID, "tool arguments too large")
	}

	r.mu.RLock()
	t, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		return errorResult(call.ID, fmt.Sprintf("unknown tool %q", call.Name))
	}

	input := call.Input
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	var payload any
	if err := json.Unmarshal(input, &payload); err != nil {
		return errorResult(call.ID, "invalid JSON arguments")
	}
	if err := t.schema.Validate(payload); err != nil {
		return errorResult(call.ID, fmt.Sprintf("arguments failed validation: %v", err))
	}

	var args map[string]any
	if err := json.Unmarshal(input, &args); err != nil {
		args = map[string]any{}
	}

	content, err := t.handler(ctx, args)
	if err != nil {
		return errorResult(call.ID, err.Error())
	}
	return models.ToolResult{ToolCallID: call.ID, Content: guardResult(content)}
}

func errorResult(callID, msg string) models.ToolResult {
	return models.ToolResult{ToolCallID: callID, Content: msg, IsError: true}
}

// guardResult truncates an overlong tool result, matching the registry's
// bound on what gets appended to a session or streamed to a client.
func guardResult(content string) string {
	if len(content) <= MaxResultChars {
		return content
	}
	return content[:MaxResultChars] + "... (truncated)"
}
