package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nexus-orchestrator/orchestrator/internal/agent"
	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// sseBufferSize bounds the channel the SSE relay reads the agent engine's
// events from; a slow client that can't keep the buffer from filling is
// disconnected rather than let memory grow unbounded.
const sseBufferSize = 256

// sseOverflowTimeout is how long the relay tolerates a full buffer before
// giving up on the client and terminating the stream.
const sseOverflowTimeout = 30 * time.Second

// startEvent is the first event of every stream, emitted before any
// chunk/tool event, per the §4.11 event schema.
type startEvent struct {
	Agent     models.AgentID        `json:"agent"`
	AgentName string                `json:"agent_name"`
	Routing   models.Classification `json:"routing"`
	TaskID    string                `json:"task_id"`
	SessionID string                `json:"session_id"`
}

func writeStart(w http.ResponseWriter, r *http.Request, start startEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	writeEvent(w, flusher, "start", start)
}

// writeSSE streams chunks as Server-Sent Events until it sees a terminal
// event (done or error) or the request context is cancelled, guaranteeing
// exactly one terminal event is written and that it is the last one. It
// never blocks indefinitely on a slow client: a buffered relay channel
// absorbs bursts, and a stall timer fires if the client can't drain it for
// sseOverflowTimeout. It returns the accumulated response text and the
// tool names (including any fallback_to_<agent> markers) observed, for the
// caller to persist to session history and telemetry.
func writeSSE(w http.ResponseWriter, r *http.Request, start startEvent, chunks <-chan *agent.ResponseChunk, started time.Time) (reply string, toolsUsed []string, runErr error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return "", nil, nil
	}

	relay := make(chan *agent.ResponseChunk, sseBufferSize)
	done := make(chan struct{})
	go func() {
		defer close(relay)
		for chunk := range chunks {
			select {
			case relay <- chunk:
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var replyBuilder strings.Builder
	terminalSent := false
	for {
		select {
		case <-r.Context().Done():
			return replyBuilder.String(), toolsUsed, nil
		case chunk, ok := <-relay:
			if !ok {
				if !terminalSent {
					writeDoneEvent(w, flusher, start, replyBuilder.String(), toolsUsed, started)
				}
				return replyBuilder.String(), toolsUsed, runErr
			}
			switch chunk.Type {
			case agent.ChunkText:
				replyBuilder.WriteString(chunk.Text)
				writeEvent(w, flusher, "chunk", map[string]any{"content": chunk.Text})
			case agent.ChunkTool:
				toolsUsed = append(toolsUsed, chunk.ToolName)
				writeEvent(w, flusher, "tool", map[string]any{
					"name":        chunk.ToolName,
					"args":        chunk.ToolResult,
					"elapsed_ms":  time.Since(started).Milliseconds(),
				})
			case agent.ChunkDone:
				writeDoneEvent(w, flusher, start, replyBuilder.String(), toolsUsed, started)
				terminalSent = true
			case agent.ChunkErr:
				runErr = chunk.Error
				msg := ""
				if chunk.Error != nil {
					msg = chunk.Error.Error()
				}
				writeEvent(w, flusher, "error", map[string]any{
					"content":        msg,
					"execution_time": time.Since(started).Seconds(),
				})
				terminalSent = true
			}
			if terminalSent {
				return replyBuilder.String(), toolsUsed, runErr
			}
		case <-time.After(sseOverflowTimeout):
			if !terminalSent {
				writeEvent(w, flusher, "error", map[string]any{"kind": "backpressure", "content": "client too slow", "execution_time": time.Since(started).Seconds()})
			}
			return replyBuilder.String(), toolsUsed, apperr.New(apperr.KindBackpressure, "client too slow to drain stream")
		}
	}
}

func writeDoneEvent(w http.ResponseWriter, flusher http.Flusher, start startEvent, reply string, toolsUsed []string, started time.Time) {
	writeEvent(w, flusher, "done", map[string]any{
		"execution_time": time.Since(started).Seconds(),
		"tools_used":     toolsUsed,
		"response":       reply,
		"agent_used":     start.Agent,
		"agent_name":     start.AgentName,
	})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{"message":"encode error"}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
