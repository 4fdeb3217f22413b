package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/providers"
	"github.com/nexus-orchestrator/orchestrator/internal/voting"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// logExecution records one agent turn with the evaluator, swallowing a
// logging failure rather than letting a telemetry outage fail user-facing
// requests. The evaluator itself derives the task's category when none is
// set, so the gateway never needs to duplicate the classifier's keyword
// logic here.
func (s *Server) logExecution(ctx context.Context, sessionID string, agentID models.AgentID, task, response string, started time.Time, runErr error) {
	if s.Evaluator == nil {
		return
	}
	rec := models.ExecutionRecord{
		ID:         uuid.NewString(),
		Agent:      agentID,
		Task:       task,
		Response:   response,
		DurationMS: time.Since(started).Milliseconds(),
		Success:    runErr == nil,
		SessionID:  sessionID,
		Timestamp:  started,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	_ = s.Evaluator.Log(ctx, rec)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
	Agent     string `json:"agent,omitempty"`
}

// agentDisplayNames gives each agent identifier the human-readable name the
// /agents and /chat responses surface, matching the "human name" field the
// data model documents alongside each agent profile.
var agentDisplayNames = map[models.AgentID]string{
	models.AgentCoder:       "Coder",
	models.AgentResearcher:  "Researcher",
	models.AgentExecutor:    "Executor",
	models.AgentReasoner:    "Reasoner",
	models.AgentConsultant:  "Consultant",
	models.AgentSecurity:    "Security Analyst",
	models.AgentVisionLocal: "Vision Analyst (Local)",
	models.AgentVisionCloud: "Vision Analyst (Cloud)",
	models.AgentGeneral:     "General Assistant",
}

func displayName(agent models.AgentID) string {
	if name, ok := agentDisplayNames[agent]; ok {
		return name
	}
	return string(agent)
}

// toolCallsFromNames wraps a flat list of tool names (as collected off
// ChunkTool events, including synthetic "fallback_to_<agent>" markers) into
// the ToolCall shape a Message's ToolCalls field expects, so the session
// store's tools_used rollup picks them up.
func toolCallsFromNames(names []string) []models.ToolCall {
	if len(names) == 0 {
		return nil
	}
	calls := make([]models.ToolCall, len(names))
	for i, name := range names {
		calls[i] = models.ToolCall{Name: name}
	}
	return calls
}

// resolveAgent classifies req.Message unless req.Agent pins it explicitly,
// in which case routing still reports the classifier's opinion for
// observability but agent selection honors the pin.
func (s *Server) resolveAgent(req chatRequest) (models.AgentID, models.Classification) {
	classification := s.Classifier.Classify(req.Message)
	if req.Agent != "" {
		return models.AgentID(strings.ToLower(req.Agent)), classification
	}
	return classification.Agent, classification
}

// summarize renders a short preview of text for conversation_summary,
// trimming surrounding whitespace and truncating on a rune boundary; inner
// newlines are kept.
func summarize(text string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return string(runes[:maxRunes]) + "..."
}

func (s *Server) sessionHistory(sessionID string) ([]providers.CompletionMessage, *models.Session, error) {
	sess, err := s.Sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, nil, err
	}
	history := make([]providers.CompletionMessage, 0, len(sess.Messages)+1)
	for _, m := range sess.Messages {
		history = append(history, providers.CompletionMessage{Role: m.Role, Content: m.Content})
	}
	return history, sess, nil
}

type chatResponse struct {
	Response            string                 `json:"response"`
	SessionID            string                 `json:"session_id"`
	AgentUsed            models.AgentID         `json:"agent_used"`
	AgentName            string                 `json:"agent_name"`
	Routing              models.Classification  `json:"routing"`
	ExecutionTimeSeconds float64                `json:"execution_time"`
	ToolsUsed            []string               `json:"tools_used"`
	ConversationSummary  string                 `json:"conversation_summary"`
	Status               string                 `json:"status"`
}

// handleChat runs one non-streaming chat turn: classify (or honor a pinned
// agent), run the engine to completion, and append both turns to the
// session's history.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	agentID, routing := s.resolveAgent(req)
	profile, ok := s.Engine.Profiles[agentID]
	if !ok {
		writeError(w, apperr.New(apperr.KindValidation, "unknown agent: "+string(agentID)))
		return
	}

	history, sess, err := s.sessionHistory(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	history = append(history, providers.CompletionMessage{Role: models.RoleUser, Content: req.Message})

	started := time.Now()
	var reply strings.Builder
	var toolsUsed []string
	var runErr error
	for chunk := range s.Engine.Run(r.Context(), profile, history) {
		if chunk.Error != nil {
			runErr = chunk.Error
			break
		}
		if chunk.Text != "" {
			reply.WriteString(chunk.Text)
		}
		if chunk.ToolName != "" {
			toolsUsed = append(toolsUsed, chunk.ToolName)
		}
	}
	s.logExecution(r.Context(), sess.ID, agentID, req.Message, reply.String(), started, runErr)
	if runErr != nil {
		writeError(w, runErr)
		return
	}

	now := time.Now()
	if _, err := s.Sessions.AppendMessage(sess.ID, models.Message{ID: uuid.NewString(), Role: models.RoleUser, Content: req.Message, CreatedAt: now}); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.Sessions.AppendMessage(sess.ID, models.Message{ID: uuid.NewString(), Role: models.RoleAssistant, Content: reply.String(), Agent: agentID, ToolCalls: toolCallsFromNames(toolsUsed), CreatedAt: now}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:             reply.String(),
		SessionID:            sess.ID,
		AgentUsed:            agentID,
		AgentName:            displayName(agentID),
		Routing:              routing,
		ExecutionTimeSeconds: time.Since(started).Seconds(),
		ToolsUsed:            toolsUsed,
		ConversationSummary:  summarize(reply.String(), 160),
		Status:               "success",
	})
}

// handleChatStream is handleChat's SSE counterpart: the engine's chunks are
// relayed live instead of collected, and the session is updated from the
// accumulated text once the stream reaches its terminal event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	agentID, routing := s.resolveAgent(req)
	profile, ok := s.Engine.Profiles[agentID]
	if !ok {
		writeError(w, apperr.New(apperr.KindValidation, "unknown agent: "+string(agentID)))
		return
	}

	history, sess, err := s.sessionHistory(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	history = append(history, providers.CompletionMessage{Role: models.RoleUser, Content: req.Message})

	now := time.Now()
	if _, err := s.Sessions.AppendMessage(sess.ID, models.Message{ID: uuid.NewString(), Role: models.RoleUser, Content: req.Message, CreatedAt: now}); err != nil {
		writeError(w, err)
		return
	}

	start := startEvent{
		Agent:     agentID,
		AgentName: displayName(agentID),
		Routing:   routing,
		TaskID:    uuid.NewString(),
		SessionID: sess.ID,
	}
	writeStart(w, r, start)

	started := time.Now()
	chunks := s.Engine.Run(r.Context(), profile, history)
	reply, toolsUsed, runErr := writeSSE(w, r, start, chunks, started)

	s.logExecution(context.Background(), sess.ID, agentID, req.Message, reply, started, runErr)
	if len(reply) > 0 {
		_, _ = s.Sessions.AppendMessage(sess.ID, models.Message{ID: uuid.NewString(), Role: models.RoleAssistant, Content: reply, Agent: agentID, ToolCalls: toolCallsFromNames(toolsUsed), CreatedAt: time.Now()})
	}
}

type classifyRequest struct {
	Instruction string `json:"instruction"`
}

type classifyResponse struct {
	AgentType      models.AgentID        `json:"agent_type"`
	Classification models.Classification `json:"classification"`
	Strategy       string                `json:"strategy"`
	EstimatedTime  float64               `json:"estimated_time"`
	AgentConfig    models.AgentProfile   `json:"agent_config"`
}

// strategyFor maps complexity to the dispatch strategy: a complex task is
// routed through the planner/collaboration path, everything else runs one
// agent directly.
func strategyFor(c models.TaskComplexity) string {
	if c == models.ComplexityComplex {
		return "multi_agent"
	}
	return "single_agent"
}

// estimatedSeconds gives a rough per-complexity time budget, the same for
// every backend, used only as an informational estimate.
func estimatedSeconds(c models.TaskComplexity) float64 {
	switch c {
	case models.ComplexitySimple:
		return 5
	case models.ComplexityMedium:
		return 20
	default:
		return 60
	}
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	classification := s.Classifier.Classify(req.Instruction)
	writeJSON(w, http.StatusOK, classifyResponse{
		AgentType:      classification.Agent,
		Classification: classification,
		Strategy:       strategyFor(classification.Complexity),
		EstimatedTime:  estimatedSeconds(classification.Complexity),
		AgentConfig:    s.Engine.Profiles[classification.Agent],
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	profiles := make([]models.AgentProfile, 0, len(s.Engine.Profiles))
	for _, id := range models.AllAgents {
		if p, ok := s.Engine.Profiles[id]; ok {
			profiles = append(profiles, p)
		}
	}
	writeJSON(w, http.StatusOK, profiles)
}

type voteRequest struct {
	Question   string           `json:"question"`
	Responders []models.AgentID `json:"responders"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Responders) == 0 {
		writeError(w, apperr.New(apperr.KindValidation, "responders must not be empty"))
		return
	}
	result, err := voting.Run(r.Context(), s.Engine, req.Responders, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type planRequest struct {
	SessionID string `json:"session_id"`
	Goal      string `json:"goal"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.Planner.CreatePlan(r.Context(), req.SessionID, req.Goal)
	if err != nil {
		writeError(w, err)
		return
	}
	s.plansMu.Lock()
	s.plans[plan.ID] = plan
	s.plansMu.Unlock()
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanExecute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.plansMu.Lock()
	plan, ok := s.plans[id]
	s.plansMu.Unlock()
	if !ok {
		writeError(w, apperr.New(apperr.KindNotFound, "plan not found: "+id))
		return
	}
	if err := s.PlanExec.Run(r.Context(), plan); err != nil {
		// The plan itself (with per-step status/results) is still useful to
		// the caller even when execution aborted on a critical step.
		writeJSON(w, statusFor(apperr.KindOf(err)), plan)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type delegateRequest struct {
	From models.AgentID `json:"from"`
	To   models.AgentID `json:"to,omitempty"`
	Task string         `json:"task"`
}

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	var req delegateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var (
		d   *models.Delegation
		err error
	)
	if req.To != "" {
		d, err = s.Delegation.Delegate(r.Context(), req.From, req.To, req.Task)
	} else {
		d, err = s.Delegation.RequestHelp(r.Context(), req.From, req.Task)
	}
	if d == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type collaborateRequest struct {
	Coordinator  models.AgentID   `json:"coordinator"`
	Participants []models.AgentID `json:"participants"`
	Goal         string           `json:"goal"`
}

func (s *Server) handleCollaborate(w http.ResponseWriter, r *http.Request) {
	var req collaborateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	collab, err := s.Delegation.Collaborate(r.Context(), req.Coordinator, req.Participants, req.Goal)
	if collab == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collab)
}

type sandboxRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (s *Server) handleSandboxExecute(w http.ResponseWriter, r *http.Request) {
	var req sandboxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	output, err := s.Sandbox.Run(r.Context(), req.Language, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": output})
}

func (s *Server) handleAgentMetrics(w http.ResponseWriter, r *http.Request) {
	agentID := models.AgentID(r.PathValue("agent"))
	metrics, err := s.Evaluator.Metrics(r.Context(), agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleMetricsReport(w http.ResponseWriter, r *http.Request) {
	report := make(map[models.AgentID]*models.AgentMetrics, len(models.AllAgents))
	for _, id := range models.AllAgents {
		m, err := s.Evaluator.Metrics(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		report[id] = m
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.Sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	history, err := s.Sessions.GetHistory(id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
