// Package gateway implements the orchestrator's HTTP surface: chat and
// streaming chat, classification, voting, planning, delegation,
// collaboration, a sandboxed-execution passthrough, metrics, and session
// inspection.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexus-orchestrator/orchestrator/internal/agent"
	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/classifier"
	"github.com/nexus-orchestrator/orchestrator/internal/delegation"
	"github.com/nexus-orchestrator/orchestrator/internal/evaluator"
	"github.com/nexus-orchestrator/orchestrator/internal/memory"
	"github.com/nexus-orchestrator/orchestrator/internal/planexec"
	"github.com/nexus-orchestrator/orchestrator/internal/planner"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// engineReasoner adapts Engine.Execute to the planner.Reasoner contract by
// pinning the agent to the reasoner persona.
type engineReasoner struct {
	engine *agent.Engine
}

func (r engineReasoner) Ask(ctx context.Context, prompt string) (string, error) {
	return r.engine.Execute(ctx, models.AgentReasoner, prompt)
}

// SandboxRunner is the out-of-scope collaborator behind /sandbox/execute.
// A real implementation would shell out to a container or subprocess
// sandbox; this package ships only the interface and a no-op default.
type SandboxRunner interface {
	Run(ctx context.Context, language, code string) (string, error)
}

// NoopSandbox always refuses, since no real sandbox ships in this repo.
type NoopSandbox struct{}

func (NoopSandbox) Run(ctx context.Context, language, code string) (string, error) {
	return "", apperr.New(apperr.KindRefused, "sandbox execution is not available in this deployment")
}

// Server wires every component package behind the HTTP surface.
type Server struct {
	Engine     *agent.Engine
	Registry   *tools.Registry
	Sessions   memory.Store
	Classifier *classifier.Classifier
	Planner    *planner.Planner
	PlanExec   *planexec.Executor
	Delegation *delegation.Manager
	Evaluator  *evaluator.Evaluator
	Sandbox    SandboxRunner
	Logger     *slog.Logger

	plansMu sync.Mutex
	plans   map[string]*models.ExecutionPlan

	httpServer *http.Server
}

// NewServer returns a Server; callers should set exported fields (or use
// the cmd/orchestrator wiring) before calling Start.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Logger:  logger,
		Sandbox: NoopSandbox{},
		plans:   make(map[string]*models.ExecutionPlan),
	}
}

// Init wires Planner, PlanExec, and Delegation from the already-set Engine,
// once the caller has populated Engine, Registry, Sessions, Classifier, and
// Evaluator. Split from NewServer so callers can assign the exported fields
// first (as cmd/orchestrator's wiring does).
func (s *Server) Init() {
	s.Planner = planner.New(engineReasoner{engine: s.Engine})
	s.PlanExec = planexec.New(s.Engine)
	s.Delegation = delegation.New(s.Engine)
}

// Mux builds the ServeMux for every route this server handles, mounted
// under middleware.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("GET /agents", s.handleAgents)
	mux.HandleFunc("POST /vote", s.handleVote)
	mux.HandleFunc("POST /plan", s.handlePlan)
	mux.HandleFunc("POST /plan/{id}/execute", s.handlePlanExecute)
	mux.HandleFunc("POST /delegate", s.handleDelegate)
	mux.HandleFunc("POST /collaborate", s.handleCollaborate)
	mux.HandleFunc("POST /sandbox/execute", s.handleSandboxExecute)
	mux.HandleFunc("GET /metrics/agent/{agent}", s.handleAgentMetrics)
	mux.HandleFunc("GET /metrics/report", s.handleMetricsReport)
	mux.HandleFunc("GET /session/{id}", s.handleSession)
	mux.HandleFunc("GET /session/{id}/history", s.handleSessionHistory)

	return withMiddleware(s.Logger, mux)
}

// Start listens and serves on addr in a background goroutine.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.httpServer = &http.Server{
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http server error", "error", err)
		}
	}()
	s.Logger.Info("starting http server", "addr", addr)
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
