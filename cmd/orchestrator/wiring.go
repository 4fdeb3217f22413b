package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nexus-orchestrator/orchestrator/internal/agent"
	"github.com/nexus-orchestrator/orchestrator/internal/classifier"
	"github.com/nexus-orchestrator/orchestrator/internal/config"
	"github.com/nexus-orchestrator/orchestrator/internal/device"
	"github.com/nexus-orchestrator/orchestrator/internal/evaluator"
	"github.com/nexus-orchestrator/orchestrator/internal/gateway"
	"github.com/nexus-orchestrator/orchestrator/internal/memory"
	"github.com/nexus-orchestrator/orchestrator/internal/providers"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/code"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/file"
	toolmemory "github.com/nexus-orchestrator/orchestrator/internal/tools/memory"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/osint"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/system"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/web"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// defaultModels maps each backend to the model name used when no override is
// set in config; callers needing a smaller/larger model per agent can still
// set AgentProfile.Model explicitly in buildProfiles.
var defaultModels = map[models.BackendKind]string{
	models.BackendOpenAICompatLocal: "local-default",
	models.BackendOllamaLocal:       "llama3.1",
	models.BackendCloudToolNative:   "claude-sonnet-4-20250514",
	models.BackendCloudVision:       "gpt-4o",
}

// buildProfiles assembles the closed set of AgentProfiles from the policy
// package's tool-family table, matching each agent to the backend its
// persona needs: security/vision_cloud get the cloud backends (structured
// tool use and multimodal respectively), vision_local runs on ollama_local,
// and coder/researcher/executor/reasoner/consultant/general run on the
// openai_compatible_local ReAct backend.
func buildProfiles(cfg *config.Config, dev device.Info) map[models.AgentID]models.AgentProfile {
	profiles := make(map[models.AgentID]models.AgentProfile, len(models.AllAgents))
	for _, id := range models.AllAgents {
		backend := models.BackendOpenAICompatLocal
		switch id {
		case models.AgentSecurity:
			backend = models.BackendCloudToolNative
		case models.AgentVisionCloud:
			backend = models.BackendCloudVision
		case models.AgentVisionLocal:
			backend = models.BackendOllamaLocal
		}
		profiles[id] = models.AgentProfile{
			ID:           id,
			Backend:      backend,
			Model:        modelFor(cfg, dev, backend),
			ToolFamilies: policy.FamiliesFor(id),
			RequiresTool: classifier.RequiresTools(id),
		}
	}
	return profiles
}

// modelFor resolves the model identifier for backend in priority order:
// config override, then (for the locally-hosted openai_compatible_local
// backend only) the device profile's detected model path, then the
// package-level fallback default. ollama_local keeps its named-tag default
// since Ollama addresses models by tag, not filesystem path.
func modelFor(cfg *config.Config, dev device.Info, backend models.BackendKind) string {
	var configured string
	switch backend {
	case models.BackendOpenAICompatLocal:
		configured = cfg.Backends.OpenAICompatLocal.Model
	case models.BackendOllamaLocal:
		configured = cfg.Backends.OllamaLocal.Model
	case models.BackendCloudToolNative:
		configured = cfg.Backends.CloudToolNative.Model
	case models.BackendCloudVision:
		configured = cfg.Backends.CloudVision.Model
	}
	if configured != "" {
		return configured
	}
	if backend == models.BackendOpenAICompatLocal && dev.ModelPath != "" {
		return dev.ModelPath
	}
	return defaultModels[backend]
}

func buildProviders(cfg *config.Config) map[models.BackendKind]providers.LLMProvider {
	return map[models.BackendKind]providers.LLMProvider{
		models.BackendOpenAICompatLocal: providers.NewLocalOpenAIProvider(providers.LocalOpenAIConfig{
			BaseURL:      cfg.Backends.OpenAICompatLocal.Endpoint,
			APIKey:       cfg.Backends.OpenAICompatLocal.APIKey,
			DefaultModel: defaultModels[models.BackendOpenAICompatLocal],
		}),
		models.BackendOllamaLocal: providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      cfg.Backends.OllamaLocal.Endpoint,
			DefaultModel: defaultModels[models.BackendOllamaLocal],
		}),
		models.BackendCloudToolNative: providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       cfg.Backends.CloudToolNative.APIKey,
			BaseURL:      cfg.Backends.CloudToolNative.Endpoint,
			DefaultModel: defaultModels[models.BackendCloudToolNative],
		}),
		models.BackendCloudVision: providers.NewVisionProvider(providers.VisionConfig{
			APIKey:       cfg.Backends.CloudVision.APIKey,
			BaseURL:      cfg.Backends.CloudVision.Endpoint,
			DefaultModel: defaultModels[models.BackendCloudVision],
		}),
	}
}

// buildRegistry registers every tool family, confining the file and code
// families to the process's working directory.
func buildRegistry() (*tools.Registry, error) {
	reg := tools.NewRegistry()
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	if err := file.Register(reg, root); err != nil {
		return nil, err
	}
	if err := code.Register(reg, root); err != nil {
		return nil, err
	}
	if err := system.Register(reg); err != nil {
		return nil, err
	}
	if err := web.Register(reg); err != nil {
		return nil, err
	}
	if err := osint.Register(reg); err != nil {
		return nil, err
	}
	if err := toolmemory.Register(reg, toolmemory.NewStore()); err != nil {
		return nil, err
	}
	return reg, nil
}

// buildServer wires every component package into a *gateway.Server, ready
// for Start (the "serve" command) or for standalone use ("plan").
func buildServer(cfg *config.Config, logger *slog.Logger) (*gateway.Server, error) {
	registry, err := buildRegistry()
	if err != nil {
		return nil, err
	}
	persister, err := memory.NewJSONPersister(cfg.Memory.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open session snapshot: %w", err)
	}
	sessions := memory.NewInMemoryStore(persister)

	eval, err := evaluator.New(cfg.Evaluator.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open evaluator store: %w", err)
	}

	dev := device.Detect()
	profiles := buildProfiles(cfg, dev)
	engine := agent.NewEngine(buildProviders(cfg), registry, profiles)
	engine.Fallback = agent.DefaultFallbackChain()
	engine.Device = &dev

	srv := gateway.NewServer(logger)
	srv.Engine = engine
	srv.Registry = registry
	srv.Sessions = sessions
	srv.Classifier = classifier.New()
	srv.Evaluator = eval
	srv.Init()
	return srv, nil
}
