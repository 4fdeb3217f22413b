// Package config loads the orchestrator's YAML configuration. A .env file in
// the working directory, when present, is loaded into the process
// environment; no Config field is read from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP/SSE surface.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// BackendConfig configures one LLM backend endpoint.
type BackendConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// BackendsConfig groups the four backend kinds' endpoints.
type BackendsConfig struct {
	OpenAICompatLocal BackendConfig `yaml:"openai_compatible_local"`
	OllamaLocal       BackendConfig `yaml:"ollama_local"`
	CloudToolNative   BackendConfig `yaml:"cloud_tool_native"`
	CloudVision       BackendConfig `yaml:"cloud_vision"`
}

// MemoryConfig configures session persistence and eviction.
type MemoryConfig struct {
	SnapshotPath string        `yaml:"snapshot_path"`
	IdleTTL      time.Duration `yaml:"idle_ttl"`
}

// EvaluatorConfig configures telemetry persistence.
type EvaluatorConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Config is the full, composed orchestrator configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backends  BackendsConfig  `yaml:"backends"`
	Memory    MemoryConfig    `yaml:"memory"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
}

// Default returns a Config with sane defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
		},
		Backends: BackendsConfig{
			OpenAICompatLocal: BackendConfig{Endpoint: "http://localhost:8000/v1"},
			OllamaLocal:       BackendConfig{Endpoint: "http://localhost:11434"},
		},
		Memory: MemoryConfig{
			SnapshotPath: "data/sessions.json",
			IdleTTL:      30 * time.Minute,
		},
		Evaluator: EvaluatorConfig{
			SQLitePath: "data/telemetry.db",
		},
	}
}

// Load reads path (if it exists) as YAML into a Default() Config. It first
// loads a .env file from the working directory (not from path's directory)
// into the process environment; the returned Config takes no values from
// the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
