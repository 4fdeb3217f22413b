package providers

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LocalOpenAIConfig configures an OpenAI-API-compatible local server
// (vLLM, llama.cpp server, LM Studio, ...).
type LocalOpenAIConfig struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

// LocalOpenAIProvider implements LLMProvider against an OpenAI-compatible
// chat completions endpoint. Unlike the cloud_tool_native adapter, it never
// sends req.Tools as native function definitions: the ReAct loop embeds the
// tool catalog in the system prompt and parses TOOL:/ARGS: lines out of the
// plain-text response itself.
type LocalOpenAIProvider struct {
	client       *openai.Client
	defaultModel string
}

var _ LLMProvider = (*LocalOpenAIProvider)(nil)

// NewLocalOpenAIProvider builds a provider pointed at cfg.BaseURL.
func NewLocalOpenAIProvider(cfg LocalOpenAIConfig) *LocalOpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient.Timeout = cfg.Timeout
	}
	return &LocalOpenAIProvider{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.DefaultModel,
	}
}

func (p *LocalOpenAIProvider) Name() string { return "openai_compatible_local" }

// SupportsTools is false: this backend speaks the ReAct text protocol, not
// native function-calling.
func (p *LocalOpenAIProvider) SupportsTools() bool { return false }

func (p *LocalOpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return nil, NewProviderError(p.Name(), model, errors.New("model is required"))
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := string(m.Role)
		if role == "tool" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, classifyOpenAIErr(p.Name(), model, err)
	}

	out := make(chan *CompletionChunk)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			select {
			case <-ctx.Done():
				out <- &CompletionChunk{Error: ctx.Err(), Done: true}
				return
			default:
			}
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				out <- &CompletionChunk{Done: true}
				return
			}
			if err != nil {
				out <- &CompletionChunk{Error: classifyOpenAIErr(p.Name(), model, err), Done: true}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if text := resp.Choices[0].Delta.Content; text != "" {
				out <- &CompletionChunk{Text: text}
			}
		}
	}()
	return out, nil
}

func classifyOpenAIErr(name, model string, err error) error {
	return NewProviderError(name, model, err)
}
