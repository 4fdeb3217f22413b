package providers

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// VisionConfig configures the cloud_vision adapter.
type VisionConfig struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

// VisionProvider implements LLMProvider for multimodal completions, where a
// message's Content may carry image references on lines prefixed with
// ImageURLPrefix, which this adapter splits into heterogeneous OpenAI
// content parts.
type VisionProvider struct {
	client       *openai.Client
	defaultModel string
}

var _ LLMProvider = (*VisionProvider)(nil)

// NewVisionProvider builds a provider against cfg.
func NewVisionProvider(cfg VisionConfig) *VisionProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient.Timeout = cfg.Timeout
	}
	return &VisionProvider{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.DefaultModel,
	}
}

func (p *VisionProvider) Name() string { return "cloud_vision" }

func (p *VisionProvider) SupportsTools() bool { return false }

// ImageURLPrefix marks an image reference embedded in a message's Content,
// one per line, e.g. "image_url: https://example.com/a.png".
const ImageURLPrefix = "image_url: "

func (p *VisionProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
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
		messages = append(messages, toVisionMessage(m))
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, NewProviderError(p.Name(), model, err)
	}

	out := make(chan *CompletionChunk)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				out <- &CompletionChunk{Done: true}
				return
			}
			if err != nil {
				out <- &CompletionChunk{Error: NewProviderError(p.Name(), model, err), Done: true}
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

func toVisionMessage(m CompletionMessage) openai.ChatCompletionMessage {
	role := string(m.Role)
	if role == "tool" {
		role = openai.ChatMessageRoleUser
	}
	lines := strings.Split(m.Content, "\n")
	var textLines []string
	var parts []openai.ChatMessagePart
	for _, line := range lines {
		if url, ok := strings.CutPrefix(line, ImageURLPrefix); ok {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: strings.TrimSpace(url)},
			})
			continue
		}
		textLines = append(textLines, line)
	}
	text := strings.TrimSpace(strings.Join(textLines, "\n"))
	if len(parts) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: text}
	}
	if text != "" {
		parts = append([]openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}, parts...)
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}
