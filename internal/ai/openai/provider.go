package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/masrulmollah/DataAnalysis/internal/ai"
)

const defaultTimeout = 120 * time.Second

// Provider talks to any OpenAI-compatible endpoint through langchaingo.
type Provider struct {
	llm *openai.LLM
}

var _ ai.Provider = &Provider{}

func New(apiKey, baseURL, model string, timeout time.Duration) (*Provider, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return &Provider{llm: llm}, nil
}

func (p *Provider) Chat(ctx context.Context, history []ai.Message, options ...ai.Option) (string, error) {
	opts := &ai.Options{}
	for _, o := range options {
		o(opts)
	}

	content := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		var role llms.ChatMessageType
		switch msg.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleModel, "assistant":
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}

	callOpts := make([]llms.CallOption, 0, 4)
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := p.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from model")
	}
	return resp.Choices[0].Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...ai.Option) (string, error) {
	return p.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}}, options...)
}
