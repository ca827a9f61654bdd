package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/masrulmollah/DataAnalysis/internal/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 120 * time.Second
)

// Provider talks to the Google Generative Language REST API.
type Provider struct {
	APIKey    string
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ ai.Provider = &Provider{}

func New(apiKey, baseURL, modelName string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if modelName == "" {
		modelName = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		ModelName: modelName,
		Client:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *Provider) Chat(ctx context.Context, history []ai.Message, options ...ai.Option) (string, error) {
	opts := &ai.Options{
		Temperature: 0.7,
	}
	for _, o := range options {
		o(opts)
	}

	// Gemini keeps the system prompt out of the turn list.
	var system []string
	contents := make([]content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, msg.Content)
		case ai.RoleModel, "assistant":
			contents = append(contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	reqPayload := generateRequest{
		Contents: contents,
		GenerationConfig: &generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if len(system) > 0 {
		reqPayload.SystemInstruction = &content{Parts: []part{{Text: strings.Join(system, "\n\n")}}}
	}
	if opts.JSONMode {
		reqPayload.GenerationConfig.ResponseMIMEType = "application/json"
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	model := p.ModelName
	if opts.Model != "" {
		model = opts.Model
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates from gemini")
	}

	var b strings.Builder
	for _, pt := range genResp.Candidates[0].Content.Parts {
		b.WriteString(pt.Text)
	}
	return b.String(), nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...ai.Option) (string, error) {
	return p.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}}, options...)
}
