package ai

import "context"

// Roles understood by every provider. RoleModel is mapped to each
// backend's own assistant role by the provider implementation.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// Message is a chat message in a provider-agnostic format.
type Message struct {
	Role    string
	Content string
}

// Option allows optional parameters like temperature or model override.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string
	JSONMode    bool
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithJSONMode asks the backend to emit a single JSON value.
func WithJSONMode() Option {
	return func(o *Options) {
		o.JSONMode = true
	}
}

// Provider is the contract for any inference backend.
type Provider interface {
	// Chat sends a chat history to the model and returns the reply text.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
