package llm

import (
	"context"
	"errors"
)

// ErrGenerationFailed marks provider-level failures (auth, network, rate
// limit). Terminal for the current call; history is never updated on it.
var ErrGenerationFailed = errors.New("llm generation failed")

// Message is a chat message in a provider-agnostic format. Images carry
// caller-resolved references (inline-encoded data or URLs the provider
// accepts); encoding is the caller's responsibility.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
	Images  []string
}

// FragmentFunc receives streamed text fragments in arrival order. Returning a
// non-nil error cancels the stream; the provider releases the connection and
// the call ends without a completion signal.
type FragmentFunc func(fragment string) error

// Option allows optional sampling parameters.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	APIKey      string // Override provider credential for this call
}

func WithTemperature(temp float64) Option {
	return func(o *Options) { o.Temperature = temp }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

func WithAPIKey(key string) Option {
	return func(o *Options) { o.APIKey = key }
}

// ApplyOptions folds a variadic option list onto defaults.
func ApplyOptions(opts []Option) *Options {
	o := &Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LLMProvider defines the contract for any LLM backend.
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream streams the response fragment by fragment and returns the
	// accumulated full text once the provider signals completion.
	ChatStream(ctx context.Context, history []Message, onFragment FragmentFunc, options ...Option) (string, error)
}
