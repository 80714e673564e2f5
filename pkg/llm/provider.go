package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithTopP(topP float64) Option {
	return func(o *Options) {
		o.TopP = topP
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// DeltaHandler receives one streamed text fragment. Returning a non-nil error
// abandons the stream; fragments already delivered are not retracted.
type DeltaHandler func(delta string) error

// LLMProvider defines the contract for any chat-completion backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and relays the response incrementally,
	// one fragment per onDelta call. It returns only after the stream is
	// drained, abandoned by the handler, or fails.
	ChatStream(ctx context.Context, history []Message, onDelta DeltaHandler, options ...Option) error
}
