package core

import "context"

// Usage captures token usage statistics reported by a provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Chunk is a fragment of a streamed response. The terminal chunk carries
// Done=true and, when the provider reports it, ground-truth token usage.
type Chunk struct {
	Text  string `json:"text"`
	Done  bool   `json:"done"`
	Usage *Usage `json:"usage,omitempty"`
}

// Request captures the normalized input for a provider call.
type Request struct {
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// ProviderInfo contains metadata about a provider implementation.
type ProviderInfo struct {
	// Name is the concrete model identifier (e.g. "claude-sonnet-4-5").
	Name string `json:"name"`
	// Provider is the hosting vendor key ("anthropic", "openai", "ollama", ...)
	// used for rate-limit capability lookup.
	Provider string `json:"provider"`
	// ContextWindow is the maximum input token budget, used for the proactive
	// context-limit check. Zero means unknown.
	ContextWindow int `json:"context_window,omitempty"`
}

// Provider is the minimal capability required to stream one agent response.
//
// StreamResponse returns a channel of response chunks and a channel of
// errors. Both channels are closed by the implementation when the stream
// ends. The context cancels the underlying call; after cancellation no
// further chunks are emitted.
type Provider interface {
	StreamResponse(ctx context.Context, req Request) (<-chan Chunk, <-chan error)

	// Info returns metadata about the provider implementation.
	Info() ProviderInfo
}

// Agent is a handle pairing a stable identifier, a model identifier and the
// provider capability used to generate its messages.
type Agent struct {
	ID       string
	Model    string
	Provider Provider
}
