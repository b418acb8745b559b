// Package openai provides a core.Provider backed by the OpenAI Chat
// Completions API with streaming.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/parleykit/parley/core"
)

// Options configures the OpenAI provider adapter. Fields mirror a minimal
// subset of Chat Completion parameters; extend via functional options
// without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	ContextWindow       int
}

// Provider wraps the OpenAI Chat Completions API behind core.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		ContextWindow:       128_000,
	}
}

// Info implements core.Provider.
func (p *Provider) Info() core.ProviderInfo {
	return core.ProviderInfo{
		Name:          p.opts.Model,
		Provider:      "openai",
		ContextWindow: p.opts.ContextWindow,
	}
}

// StreamResponse implements core.Provider. Content deltas become chunks; the
// final chunk carries usage from the stream's usage frame (requested via
// IncludeUsage).
func (p *Provider) StreamResponse(ctx context.Context, req core.Request) (<-chan core.Chunk, <-chan error) {
	out := make(chan core.Chunk, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		maxTokens := p.opts.MaxCompletionTokens
		if req.MaxTokens > 0 {
			maxTokens = int64(req.MaxTokens)
		}

		params := openai.ChatCompletionNewParams{
			Messages:            buildMessages(req),
			Model:               p.opts.Model,
			Temperature:         openai.Float(p.opts.Temperature),
			MaxCompletionTokens: openai.Int(maxTokens),
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.Bool(true),
			},
		}

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)

		var usage core.Usage
		for stream.Next() {
			ck := stream.Current()
			if ck.Usage.TotalTokens > 0 {
				usage.InputTokens = int(ck.Usage.PromptTokens)
				usage.OutputTokens = int(ck.Usage.CompletionTokens)
			}
			for _, choice := range ck.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- core.Chunk{Text: choice.Delta.Content}:
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
			return
		}

		select {
		case <-ctx.Done():
		case out <- core.Chunk{Done: true, Usage: &usage}:
		}
	}()

	return out, errCh
}

// buildMessages converts transcript messages into OpenAI chat messages.
func buildMessages(req core.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}
