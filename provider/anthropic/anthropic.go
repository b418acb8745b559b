// Package anthropic provides a core.Provider backed by the Anthropic
// Messages API with streaming.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/parleykit/parley/core"
)

// Options configures the Anthropic provider adapter (model id, temperature,
// max tokens, API key, context window).
type Options struct {
	Model         anthropic.Model
	Temperature   float64
	MaxTokens     int64
	APIKey        string
	ContextWindow int
}

// Provider wraps the Anthropic Messages API behind core.Provider.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:         anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:   0.7,
		MaxTokens:     4096,
		ContextWindow: 200_000,
	}
}

// Info implements core.Provider.
func (p *Provider) Info() core.ProviderInfo {
	return core.ProviderInfo{
		Name:          string(p.opts.Model),
		Provider:      "anthropic",
		ContextWindow: p.opts.ContextWindow,
	}
}

// StreamResponse implements core.Provider. It adapts the Messages streaming
// API into the chunk/error channel pair: text deltas become chunks, the
// terminal chunk carries usage accumulated from message_start/message_delta
// events.
func (p *Provider) StreamResponse(ctx context.Context, req core.Request) (<-chan core.Chunk, <-chan error) {
	out := make(chan core.Chunk, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		maxTokens := p.opts.MaxTokens
		if req.MaxTokens > 0 {
			maxTokens = int64(req.MaxTokens)
		}

		params := anthropic.MessageNewParams{
			Model:       p.opts.Model,
			Messages:    buildMessages(req.Messages),
			MaxTokens:   maxTokens,
			Temperature: anthropic.Float(p.opts.Temperature),
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}

		stream := p.client.Messages.NewStreaming(ctx, params)

		var usage core.Usage
		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.InputTokens = int(ev.Message.Usage.InputTokens)
			case anthropic.ContentBlockDeltaEvent:
				switch delta := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text == "" {
						continue
					}
					select {
					case <-ctx.Done():
						return
					case out <- core.Chunk{Text: delta.Text}:
					}
				}
			case anthropic.MessageDeltaEvent:
				usage.OutputTokens = int(ev.Usage.OutputTokens)
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("anthropic streaming error: %w", err)
			return
		}

		select {
		case <-ctx.Done():
		case out <- core.Chunk{Done: true, Usage: &usage}:
		}
	}()

	return out, errCh
}

// buildMessages converts transcript messages to Anthropic message params.
// The Messages API requires strictly alternating user/assistant roles, so
// adjacent messages with the same role are merged.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var pending []string
	var pendingRole core.Role

	flush := func() {
		if len(pending) == 0 {
			return
		}
		text := strings.Join(pending, "\n\n")
		if pendingRole == core.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		} else {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
		pending = nil
	}

	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		role := m.Role
		if role != core.RoleAssistant {
			// System/mediator interventions reach the model as user turns.
			role = core.RoleUser
		}
		if role != pendingRole {
			flush()
			pendingRole = role
		}
		pending = append(pending, m.Content)
	}
	flush()

	return out
}
