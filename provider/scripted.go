package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parleykit/parley/core"
)

// ScriptedProvider is a deterministic in-memory core.Provider useful for
// tests and examples. Responses are played back in registration order; when
// the script is exhausted it falls back to echoing the last input. A
// non-zero ChunkDelay paces chunk emission so interruption mid-stream can be
// exercised.
type ScriptedProvider struct {
	info       core.ProviderInfo
	responses  []string
	errs       map[int]error // script index -> error emitted instead of a response
	chunkSize  int
	chunkDelay time.Duration

	mu    sync.Mutex
	calls int
}

// ScriptedOptions configures a ScriptedProvider.
type ScriptedOptions struct {
	// Name is the model identifier reported via Info.
	Name string
	// Provider is the vendor key reported via Info. Defaults to "scripted",
	// which the rate limiter treats as an unknown provider.
	Provider string
	// ContextWindow reported via Info. Zero means unlimited.
	ContextWindow int
	// ChunkSize is the number of bytes per streamed chunk.
	ChunkSize int
	// ChunkDelay paces chunk emission.
	ChunkDelay time.Duration
}

// NewScripted constructs a ScriptedProvider with optional overrides.
func NewScripted(responses []string, optFns ...func(o *ScriptedOptions)) *ScriptedProvider {
	opts := ScriptedOptions{
		Name:      "scripted-model",
		Provider:  "scripted",
		ChunkSize: 8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ScriptedProvider{
		info: core.ProviderInfo{
			Name:          opts.Name,
			Provider:      opts.Provider,
			ContextWindow: opts.ContextWindow,
		},
		responses:  responses,
		errs:       map[int]error{},
		chunkSize:  opts.ChunkSize,
		chunkDelay: opts.ChunkDelay,
	}
}

// FailOn schedules err to be emitted instead of the call-th response
// (zero-based call index).
func (p *ScriptedProvider) FailOn(call int, err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[call] = err
	return p
}

// Calls returns how many times StreamResponse has been invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Info implements core.Provider.
func (p *ScriptedProvider) Info() core.ProviderInfo { return p.info }

// StreamResponse implements core.Provider; plays back the next scripted
// response as a sequence of fixed-size chunks.
func (p *ScriptedProvider) StreamResponse(ctx context.Context, req core.Request) (<-chan core.Chunk, <-chan error) {
	out := make(chan core.Chunk, 16)
	errCh := make(chan error, 1)

	p.mu.Lock()
	call := p.calls
	p.calls++
	scriptedErr := p.errs[call]
	var full string
	switch {
	case call < len(p.responses):
		full = p.responses[call]
	case len(req.Messages) > 0:
		full = fmt.Sprintf("Scripted reply to: %s", req.Messages[len(req.Messages)-1].Content)
	default:
		full = "Scripted reply."
	}
	p.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)

		if scriptedErr != nil {
			errCh <- scriptedErr
			return
		}

		for start := 0; start < len(full); start += p.chunkSize {
			end := start + p.chunkSize
			if end > len(full) {
				end = len(full)
			}
			if p.chunkDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.chunkDelay):
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- core.Chunk{Text: full[start:end]}:
			}
		}

		usage := &core.Usage{
			InputTokens:  core.EstimateTokens(requestText(req)),
			OutputTokens: core.EstimateTokens(full),
		}
		select {
		case <-ctx.Done():
		case out <- core.Chunk{Done: true, Usage: usage}:
		}
	}()

	return out, errCh
}

func requestText(req core.Request) string {
	var total int
	for _, m := range req.Messages {
		total += len(m.Content)
	}
	buf := make([]byte, 0, total)
	for _, m := range req.Messages {
		buf = append(buf, m.Content...)
	}
	return string(buf)
}
