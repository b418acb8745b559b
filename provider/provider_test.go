package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/core"
)

// Interface compliance (compile-time assertion)
var _ core.Provider = (*ScriptedProvider)(nil)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		class     Class
		retryable bool
	}{
		{"rate limit", errors.New("anthropic api error: rate limit exceeded"), ClassRateLimit, true},
		{"429", errors.New("unexpected status 429 Too Many Requests"), ClassRateLimit, true},
		{"overloaded", errors.New("Overloaded: please retry"), ClassOverloaded, true},
		{"timeout", errors.New("context deadline exceeded"), ClassTimeout, true},
		{"context window", errors.New("prompt is too long: maximum context length is 200000"), ClassContextLimit, false},
		{"auth", errors.New("401 invalid api key"), ClassAuth, false},
		{"bad request", errors.New("invalid request: messages must alternate"), ClassBadRequest, false},
		{"unknown", errors.New("something odd happened"), ClassUnknown, false},
		{"nil", nil, ClassUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.class, got)
			assert.Equal(t, tt.retryable, got.Retryable())
		})
	}
}

func TestScriptedProvider_StreamsChunks(t *testing.T) {
	p := NewScripted([]string{"hello world, nice to meet you"}, func(o *ScriptedOptions) {
		o.ChunkSize = 5
	})

	chunks, errs := p.StreamResponse(context.Background(), core.Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
	})

	var content string
	var done bool
	var usage *core.Usage
	for ck := range chunks {
		if ck.Done {
			done = true
			usage = ck.Usage
			continue
		}
		content += ck.Text
	}
	require.NoError(t, <-errs)
	assert.True(t, done)
	assert.Equal(t, "hello world, nice to meet you", content)
	require.NotNil(t, usage)
	assert.Positive(t, usage.OutputTokens)
}

func TestScriptedProvider_FallsBackToEcho(t *testing.T) {
	p := NewScripted(nil)
	chunks, errs := p.StreamResponse(context.Background(), core.Request{
		Messages: []core.Message{core.NewUserMessage("ping")},
	})
	var content string
	for ck := range chunks {
		content += ck.Text
	}
	require.NoError(t, <-errs)
	assert.Equal(t, "Scripted reply to: ping", content)
}

func TestScriptedProvider_ScriptedError(t *testing.T) {
	p := NewScripted([]string{"ok"}).FailOn(0, errors.New("rate limit exceeded"))

	chunks, errs := p.StreamResponse(context.Background(), core.Request{})
	for range chunks {
	}
	err := <-errs
	require.Error(t, err)
	assert.Equal(t, ClassRateLimit, ClassifyError(err))
	assert.Equal(t, 1, p.Calls())
}

func TestScriptedProvider_CancelStopsStream(t *testing.T) {
	p := NewScripted([]string{"a long response that streams slowly over many chunks"}, func(o *ScriptedOptions) {
		o.ChunkSize = 2
		o.ChunkDelay = 20 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chunks, errs := p.StreamResponse(ctx, core.Request{})

	received := 0
	for ck := range chunks {
		if !ck.Done {
			received++
		}
		if received == 3 {
			cancel()
		}
	}
	require.NoError(t, <-errs)
	assert.Less(t, received, 10)
}
