package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/limiter"
	"github.com/parleykit/parley/provider"
)

type captureOutcome int

const (
	outcomeOK captureOutcome = iota
	outcomeInterrupted
	outcomeTimeout
	outcomeCanceled
	outcomeError
)

type captureResult struct {
	msg     core.Message
	outcome captureOutcome
	err     error
}

// capture acquires rate-limit budget, streams one response and accumulates
// its chunks. The interrupt signal is polled on a fixed cadence without
// blocking chunk consumption; a positive poll cancels the stream and
// preserves the partial content.
func (o *Orchestrator) capture(ctx context.Context, conv *core.Conversation, agent core.Agent) captureResult {
	req := o.buildRequest(conv, agent)
	info := agent.Provider.Info()

	if o.opts.Limiter != nil {
		estimate := o.opts.MaxResponseTokens
		for _, m := range req.Messages {
			estimate += core.EstimateTokens(m.Content)
		}
		wait, err := o.opts.Limiter.Acquire(ctx, info.Provider, estimate)
		if err != nil {
			if errors.Is(err, limiter.ErrAcquireAborted) {
				return captureResult{outcome: outcomeCanceled, err: err}
			}
			return captureResult{outcome: outcomeError, err: err}
		}
		if wait > 0 {
			o.logger.Debug("rate limit wait", "provider", info.Provider, "wait", wait)
		}
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	chunks, errs := agent.Provider.StreamResponse(cctx, req)

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(o.opts.ResponseTimeout)
	defer deadline.Stop()

	var content strings.Builder
	var usage *core.Usage
	interrupted := false

	for chunks != nil {
		select {
		case ck, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			content.WriteString(ck.Text)
			if ck.Usage != nil {
				usage = ck.Usage
			}
			if ck.Done {
				chunks = nil
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				cancel()
				o.recordProviderError(info.Provider, err)
				return captureResult{outcome: outcomeError, err: err}
			}

		case <-ticker.C:
			if o.opts.Interrupt.Poll() {
				cancel()
				interrupted = true
				chunks = nil
			}

		case <-deadline.C:
			cancel()
			o.recordProviderError(info.Provider, context.DeadlineExceeded)
			return captureResult{
				outcome: outcomeTimeout,
				err:     fmt.Errorf("agent %s response exceeded %s", agent.ID, o.opts.ResponseTimeout),
			}

		case <-ctx.Done():
			cancel()
			interrupted = true
			chunks = nil
		}
	}

	duration := time.Since(start)
	msg := core.NewMessage(agent.ID, content.String())
	msg.Duration = duration
	msg.Interrupted = interrupted
	if usage != nil && usage.OutputTokens > 0 {
		msg.TokenCount = usage.OutputTokens
	} else {
		msg.TokenCount = core.EstimateTokens(msg.Content)
	}

	if o.opts.Limiter != nil {
		o.opts.Limiter.RecordComplete(info.Provider, msg.TokenCount, duration)
	}

	if interrupted {
		return captureResult{msg: msg, outcome: outcomeInterrupted}
	}
	return captureResult{msg: msg, outcome: outcomeOK}
}

// buildRequest maps the transcript into the responding agent's perspective:
// its own messages become assistant turns, the other agent's become user
// turns, and mediator messages keep the system role for the adapter to
// place. The initial prompt is always the first user turn.
func (o *Orchestrator) buildRequest(conv *core.Conversation, agent core.Agent) core.Request {
	history := conv.Messages()
	messages := make([]core.Message, 0, len(history)+1)
	messages = append(messages, core.NewUserMessage(conv.InitialPrompt))
	for _, m := range history {
		mapped := m
		switch {
		case m.Role == core.RoleSystem:
			// keep as-is
		case m.AgentID == agent.ID:
			mapped.Role = core.RoleAssistant
		default:
			mapped.Role = core.RoleUser
		}
		messages = append(messages, mapped)
	}
	return core.Request{
		System:    o.opts.SystemPrompt,
		Messages:  messages,
		MaxTokens: o.opts.MaxResponseTokens,
	}
}

func (o *Orchestrator) recordProviderError(providerName string, err error) {
	if o.opts.Limiter == nil {
		return
	}
	switch provider.ClassifyError(err) {
	case provider.ClassRateLimit:
		o.opts.Limiter.RecordError(providerName, limiter.KindRateLimit)
	case provider.ClassOverloaded:
		o.opts.Limiter.RecordError(providerName, limiter.KindOverloaded)
	default:
		o.opts.Limiter.RecordError(providerName, limiter.KindOther)
	}
}
