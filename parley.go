// Package parley provides a high-level façade over the turn orchestrator and
// its collaborators (rate limiting, convergence scoring, attractor detection,
// checkpointing, event sinks). Most applications interact with this package
// by:
//  1. Building two core.Agent handles backed by provider adapters
//  2. Calling RunConversation, optionally tuning behavior via Options
//  3. Inspecting the returned conversation and end reason
//
// The façade delegates to orchestrator.Orchestrator while keeping setup
// concise. All defaults are safe for local development and testing;
// production deployments typically supply a rate limiter, a checkpoint store
// and a structured logger.
package parley

import (
	"context"

	"github.com/parleykit/parley/checkpoint"
	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/orchestrator"
)

// EndReason re-exports the orchestrator's end reason for façade callers.
type EndReason = orchestrator.EndReason

// Options configures a façade run.
type Options struct {
	// ResumeSnapshot continues a checkpointed conversation instead of
	// starting fresh. Nil starts a new conversation.
	ResumeSnapshot *checkpoint.Snapshot

	// ConvergenceThreshold overrides the default halt threshold (0.90).
	// Zero keeps the default.
	ConvergenceThreshold float64

	// ManualMode pauses after every completed turn until Step is called on
	// the orchestrator. Pair it with Configure to keep a handle on the
	// orchestrator; RunConversation alone is intended for autonomous runs.
	ManualMode bool

	// Configure applies arbitrary orchestrator options (limiter, sinks,
	// checkpoint store, interrupt signal, logging) after the façade's own.
	Configure func(o *orchestrator.Options)
}

// RunConversation drives a complete paired-agent dialogue and returns the
// transcript together with the reason it ended. The error is non-nil only
// for provider failures and resume mismatches; budget and analysis halts
// report through the end reason alone.
func RunConversation(ctx context.Context, agentA, agentB core.Agent, initialPrompt string, maxTurns int, optFns ...func(o *Options)) (*core.Conversation, EndReason, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	orch := orchestrator.New(agentA, agentB, func(o *orchestrator.Options) {
		o.MaxTurns = maxTurns
		if opts.ConvergenceThreshold > 0 {
			o.ConvergenceThreshold = opts.ConvergenceThreshold
		}
		o.ManualMode = opts.ManualMode
		if opts.Configure != nil {
			opts.Configure(o)
		}
	})

	if opts.ResumeSnapshot != nil {
		return orch.Resume(ctx, opts.ResumeSnapshot)
	}
	return orch.Run(ctx, initialPrompt)
}
