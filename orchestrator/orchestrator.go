package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parleykit/parley/attractor"
	"github.com/parleykit/parley/checkpoint"
	"github.com/parleykit/parley/convergence"
	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/limiter"
	"github.com/parleykit/parley/logging"
	"github.com/parleykit/parley/provider"
)

// Options configures an Orchestrator.
type Options struct {
	// MaxTurns is the turn budget for the run.
	MaxTurns int
	// SystemPrompt is sent with every provider request.
	SystemPrompt string
	// MaxResponseTokens caps each agent response.
	MaxResponseTokens int

	// ConvergenceThreshold halts the run when the score reaches it.
	ConvergenceThreshold float64
	// ConvergenceRearm re-arms the convergence halt once the score drops
	// below it, preventing flapping around the threshold.
	ConvergenceRearm float64
	// ConvergenceWindow is the trailing message window the scorer examines.
	ConvergenceWindow int

	// AttractorCheckInterval is the turn cadence of attractor analysis.
	AttractorCheckInterval int
	// AttractorAction selects the reaction to a detection.
	AttractorAction AttractorAction

	// CheckpointInterval is the turn cadence of periodic checkpoints.
	// Zero disables periodic checkpoints; pause-time checkpoints still
	// happen whenever a store is configured.
	CheckpointInterval int

	// ResponseTimeout bounds a single response capture.
	ResponseTimeout time.Duration
	// PollInterval is the cadence at which the interrupt signal is polled
	// while a stream is being consumed.
	PollInterval time.Duration

	// ManualMode pauses after every completed turn until Step is called.
	ManualMode bool

	// Limiter paces provider calls. Nil disables pacing.
	Limiter *limiter.Limiter
	// Sink receives lifecycle events. Nil discards them.
	Sink core.EventSink
	// Checkpoints persists snapshots. Nil disables checkpointing.
	Checkpoints checkpoint.Store
	// Interrupt is polled during capture. Defaults to a signal that never
	// fires.
	Interrupt core.InterruptSignal
	// Logger receives orchestrator diagnostics.
	Logger logging.Logger
}

// Orchestrator runs one conversation between two agents. It is not safe to
// run the same instance concurrently; Inject and Step may be called from
// other goroutines while a run is in flight.
type Orchestrator struct {
	agentA core.Agent
	agentB core.Agent
	opts   Options
	logger logging.Logger

	scorer     *convergence.Scorer
	attractors *attractor.Manager

	stepCh chan struct{}

	mu         sync.Mutex
	state      State
	injections []string
	armed      bool
}

// New creates an orchestrator for a pair of agents.
func New(agentA, agentB core.Agent, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxTurns:               30,
		MaxResponseTokens:      1024,
		ConvergenceThreshold:   0.90,
		ConvergenceRearm:       0.85,
		ConvergenceWindow:      10,
		AttractorCheckInterval: 5,
		AttractorAction:        ActionStop,
		CheckpointInterval:     10,
		ResponseTimeout:        60 * time.Second,
		PollInterval:           100 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns < 1 {
		opts.MaxTurns = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = 60 * time.Second
	}
	if opts.Interrupt == nil {
		opts.Interrupt = core.NopSignal{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Orchestrator{
		agentA: agentA,
		agentB: agentB,
		opts:   opts,
		logger: opts.Logger,
		scorer: convergence.NewScorer(func(o *convergence.Options) {
			o.WindowSize = opts.ConvergenceWindow
		}),
		attractors: attractor.NewManager(func(o *attractor.ManagerOptions) {
			o.CheckInterval = opts.AttractorCheckInterval
		}),
		stepCh: make(chan struct{}, 1),
		state:  StateIdle,
		armed:  true,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Inject queues a mediator message that will be appended to the transcript
// before the next agent call. Injected messages never advance the turn
// state machine.
func (o *Orchestrator) Inject(content string) {
	o.mu.Lock()
	o.injections = append(o.injections, content)
	o.mu.Unlock()
}

// Step releases a manual-mode pause, allowing the next turn to run. Calling
// Step when nothing is paused is a no-op.
func (o *Orchestrator) Step() {
	select {
	case o.stepCh <- struct{}{}:
	default:
	}
}

// Run starts a fresh conversation and drives it until a halt condition is
// reached. The returned conversation is always valid, including on error.
func (o *Orchestrator) Run(ctx context.Context, initialPrompt string) (*core.Conversation, EndReason, error) {
	conv := core.NewConversation(o.agentA, o.agentB, initialPrompt)
	return o.run(ctx, conv)
}

// Resume continues a conversation from a snapshot. The orchestrator's agent
// IDs must match the snapshot's; the snapshot's turn budget is honored.
func (o *Orchestrator) Resume(ctx context.Context, snap *checkpoint.Snapshot) (*core.Conversation, EndReason, error) {
	if err := snap.Validate(); err != nil {
		return nil, EndAPIError, fmt.Errorf("resume: %w", err)
	}
	conv, err := snap.Conversation(o.agentA, o.agentB)
	if err != nil {
		return nil, EndAPIError, fmt.Errorf("resume: %w", err)
	}
	if snap.MaxTurns > 0 {
		o.opts.MaxTurns = snap.MaxTurns
	}
	o.logger.Info("resuming conversation",
		"conversation_id", conv.ID, "turns_completed", conv.TurnCount(), "max_turns", o.opts.MaxTurns)
	return o.run(ctx, conv)
}

func (o *Orchestrator) run(ctx context.Context, conv *core.Conversation) (*core.Conversation, EndReason, error) {
	started := time.Now()
	o.publish(core.NewConversationStarted(conv, o.opts.MaxTurns))
	o.logger.Info("conversation started",
		"conversation_id", conv.ID, "model_a", o.agentA.Model, "model_b", o.agentB.Model, "max_turns", o.opts.MaxTurns)

	reason, err := o.loop(ctx, conv)

	o.publish(core.NewConversationEnded(conv.TurnCount(), time.Since(started), string(reason)))
	o.logger.Info("conversation ended",
		"conversation_id", conv.ID, "total_turns", conv.TurnCount(), "reason", string(reason), "state", string(o.State()))
	return conv, reason, err
}

// loop drives turns until a halt condition fires. Every return site leaves
// the state machine in Paused (resumable) or Stopped (terminal).
func (o *Orchestrator) loop(ctx context.Context, conv *core.Conversation) (EndReason, error) {
	for {
		turn := conv.TurnCount() + 1
		if turn > o.opts.MaxTurns {
			o.setState(StateStopped)
			return EndMaxTurns, nil
		}
		if ctx.Err() != nil {
			o.pause(conv, turn)
			return EndInterrupted, nil
		}

		o.publish(core.NewTurnStarted(turn))
		o.applyInjections(conv)

		o.setState(StateAwaitingA)
		if reason, halt := o.guardContext(conv, o.agentA, turn); halt {
			return reason, nil
		}
		if reason, err, halt := o.captureInto(ctx, conv, o.agentA, turn); halt {
			return reason, err
		}

		o.setState(StateAwaitingB)
		if reason, halt := o.guardContext(conv, o.agentB, turn); halt {
			return reason, nil
		}
		if reason, err, halt := o.captureInto(ctx, conv, o.agentB, turn); halt {
			return reason, err
		}

		o.setState(StateTurnComplete)
		score := o.updateConvergence(conv)
		o.publish(core.NewTurnCompleted(turn, score))
		o.logger.Debug("turn completed", "turn", turn, "convergence_score", score)

		detection := o.checkAttractors(conv, turn)

		if o.opts.CheckpointInterval > 0 && turn%o.opts.CheckpointInterval == 0 {
			o.saveCheckpoint(conv, turn)
		}

		if reason, halt := o.evaluateHalts(conv, turn, score, detection); halt {
			return reason, nil
		}

		if o.opts.ManualMode {
			o.setState(StatePaused)
			if err := o.awaitStep(ctx); err != nil {
				o.pause(conv, turn)
				return EndInterrupted, nil
			}
		}
	}
}

// evaluateHalts applies the post-turn halt conditions in priority order:
// convergence, then attractor action, then the turn budget.
func (o *Orchestrator) evaluateHalts(conv *core.Conversation, turn int, score float64, detection *attractor.Detection) (EndReason, bool) {
	o.mu.Lock()
	armed := o.armed
	if !armed && score < o.opts.ConvergenceRearm {
		o.armed = true
	}
	if armed && score >= o.opts.ConvergenceThreshold {
		o.armed = false
	}
	o.mu.Unlock()

	if armed && score >= o.opts.ConvergenceThreshold {
		o.logger.Warn("high convergence, pausing", "turn", turn, "score", score)
		o.pause(conv, turn)
		return EndHighConvergence, true
	}

	if detection != nil {
		switch o.opts.AttractorAction {
		case ActionStop:
			o.setState(StateStopped)
			return EndAttractorStop, true
		case ActionPause:
			o.pause(conv, turn)
			return EndAttractorStop, true
		default:
			o.logger.Warn("attractor detected, continuing",
				"turn", turn, "type", detection.Type, "confidence", detection.Confidence)
		}
	}

	if turn >= o.opts.MaxTurns {
		o.setState(StateStopped)
		return EndMaxTurns, true
	}
	return "", false
}

// captureInto captures one agent response and applies its outcome to the
// conversation. halt=true means the run must return with the given reason.
func (o *Orchestrator) captureInto(ctx context.Context, conv *core.Conversation, agent core.Agent, turn int) (EndReason, error, bool) {
	res := o.capture(ctx, conv, agent)

	switch res.outcome {
	case outcomeOK:
		conv.Append(res.msg)
		o.publish(core.NewMessageCompleted(res.msg))
		o.logger.Debug("message captured",
			"agent_id", agent.ID, "tokens", res.msg.TokenCount, "duration", res.msg.Duration)
		return "", nil, false

	case outcomeInterrupted:
		// Preserve whatever arrived before the interrupt, skip the paired
		// agent, and leave the run resumable.
		conv.Append(res.msg)
		o.publish(core.NewMessageCompleted(res.msg))
		o.logger.Info("capture interrupted", "agent_id", agent.ID, "turn", turn)
		o.pause(conv, turn)
		return EndInterrupted, nil, true

	case outcomeTimeout:
		o.logger.Error("response timed out", "agent_id", agent.ID, "turn", turn, "timeout", o.opts.ResponseTimeout)
		o.pause(conv, turn)
		return EndTimeout, res.err, true

	case outcomeCanceled:
		o.pause(conv, turn)
		return EndInterrupted, nil, true

	default:
		return o.handleProviderError(conv, agent, turn, res.err)
	}
}

func (o *Orchestrator) handleProviderError(conv *core.Conversation, agent core.Agent, turn int, err error) (EndReason, error, bool) {
	class := provider.ClassifyError(err)
	wrapped := fmt.Errorf("agent %s: %w", agent.ID, err)

	switch {
	case class == provider.ClassContextLimit:
		o.logger.Error("provider rejected transcript size", "agent_id", agent.ID, "turn", turn, "error", err)
		o.pause(conv, turn)
		return EndContextLimit, wrapped, true

	case class.Retryable():
		o.logger.Warn("retryable provider error, pausing",
			"agent_id", agent.ID, "turn", turn, "class", string(class), "error", err)
		o.pause(conv, turn)
		return EndAPIError, wrapped, true

	default:
		o.logger.Error("fatal provider error",
			"agent_id", agent.ID, "turn", turn, "class", string(class), "error", err)
		o.setState(StateStopped)
		return EndAPIError, wrapped, true
	}
}

// guardContext pauses before a provider call that could not fit the
// transcript plus the response budget into the agent's context window.
func (o *Orchestrator) guardContext(conv *core.Conversation, agent core.Agent, turn int) (EndReason, bool) {
	window := agent.Provider.Info().ContextWindow
	if window <= 0 {
		return "", false
	}
	estimate := core.EstimateTokens(conv.InitialPrompt) + core.EstimateTokens(o.opts.SystemPrompt) + o.opts.MaxResponseTokens
	for _, m := range conv.Messages() {
		estimate += core.EstimateTokens(m.Content)
	}
	if estimate < window {
		return "", false
	}
	o.logger.Warn("context window exhausted, pausing",
		"agent_id", agent.ID, "turn", turn, "estimated_tokens", estimate, "context_window", window)
	o.pause(conv, turn)
	return EndContextLimit, true
}

// pause checkpoints (best effort) and marks the run resumable.
func (o *Orchestrator) pause(conv *core.Conversation, turn int) {
	o.saveCheckpoint(conv, turn)
	o.setState(StatePaused)
}

func (o *Orchestrator) saveCheckpoint(conv *core.Conversation, turn int) {
	if o.opts.Checkpoints == nil {
		return
	}
	snap := checkpoint.FromConversation(conv, o.opts.MaxTurns)
	locator, err := o.opts.Checkpoints.Save(snap)
	if err != nil {
		// Never abort the run over checkpoint IO; the next interval retries.
		o.logger.Error("checkpoint save failed", "turn", turn, "error", err)
		return
	}
	o.publish(core.NewCheckpointSaved(turn, locator))
	o.logger.Debug("checkpoint saved", "turn", turn, "locator", locator)
}

func (o *Orchestrator) applyInjections(conv *core.Conversation) {
	o.mu.Lock()
	pending := o.injections
	o.injections = nil
	o.mu.Unlock()

	for _, content := range pending {
		m := core.NewSystemMessage(content)
		conv.Append(m)
		o.publish(core.NewMessageCompleted(m))
		o.logger.Info("mediator message injected", "length", len(content))
	}
}

// updateConvergence scores the just-completed turn. A scorer panic degrades
// to a zero score rather than ending the run.
func (o *Orchestrator) updateConvergence(conv *core.Conversation) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("convergence scorer panicked", "panic", r)
			score = 0
		}
	}()
	return o.scorer.Calculate(conv.Messages(), o.agentA.ID, o.agentB.ID)
}

// checkAttractors runs the detector on its cadence. A detector panic
// degrades to no detection.
func (o *Orchestrator) checkAttractors(conv *core.Conversation, turn int) (det *attractor.Detection) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("attractor detector panicked", "panic", r)
			det = nil
		}
	}()
	if !o.attractors.Due(turn) {
		return nil
	}
	agentMessages := conv.AgentMessages()
	contents := make([]string, len(agentMessages))
	for i, m := range agentMessages {
		contents[i] = m.Content
	}
	det = o.attractors.Check(turn, contents)
	if det != nil {
		o.publish(core.NewAttractorDetected(turn, det.Type, det.Signature, det.Confidence, det.Description))
	}
	return det
}

// awaitStep blocks until Step is called, the interrupt fires, or the
// context ends.
func (o *Orchestrator) awaitStep(ctx context.Context) error {
	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.stepCh:
			return nil
		case <-ticker.C:
			if o.opts.Interrupt.Poll() {
				return fmt.Errorf("interrupted while paused")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// publish sends an event to the sink, isolating sink panics from the loop.
func (o *Orchestrator) publish(ev core.Event) {
	if o.opts.Sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("event sink panicked", "type", ev.EventType(), "panic", r)
		}
	}()
	o.opts.Sink.Publish(ev)
}
