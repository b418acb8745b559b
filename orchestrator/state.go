package orchestrator

// State is the orchestrator's position in the turn lifecycle.
type State string

const (
	// StateIdle means no run has started yet.
	StateIdle State = "idle"
	// StateAwaitingA means agent A's response is being captured.
	StateAwaitingA State = "awaiting_a"
	// StateAwaitingB means agent B's response is being captured.
	StateAwaitingB State = "awaiting_b"
	// StateTurnComplete means both agents have spoken in the current turn.
	StateTurnComplete State = "turn_complete"
	// StatePaused means the run returned in a resumable condition.
	StatePaused State = "paused"
	// StateStopped means the run terminated and cannot be resumed.
	StateStopped State = "stopped"
)

// EndReason explains why a run returned.
type EndReason string

const (
	// EndMaxTurns is the natural end: the configured turn budget ran out.
	EndMaxTurns EndReason = "max_turns"
	// EndHighConvergence means the agents' styles converged past the
	// configured threshold.
	EndHighConvergence EndReason = "high_convergence"
	// EndAttractorStop means a structural attractor was detected and the
	// configured action halted the run.
	EndAttractorStop EndReason = "attractor_stop"
	// EndInterrupted means an out-of-band interrupt or context cancellation
	// paused the run.
	EndInterrupted EndReason = "interrupted"
	// EndContextLimit means the transcript no longer fits a provider's
	// context window.
	EndContextLimit EndReason = "context_limit"
	// EndAPIError means a provider call failed.
	EndAPIError EndReason = "api_error"
	// EndTimeout means a response exceeded the configured timeout.
	EndTimeout EndReason = "timeout"
)

// Resumable reports whether a run that ended for this reason left a
// checkpointable, continuable conversation.
func (r EndReason) Resumable() bool {
	switch r {
	case EndInterrupted, EndContextLimit, EndTimeout, EndHighConvergence:
		return true
	default:
		return false
	}
}

// AttractorAction selects what the orchestrator does when the detector
// reports a pattern.
type AttractorAction string

const (
	// ActionStop ends the run.
	ActionStop AttractorAction = "stop"
	// ActionPause checkpoints and returns in a resumable state.
	ActionPause AttractorAction = "pause"
	// ActionWarn logs the detection and continues.
	ActionWarn AttractorAction = "warn"
)
