package core

import (
	"time"
)

// Event is one of a closed set of lifecycle notifications published by the
// orchestrator. The set is sealed: only the variants in this file implement
// the interface, so sinks can switch exhaustively.
//
// Events are values; after publication they must be treated as immutable.
type Event interface {
	// EventType returns the stable wire identifier of the variant.
	EventType() string
	// OccurredAt returns the emission timestamp (UTC).
	OccurredAt() time.Time

	isEvent()
}

// eventMeta carries the fields shared by every variant.
type eventMeta struct {
	Timestamp time.Time `json:"-"`
}

func (m eventMeta) OccurredAt() time.Time { return m.Timestamp }
func (eventMeta) isEvent()                {}

func newMeta() eventMeta { return eventMeta{Timestamp: time.Now().UTC()} }

// ConversationStarted is published once before the first turn.
type ConversationStarted struct {
	eventMeta
	ConversationID string `json:"conversation_id"`
	ModelA         string `json:"model_a"`
	ModelB         string `json:"model_b"`
	InitialPrompt  string `json:"initial_prompt"`
	MaxTurns       int    `json:"max_turns"`
}

// EventType implements Event.
func (ConversationStarted) EventType() string { return "conversation_start" }

// TurnStarted is published at the beginning of each turn.
type TurnStarted struct {
	eventMeta
	Turn int `json:"turn"`
}

// EventType implements Event.
func (TurnStarted) EventType() string { return "turn_start" }

// MessageCompleted is published after each fully captured (or interrupted)
// message, including mediator interventions.
type MessageCompleted struct {
	eventMeta
	AgentID     string        `json:"agent_id"`
	Content     string        `json:"content"`
	Duration    time.Duration `json:"duration"`
	Tokens      int           `json:"tokens"`
	Interrupted bool          `json:"interrupted,omitempty"`
}

// EventType implements Event.
func (MessageCompleted) EventType() string { return "message_complete" }

// TurnCompleted is published once both agents have spoken in a turn.
type TurnCompleted struct {
	eventMeta
	Turn             int     `json:"turn"`
	ConvergenceScore float64 `json:"convergence_score"`
}

// EventType implements Event.
func (TurnCompleted) EventType() string { return "turn_complete" }

// AttractorDetected is published when the structural attractor detector
// reports a qualifying pattern.
type AttractorDetected struct {
	eventMeta
	Turn        int     `json:"turn"`
	Type        string  `json:"type"`
	Signature   string  `json:"signature"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// EventType implements Event.
func (AttractorDetected) EventType() string { return "attractor_detected" }

// CheckpointSaved is published after a successful checkpoint write.
type CheckpointSaved struct {
	eventMeta
	Turn    int    `json:"turn"`
	Locator string `json:"locator"`
}

// EventType implements Event.
func (CheckpointSaved) EventType() string { return "checkpoint_saved" }

// ConversationEnded is published exactly once when the run terminates.
type ConversationEnded struct {
	eventMeta
	TotalTurns int           `json:"total_turns"`
	Duration   time.Duration `json:"duration"`
	Reason     string        `json:"reason"`
}

// EventType implements Event.
func (ConversationEnded) EventType() string { return "conversation_end" }

// NewConversationStarted builds a ConversationStarted event for a conversation.
func NewConversationStarted(c *Conversation, maxTurns int) ConversationStarted {
	return ConversationStarted{
		eventMeta:      newMeta(),
		ConversationID: c.ID,
		ModelA:         c.AgentA.Model,
		ModelB:         c.AgentB.Model,
		InitialPrompt:  c.InitialPrompt,
		MaxTurns:       maxTurns,
	}
}

// NewTurnStarted builds a TurnStarted event.
func NewTurnStarted(turn int) TurnStarted {
	return TurnStarted{eventMeta: newMeta(), Turn: turn}
}

// NewMessageCompleted builds a MessageCompleted event from a captured message.
func NewMessageCompleted(m Message) MessageCompleted {
	return MessageCompleted{
		eventMeta:   newMeta(),
		AgentID:     m.AgentID,
		Content:     m.Content,
		Duration:    m.Duration,
		Tokens:      m.TokenCount,
		Interrupted: m.Interrupted,
	}
}

// NewAttractorDetected builds an AttractorDetected event.
func NewAttractorDetected(turn int, typeLabel, signature string, confidence float64, description string) AttractorDetected {
	return AttractorDetected{
		eventMeta:   newMeta(),
		Turn:        turn,
		Type:        typeLabel,
		Signature:   signature,
		Confidence:  confidence,
		Description: description,
	}
}

// NewCheckpointSaved builds a CheckpointSaved event.
func NewCheckpointSaved(turn int, locator string) CheckpointSaved {
	return CheckpointSaved{eventMeta: newMeta(), Turn: turn, Locator: locator}
}

// NewTurnCompleted builds a TurnCompleted event.
func NewTurnCompleted(turn int, score float64) TurnCompleted {
	return TurnCompleted{eventMeta: newMeta(), Turn: turn, ConvergenceScore: score}
}

// NewConversationEnded builds a ConversationEnded event.
func NewConversationEnded(totalTurns int, duration time.Duration, reason string) ConversationEnded {
	return ConversationEnded{eventMeta: newMeta(), TotalTurns: totalTurns, Duration: duration, Reason: reason}
}

// EventSink consumes lifecycle events. Publication is fire-and-forget from
// the orchestrator's perspective: implementations must not block the turn
// loop and must never panic into the caller.
type EventSink interface {
	Publish(Event)
}

// Envelope is the serialization boundary for events. Inside the process
// events stay typed; only sinks that leave the process marshal them.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      Event     `json:"data"`
}

// NewEnvelope wraps an event for serialization.
func NewEnvelope(ev Event) Envelope {
	return Envelope{Type: ev.EventType(), Timestamp: ev.OccurredAt(), Data: ev}
}
