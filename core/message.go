package core

import (
	"time"
)

// Role identifies the conversational role of a message author.
type Role string

const (
	// RoleUser marks the initial prompt injected by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by one of the two agents.
	RoleAssistant Role = "assistant"
	// RoleSystem marks mediator/intervention messages. System messages never
	// advance the turn state machine and are excluded from turn counting and
	// from the convergence/attractor analysis windows.
	RoleSystem Role = "system"
)

// Message is an immutable conversational record. After emission it should be
// treated as read-only; the Conversation owns the append-only list.
type Message struct {
	ID          string        `json:"id"`
	Role        Role          `json:"role"`
	Content     string        `json:"content"`
	AgentID     string        `json:"agent_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Interrupted bool          `json:"interrupted,omitempty"`
	TokenCount  int           `json:"token_count,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// NewMessage creates an assistant message authored by the given agent.
func NewMessage(agentID, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleAssistant,
		Content:   content,
		AgentID:   agentID,
		Timestamp: time.Now().UTC(),
	}
}

// NewSystemMessage creates a mediator/intervention message.
func NewSystemMessage(content string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleSystem,
		Content:   content,
		AgentID:   "mediator",
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates the caller-authored prompt message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Content:   content,
		AgentID:   "user",
		Timestamp: time.Now().UTC(),
	}
}

// IsSystem reports whether the message is a mediator/system message.
func (m Message) IsSystem() bool { return m.Role == RoleSystem }

// Turn is the ephemeral pairing of one message from each agent plus an
// optional intervention. It is surfaced through events and never persisted
// as a standalone entity.
type Turn struct {
	Number       int
	AgentA       Message
	AgentB       Message
	Intervention *Message
}
