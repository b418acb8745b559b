package core

import (
	"sync"
	"time"
)

// Conversation is the ordered transcript of a paired-agent dialogue. It is
// owned exclusively by one running orchestrator instance but guards its
// message list so observers (event sinks, checkpointing) can read safely.
//
// Contract:
//   - Messages are append-only and totally ordered by emission
//   - Reads return defensive copies to avoid external mutation
//   - TurnCount is floor(non-system message count / 2)
type Conversation struct {
	ID            string    `json:"id"`
	AgentA        Agent     `json:"-"`
	AgentB        Agent     `json:"-"`
	InitialPrompt string    `json:"initial_prompt"`
	Started       time.Time `json:"started"`

	messages []Message
	mu       sync.RWMutex
}

// NewConversation creates an empty conversation between two agents.
func NewConversation(agentA, agentB Agent, initialPrompt string) *Conversation {
	return &Conversation{
		ID:            NewID(),
		AgentA:        agentA,
		AgentB:        agentB,
		InitialPrompt: initialPrompt,
		Started:       time.Now().UTC(),
	}
}

// Append adds a message to the transcript.
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// Messages returns a defensive copy of the full transcript.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// AgentMessages returns a copy of the transcript filtered to non-system
// messages, the view the convergence and attractor analyses consume.
func (c *Conversation) AgentMessages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// TurnCount returns the number of completed turns: one turn is exactly one
// assistant message from each agent. User and system messages never count.
func (c *Conversation) TurnCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.messages {
		if m.Role == RoleAssistant {
			n++
		}
	}
	return n / 2
}

// Last returns the most recent message and true, or a zero message and false
// for an empty transcript.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Clone returns a deep copy safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{
		ID:            c.ID,
		AgentA:        c.AgentA,
		AgentB:        c.AgentB,
		InitialPrompt: c.InitialPrompt,
		Started:       c.Started,
		messages:      make([]Message, len(c.messages)),
	}
	copy(clone.messages, c.messages)
	return clone
}
