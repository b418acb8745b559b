package testutil

import (
	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/provider"
)

// ConversationBuilder helps construct conversations with fluent chaining for
// tests. Example:
//
//	conv := NewConversationBuilder().
//		Prompt("Discuss tides.").
//		FromA("The tide comes in.").
//		FromB("And goes out again.").
//		Build()
//
// Agents default to scripted providers with IDs "agent_a" and "agent_b".
type ConversationBuilder struct {
	prompt   string
	agentA   core.Agent
	agentB   core.Agent
	messages []core.Message
}

// NewConversationBuilder creates a builder with two scripted default agents.
func NewConversationBuilder() *ConversationBuilder {
	return &ConversationBuilder{
		prompt: "Begin.",
		agentA: core.Agent{ID: "agent_a", Model: "model-a", Provider: provider.NewScripted(nil)},
		agentB: core.Agent{ID: "agent_b", Model: "model-b", Provider: provider.NewScripted(nil)},
	}
}

// Agents overrides both agent handles (chainable).
func (b *ConversationBuilder) Agents(agentA, agentB core.Agent) *ConversationBuilder {
	b.agentA = agentA
	b.agentB = agentB
	return b
}

// Prompt sets the initial prompt (chainable).
func (b *ConversationBuilder) Prompt(p string) *ConversationBuilder {
	b.prompt = p
	return b
}

// FromA appends an assistant message authored by agent A (chainable).
func (b *ConversationBuilder) FromA(content string) *ConversationBuilder {
	b.messages = append(b.messages, core.NewMessage(b.agentA.ID, content))
	return b
}

// FromB appends an assistant message authored by agent B (chainable).
func (b *ConversationBuilder) FromB(content string) *ConversationBuilder {
	b.messages = append(b.messages, core.NewMessage(b.agentB.ID, content))
	return b
}

// Turns appends n full turns, alternating the two contents (chainable).
func (b *ConversationBuilder) Turns(n int, contentA, contentB string) *ConversationBuilder {
	for i := 0; i < n; i++ {
		b.FromA(contentA)
		b.FromB(contentB)
	}
	return b
}

// Mediator appends a system message (chainable).
func (b *ConversationBuilder) Mediator(content string) *ConversationBuilder {
	b.messages = append(b.messages, core.NewSystemMessage(content))
	return b
}

// Message appends an arbitrary pre-built message (chainable).
func (b *ConversationBuilder) Message(m core.Message) *ConversationBuilder {
	b.messages = append(b.messages, m)
	return b
}

// Build returns a *core.Conversation with the accumulated transcript.
func (b *ConversationBuilder) Build() *core.Conversation {
	conv := core.NewConversation(b.agentA, b.agentB, b.prompt)
	for _, m := range b.messages {
		conv.Append(m)
	}
	return conv
}
