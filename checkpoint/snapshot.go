package checkpoint

import (
	"fmt"
	"time"

	"github.com/parleykit/parley/core"
)

// Version is the current snapshot format version. Load rejects snapshots
// written with a newer format.
const Version = 1

// AgentRef is the serializable identity of an agent. The live provider
// handle is supplied again on resume.
type AgentRef struct {
	ID       string `json:"id"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// Snapshot is a self-describing serialization of a conversation in progress.
type Snapshot struct {
	Version        int               `json:"version"`
	ConversationID string            `json:"conversation_id"`
	AgentA         AgentRef          `json:"agent_a"`
	AgentB         AgentRef          `json:"agent_b"`
	InitialPrompt  string            `json:"initial_prompt"`
	Started        time.Time         `json:"started"`
	MaxTurns       int               `json:"max_turns"`
	TurnCount      int               `json:"turn_count"`
	Messages       []core.Message    `json:"messages"`
	PausedAt       time.Time         `json:"paused_at"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// FromConversation captures the current state of a conversation. PausedAt is
// stamped with the capture time.
func FromConversation(conv *core.Conversation, maxTurns int) *Snapshot {
	return &Snapshot{
		Version:        Version,
		ConversationID: conv.ID,
		AgentA:         refOf(conv.AgentA),
		AgentB:         refOf(conv.AgentB),
		InitialPrompt:  conv.InitialPrompt,
		Started:        conv.Started,
		MaxTurns:       maxTurns,
		TurnCount:      conv.TurnCount(),
		Messages:       conv.Messages(),
		PausedAt:       time.Now().UTC(),
	}
}

// Conversation rehydrates the snapshot with live agent handles. The handles
// must correspond to the recorded agent IDs; models and providers may differ
// when the caller deliberately swaps them.
func (s *Snapshot) Conversation(agentA, agentB core.Agent) (*core.Conversation, error) {
	if agentA.ID != s.AgentA.ID || agentB.ID != s.AgentB.ID {
		return nil, fmt.Errorf("agent ids %q/%q do not match snapshot %q/%q",
			agentA.ID, agentB.ID, s.AgentA.ID, s.AgentB.ID)
	}
	conv := core.NewConversation(agentA, agentB, s.InitialPrompt)
	conv.ID = s.ConversationID
	conv.Started = s.Started
	for _, m := range s.Messages {
		conv.Append(m)
	}
	return conv, nil
}

// Validate checks structural integrity before a resume.
func (s *Snapshot) Validate() error {
	if s.Version > Version {
		return fmt.Errorf("unsupported snapshot version %d (max %d)", s.Version, Version)
	}
	if s.Version < 1 {
		return fmt.Errorf("invalid snapshot version %d", s.Version)
	}
	if s.ConversationID == "" {
		return fmt.Errorf("snapshot has no conversation id")
	}
	return nil
}

func refOf(a core.Agent) AgentRef {
	ref := AgentRef{ID: a.ID, Model: a.Model}
	if a.Provider != nil {
		ref.Provider = a.Provider.Info().Provider
	}
	return ref
}
