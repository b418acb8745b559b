package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time assertions: the closed set of event variants.
var (
	_ Event = ConversationStarted{}
	_ Event = TurnStarted{}
	_ Event = MessageCompleted{}
	_ Event = TurnCompleted{}
	_ Event = AttractorDetected{}
	_ Event = CheckpointSaved{}
	_ Event = ConversationEnded{}
)

func TestEnvelope_Marshal(t *testing.T) {
	ev := NewTurnCompleted(4, 0.73)
	env := NewEnvelope(ev)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded struct {
		Type string `json:"type"`
		Data struct {
			Turn             int     `json:"turn"`
			ConvergenceScore float64 `json:"convergence_score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "turn_complete", decoded.Type)
	assert.Equal(t, 4, decoded.Data.Turn)
	assert.InDelta(t, 0.73, decoded.Data.ConvergenceScore, 1e-9)
}

func TestEventConstructors(t *testing.T) {
	conv := NewConversation(Agent{ID: "a", Model: "m-a"}, Agent{ID: "b", Model: "m-b"}, "prompt")
	start := NewConversationStarted(conv, 30)
	assert.Equal(t, "conversation_start", start.EventType())
	assert.Equal(t, "m-a", start.ModelA)
	assert.Equal(t, "m-b", start.ModelB)
	assert.Equal(t, 30, start.MaxTurns)
	assert.False(t, start.OccurredAt().IsZero())

	msg := NewMessage("a", "hi")
	msg.TokenCount = 7
	mc := NewMessageCompleted(msg)
	assert.Equal(t, "a", mc.AgentID)
	assert.Equal(t, 7, mc.Tokens)
}

func TestFlagSignal(t *testing.T) {
	sig := NewFlagSignal()
	assert.False(t, sig.Poll())
	sig.Trigger()
	assert.True(t, sig.Poll())
	sig.Reset()
	assert.False(t, sig.Poll())
}

func TestContextSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := NewContextSignal(ctx)
	assert.False(t, sig.Poll())
	cancel()
	assert.True(t, sig.Poll())
}
