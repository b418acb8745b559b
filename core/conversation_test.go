package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversation_AppendAndTurnCount(t *testing.T) {
	conv := NewConversation(Agent{ID: "a"}, Agent{ID: "b"}, "hello")

	assert.Equal(t, 0, conv.TurnCount())

	conv.Append(NewUserMessage("hello"))
	conv.Append(NewMessage("a", "hi there"))
	assert.Equal(t, 0, conv.TurnCount())

	conv.Append(NewMessage("b", "hello back"))
	assert.Equal(t, 1, conv.TurnCount())

	// System and user messages never count toward turns.
	conv.Append(NewSystemMessage("stay on topic"))
	conv.Append(NewUserMessage("mediator aside"))
	assert.Equal(t, 1, conv.TurnCount())

	conv.Append(NewMessage("a", "sure"))
	conv.Append(NewMessage("b", "agreed"))
	assert.Equal(t, 2, conv.TurnCount())
}

func TestConversation_AgentMessagesExcludesSystemAndUser(t *testing.T) {
	conv := NewConversation(Agent{ID: "a"}, Agent{ID: "b"}, "p")
	conv.Append(NewUserMessage("p"))
	conv.Append(NewMessage("a", "one"))
	conv.Append(NewSystemMessage("note"))
	conv.Append(NewMessage("b", "two"))

	msgs := conv.AgentMessages()
	assert.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	conv := NewConversation(Agent{ID: "a"}, Agent{ID: "b"}, "p")
	conv.Append(NewMessage("a", "original"))

	msgs := conv.Messages()
	msgs[0].Content = "mutated"

	fresh := conv.Messages()
	assert.Equal(t, "original", fresh[0].Content)
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation(Agent{ID: "a", Model: "m1"}, Agent{ID: "b", Model: "m2"}, "p")
	conv.Append(NewMessage("a", "one"))

	clone := conv.Clone()
	clone.Append(NewMessage("b", "two"))

	assert.Equal(t, 1, conv.Len())
	assert.Equal(t, 2, clone.Len())
	assert.Equal(t, conv.ID, clone.ID)
}

func TestConversation_Last(t *testing.T) {
	conv := NewConversation(Agent{ID: "a"}, Agent{ID: "b"}, "p")

	_, ok := conv.Last()
	assert.False(t, ok)

	conv.Append(NewMessage("a", "one"))
	conv.Append(NewMessage("b", "two"))
	last, ok := conv.Last()
	assert.True(t, ok)
	assert.Equal(t, "two", last.Content)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))
}
