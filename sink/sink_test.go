package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/logging"
)

var (
	_ core.EventSink = (*Memory)(nil)
	_ core.EventSink = (*Logging)(nil)
	_ core.EventSink = (*Fanout)(nil)
	_ core.EventSink = (*WebSocketHub)(nil)
)

func TestMemory_RecordsInOrder(t *testing.T) {
	m := NewMemory()
	m.Publish(core.NewTurnStarted(1))
	m.Publish(core.NewTurnCompleted(1, 0.42))
	m.Publish(core.NewTurnStarted(2))

	events := m.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "turn_start", events[0].EventType())
	assert.Equal(t, "turn_complete", events[1].EventType())
	assert.Equal(t, "turn_start", events[2].EventType())

	starts := m.EventsOfType("turn_start")
	require.Len(t, starts, 2)

	m.Reset()
	assert.Empty(t, m.Events())
}

func TestMemory_EventsReturnsCopy(t *testing.T) {
	m := NewMemory()
	m.Publish(core.NewTurnStarted(1))
	events := m.Events()
	events[0] = core.NewTurnStarted(99)
	assert.Equal(t, 1, m.Events()[0].(core.TurnStarted).Turn)
}

type panickySink struct{}

func (panickySink) Publish(core.Event) { panic("sink exploded") }

func TestFanout_IsolatesPanics(t *testing.T) {
	m := NewMemory()
	f := NewFanout(panickySink{}, m, nil)

	assert.NotPanics(t, func() {
		f.Publish(core.NewTurnStarted(1))
	})
	assert.Len(t, m.Events(), 1, "sibling sink must still receive the event")
}

func TestLogging_Publish(t *testing.T) {
	assert.NotPanics(t, func() {
		l := NewLogging(logging.NoOpLogger{})
		l.Publish(core.NewTurnStarted(3))
		l.Publish(core.NewTurnCompleted(3, 0.5))
		l.Publish(core.NewConversationEnded(3, 2*time.Second, "max_turns"))
		l.Publish(core.NewCheckpointSaved(3, "/tmp/ck.json"))
	})

	assert.NotPanics(t, func() {
		NewLogging(nil).Publish(core.NewTurnStarted(1))
	})
}
