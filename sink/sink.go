package sink

import (
	"sync"

	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/logging"
)

// Memory records events in publication order.
type Memory struct {
	mu     sync.Mutex
	events []core.Event
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory { return &Memory{} }

// Publish implements core.EventSink.
func (m *Memory) Publish(ev core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns published events matching the given type identifier.
func (m *Memory) EventsOfType(eventType string) []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Event
	for _, ev := range m.events {
		if ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards all recorded events.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// Logging writes each event through a logging.Logger at info level.
type Logging struct {
	logger logging.Logger
}

// NewLogging creates a sink backed by the given logger.
func NewLogging(logger logging.Logger) *Logging {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Logging{logger: logger}
}

// Publish implements core.EventSink.
func (l *Logging) Publish(ev core.Event) {
	switch e := ev.(type) {
	case core.ConversationStarted:
		l.logger.Info("conversation started",
			"conversation_id", e.ConversationID, "model_a", e.ModelA, "model_b", e.ModelB, "max_turns", e.MaxTurns)
	case core.TurnStarted:
		l.logger.Info("turn started", "turn", e.Turn)
	case core.MessageCompleted:
		l.logger.Info("message completed",
			"agent_id", e.AgentID, "tokens", e.Tokens, "duration", e.Duration, "interrupted", e.Interrupted)
	case core.TurnCompleted:
		l.logger.Info("turn completed", "turn", e.Turn, "convergence_score", e.ConvergenceScore)
	case core.AttractorDetected:
		l.logger.Warn("attractor detected",
			"turn", e.Turn, "type", e.Type, "signature", e.Signature, "confidence", e.Confidence)
	case core.CheckpointSaved:
		l.logger.Info("checkpoint saved", "turn", e.Turn, "locator", e.Locator)
	case core.ConversationEnded:
		l.logger.Info("conversation ended",
			"total_turns", e.TotalTurns, "duration", e.Duration, "reason", e.Reason)
	default:
		l.logger.Info("event", "type", ev.EventType())
	}
}

// Fanout publishes each event to every child sink. A panicking child is
// isolated so it cannot take down the turn loop or its siblings.
type Fanout struct {
	sinks []core.EventSink
}

// NewFanout combines sinks into one. Nil entries are skipped.
func NewFanout(sinks ...core.EventSink) *Fanout {
	out := make([]core.EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out}
}

// Publish implements core.EventSink.
func (f *Fanout) Publish(ev core.Event) {
	for _, s := range f.sinks {
		publishSafely(s, ev)
	}
}

func publishSafely(s core.EventSink, ev core.Event) {
	defer func() {
		_ = recover()
	}()
	s.Publish(ev)
}
