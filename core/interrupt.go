package core

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
)

// InterruptSignal is an out-of-band stop request observable without blocking.
// Poll must be non-blocking, must never panic, and must be cheap enough to
// call at ~10 Hz while a response stream is being consumed.
type InterruptSignal interface {
	Poll() bool
}

// FlagSignal is an InterruptSignal backed by an atomic flag. Useful for tests
// and for wiring a manual "pause" control.
type FlagSignal struct {
	set atomic.Bool
}

// NewFlagSignal creates an unset FlagSignal.
func NewFlagSignal() *FlagSignal { return &FlagSignal{} }

// Trigger sets the interrupt flag. Safe for concurrent use.
func (f *FlagSignal) Trigger() { f.set.Store(true) }

// Reset clears the interrupt flag, re-arming the signal.
func (f *FlagSignal) Reset() { f.set.Store(false) }

// Poll implements InterruptSignal.
func (f *FlagSignal) Poll() bool { return f.set.Load() }

// ContextSignal adapts a context to the InterruptSignal contract.
type ContextSignal struct {
	ctx context.Context
}

// NewContextSignal wraps ctx so cancellation reads as an interrupt.
func NewContextSignal(ctx context.Context) *ContextSignal {
	return &ContextSignal{ctx: ctx}
}

// Poll implements InterruptSignal.
func (c *ContextSignal) Poll() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// NotifySignal is an InterruptSignal driven by OS signals. The first signal
// requests a graceful pause; Escalated reports whether a second signal has
// arrived, which callers should treat as a hard stop.
type NotifySignal struct {
	ch    chan os.Signal
	count atomic.Int32
}

// NewNotifySignal subscribes to the given signals (SIGINT if none given).
func NewNotifySignal(signals ...os.Signal) *NotifySignal {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt}
	}
	n := &NotifySignal{ch: make(chan os.Signal, 2)}
	signal.Notify(n.ch, signals...)
	return n
}

// Poll implements InterruptSignal. It drains any pending signal deliveries.
func (n *NotifySignal) Poll() bool {
	for {
		select {
		case <-n.ch:
			n.count.Add(1)
		default:
			return n.count.Load() > 0
		}
	}
}

// Escalated reports whether more than one signal has been received.
func (n *NotifySignal) Escalated() bool {
	n.Poll()
	return n.count.Load() > 1
}

// Stop unsubscribes from signal delivery.
func (n *NotifySignal) Stop() { signal.Stop(n.ch) }

// NopSignal never reports an interrupt.
type NopSignal struct{}

// Poll implements InterruptSignal.
func (NopSignal) Poll() bool { return false }
