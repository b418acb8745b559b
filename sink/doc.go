// Package sink provides core.EventSink implementations: in-memory capture
// for tests and post-run export, structured-log emission, multi-sink fanout,
// and a WebSocket hub that streams event envelopes to external observers.
package sink
