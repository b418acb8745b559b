// Package core provides the foundational domain types used by Parley. It
// defines the core abstractions for:
//
//   - Messages (immutable conversational records)
//   - Conversations (ordered paired-agent transcripts)
//   - Agents (model + provider handles)
//   - Lifecycle events (a closed set of typed variants)
//   - Interrupt signals (cheap, non-blocking cooperative cancellation)
//
// The package intentionally keeps implementation concerns (providers, rate
// limiting, orchestration, persistence) out of scope, exposing small types and
// interfaces so higher layers can be composed and tested independently.
package core
