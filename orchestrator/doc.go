// Package orchestrator drives the alternating turn loop between two agents.
// It captures streamed responses with cooperative interruption, paces calls
// through the rate limiter, consults the convergence scorer and attractor
// detector after every turn, and checkpoints conversation state so a paused
// run can be resumed.
package orchestrator
