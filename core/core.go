package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for conversations and messages.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

// EstimateTokens approximates the token count of a text using the common
// four-characters-per-token heuristic. Exact tokenizer fidelity is a
// non-goal; the estimate only feeds rate-limit pacing and the proactive
// context-limit check, both of which carry their own safety margins.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
