// Package limiter paces outbound provider calls against per-provider
// requests-per-minute and tokens-per-minute budgets using a trailing
// 60-second sliding window, and enforces a pressure-scaled cooldown after a
// provider reports overload.
//
// One Limiter instance is shared by all conversations in a process.
// Per-provider state is independently locked, so acquisitions for different
// providers never serialize against each other.
package limiter
