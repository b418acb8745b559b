package provider

import "strings"

// Class buckets provider errors by how the orchestrator must react.
type Class string

const (
	// ClassRateLimit covers quota/429 style rejections. Retryable after backoff.
	ClassRateLimit Class = "rate_limit"
	// ClassOverloaded covers capacity/529 style rejections. Retryable after backoff.
	ClassOverloaded Class = "overloaded"
	// ClassTimeout covers deadline and connection timeouts. Retryable.
	ClassTimeout Class = "timeout"
	// ClassContextLimit covers prompt-too-long rejections. The conversation
	// cannot continue against this provider without truncation.
	ClassContextLimit Class = "context_limit"
	// ClassAuth covers authentication/authorization failures. Fatal.
	ClassAuth Class = "auth"
	// ClassBadRequest covers malformed-request rejections. Fatal.
	ClassBadRequest Class = "bad_request"
	// ClassUnknown covers everything else. Treated as fatal: retrying an
	// unrecognized failure risks burning budget in a loop.
	ClassUnknown Class = "unknown"
)

// Retryable reports whether the orchestrator may pause, checkpoint and
// resume after this class of error instead of ending the conversation.
func (c Class) Retryable() bool {
	switch c {
	case ClassRateLimit, ClassOverloaded, ClassTimeout:
		return true
	default:
		return false
	}
}

// classMatchers maps message substrings to classes. Ordered: first match
// wins, so the more specific markers come before the generic ones.
var classMatchers = []struct {
	substrings []string
	class      Class
}{
	{[]string{"rate limit", "rate_limit", "too many requests", "429", "quota"}, ClassRateLimit},
	{[]string{"overloaded", "capacity", "529", "503"}, ClassOverloaded},
	{[]string{"context length", "context_length", "maximum context", "too many tokens", "prompt is too long"}, ClassContextLimit},
	{[]string{"deadline exceeded", "timeout", "timed out"}, ClassTimeout},
	{[]string{"authentication", "unauthorized", "api key", "api_key", "401", "403", "permission"}, ClassAuth},
	{[]string{"invalid request", "invalid_request", "malformed", "400"}, ClassBadRequest},
}

// ClassifyError inspects an error's message and assigns it a Class. Provider
// SDKs surface failures as plain errors, so substring matching against the
// rendered message is the only portable signal.
func ClassifyError(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, m := range classMatchers {
		for _, s := range m.substrings {
			if strings.Contains(msg, s) {
				return m.class
			}
		}
	}
	return ClassUnknown
}
