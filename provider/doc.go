// Package provider contains implementations of core.Provider plus the error
// classification shared by all of them. Vendor adapters live in subpackages
// (anthropic, openai); ScriptedProvider is a deterministic in-memory
// implementation useful for tests and examples.
package provider
