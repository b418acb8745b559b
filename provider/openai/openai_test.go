package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleykit/parley/core"
)

// Interface compliance (compile-time assertion)
var _ core.Provider = (*Provider)(nil)

func TestBuildMessages(t *testing.T) {
	out := buildMessages(core.Request{
		System: "you are agent B",
		Messages: []core.Message{
			{Role: core.RoleUser, Content: "prompt"},
			{Role: core.RoleAssistant, Content: "reply"},
			{Role: core.RoleUser, Content: ""},
		},
	})
	// system + prompt + reply; the empty message is dropped.
	assert.Len(t, out, 3)
}

func TestInfo(t *testing.T) {
	p := New(func(o *Options) {
		o.APIKey = "test-key"
		o.Model = "gpt-4o"
	})
	info := p.Info()
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "gpt-4o", info.Name)
	assert.Equal(t, 128_000, info.ContextWindow)
}
