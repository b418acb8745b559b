package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"

	"github.com/parleykit/parley/core"
)

// Interface compliance (compile-time assertion)
var _ core.Provider = (*Provider)(nil)

func TestBuildMessages_MergesAdjacentRoles(t *testing.T) {
	msgs := []core.Message{
		{Role: core.RoleUser, Content: "prompt"},
		{Role: core.RoleSystem, Content: "mediator note"},
		{Role: core.RoleAssistant, Content: "first"},
		{Role: core.RoleAssistant, Content: "second"},
		{Role: core.RoleUser, Content: "reply"},
	}

	out := buildMessages(msgs)

	// prompt+note merge into one user turn, both assistant messages merge,
	// trailing user turn stands alone.
	assert.Len(t, out, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, out[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, out[2].Role)
}

func TestBuildMessages_SkipsEmptyContent(t *testing.T) {
	out := buildMessages([]core.Message{
		{Role: core.RoleUser, Content: ""},
		{Role: core.RoleAssistant, Content: "only one"},
	})
	assert.Len(t, out, 1)
}

func TestInfo(t *testing.T) {
	p := New(func(o *Options) {
		o.APIKey = "test-key"
		o.ContextWindow = 1000
	})
	info := p.Info()
	assert.Equal(t, "anthropic", info.Provider)
	assert.Equal(t, 1000, info.ContextWindow)
	assert.NotEmpty(t, info.Name)
}
