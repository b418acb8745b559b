package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/provider"
)

var _ Store = (*FileStore)(nil)

func testAgents() (core.Agent, core.Agent) {
	pa := provider.NewScripted(nil)
	pb := provider.NewScripted(nil)
	return core.Agent{ID: "agent_a", Model: "model-a", Provider: pa},
		core.Agent{ID: "agent_b", Model: "model-b", Provider: pb}
}

func testConversation(t *testing.T) *core.Conversation {
	t.Helper()
	a, b := testAgents()
	conv := core.NewConversation(a, b, "Discuss the weather.")
	m1 := core.NewMessage("agent_a", "It rains a lot here.")
	m2 := core.NewMessage("agent_b", "Sunshine on my side.")
	conv.Append(m1)
	conv.Append(m2)
	return conv
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	conv := testConversation(t)
	snap := FromConversation(conv, 20)
	snap.Metadata = map[string]string{"note": "round trip"}

	locator, err := store.Save(snap)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(locator, "-turn0001.json"))

	loaded, err := store.Load(locator)
	require.NoError(t, err)
	assert.Equal(t, Version, loaded.Version)
	assert.Equal(t, conv.ID, loaded.ConversationID)
	assert.Equal(t, "model-a", loaded.AgentA.Model)
	assert.Equal(t, "model-b", loaded.AgentB.Model)
	assert.Equal(t, "scripted", loaded.AgentA.Provider)
	assert.Equal(t, 20, loaded.MaxTurns)
	assert.Equal(t, 1, loaded.TurnCount)
	assert.Equal(t, "round trip", loaded.Metadata["note"])

	a, b := testAgents()
	restored, err := loaded.Conversation(a, b)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, restored.ID)
	assert.Equal(t, conv.InitialPrompt, restored.InitialPrompt)
	assert.Equal(t, conv.TurnCount(), restored.TurnCount())

	want := conv.Messages()
	got := restored.Messages()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Role, got[i].Role)
		assert.Equal(t, want[i].Content, got[i].Content)
		assert.Equal(t, want[i].AgentID, got[i].AgentID)
	}
}

func TestConversation_AgentMismatch(t *testing.T) {
	conv := testConversation(t)
	snap := FromConversation(conv, 10)

	a, b := testAgents()
	a.ID = "someone_else"
	_, err := snap.Conversation(a, b)
	assert.Error(t, err)
}

func TestSave_NoPartialFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	conv := testConversation(t)
	_, err = store.Save(FromConversation(conv, 10))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestLoad_NotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(filepath.Join(store.dir, "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_RejectsFutureVersion(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "conversation_id": "c1"}`), 0o644))

	_, err = store.Load(path)
	assert.ErrorContains(t, err, "unsupported snapshot version")
}

func TestLoad_RejectsCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1,`), 0o644))

	_, err = store.Load(path)
	assert.ErrorContains(t, err, "decode snapshot")
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	conv := testConversation(t)
	snap := FromConversation(conv, 50)

	first, err := store.Save(snap)
	require.NoError(t, err)

	snap.TurnCount = 7
	second, err := store.Save(snap)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	latest, err := store.Latest(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	_, err = store.Latest("no-such-conversation")
	assert.ErrorIs(t, err, ErrNotFound)
}
