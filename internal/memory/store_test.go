package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

type recordingPersister struct {
	saves []*models.Session
}

func (r *recordingPersister) Save(s *models.Session) error {
	r.saves = append(r.saves, s)
	return nil
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	store := NewInMemoryStore(nil)

	sess, err := store.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())
}

func TestGetOrCreate_ReturnsExistingSessionForKnownID(t *testing.T) {
	store := NewInMemoryStore(nil)
	created, err := store.Create()
	require.NoError(t, err)

	got, err := store.GetOrCreate(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestGetOrCreate_EmptyIDCreatesNewSession(t *testing.T) {
	store := NewInMemoryStore(nil)
	sess, err := store.GetOrCreate("")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
}

func TestGet_UnknownIDReturnsNotFound(t *testing.T) {
	store := NewInMemoryStore(nil)
	_, err := store.Get("does-not-exist")
	require.Error(t, err)
}

func TestAppendMessage_RollsUpTotalsAgentsAndTools(t *testing.T) {
	store := NewInMemoryStore(nil)
	sess, err := store.Create()
	require.NoError(t, err)

	_, err = store.AppendMessage(sess.ID, models.Message{Role: models.RoleUser, Content: "hi"})
	require.NoError(t, err)

	updated, err := store.AppendMessage(sess.ID, models.Message{
		Role:    models.RoleAssistant,
		Content: "sure, let me check",
		Agent:   models.AgentCoder,
		ToolCalls: []models.ToolCall{
			{Name: "read_file"},
			{Name: "read_file"},
			{Name: "glob"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.TotalMessages)
	assert.Len(t, updated.Messages, updated.TotalMessages)
	assert.Equal(t, models.AgentCoder, updated.LastAgent)
	assert.Contains(t, updated.AgentsUsed, models.AgentCoder)
	assert.ElementsMatch(t, []string{"read_file", "glob"}, updated.ToolsUsed)
}

func TestAppendMessage_UnknownSessionReturnsNotFound(t *testing.T) {
	store := NewInMemoryStore(nil)
	_, err := store.AppendMessage("missing", models.Message{Role: models.RoleUser, Content: "hi"})
	require.Error(t, err)
}

func TestGetHistory_LimitReturnsMostRecentMessages(t *testing.T) {
	store := NewInMemoryStore(nil)
	sess, err := store.Create()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.AppendMessage(sess.ID, models.Message{Role: models.RoleUser, Content: "msg"})
		require.NoError(t, err)
	}

	history, err := store.GetHistory(sess.ID, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	full, err := store.GetHistory(sess.ID, 0)
	require.NoError(t, err)
	assert.Len(t, full, 5)
}

func TestUpdate_PersistsThroughConfiguredPersister(t *testing.T) {
	persister := &recordingPersister{}
	store := NewInMemoryStore(persister)
	sess, err := store.Create()
	require.NoError(t, err)

	sess.Title = "renamed"
	require.NoError(t, store.Update(sess))

	assert.NotEmpty(t, persister.saves)
	assert.Equal(t, "renamed", persister.saves[len(persister.saves)-1].Title)
}

func TestUpdate_UnknownSessionReturnsNotFound(t *testing.T) {
	store := NewInMemoryStore(nil)
	err := store.Update(&models.Session{ID: "missing"})
	require.Error(t, err)
}
