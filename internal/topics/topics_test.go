package topics

import (
	"testing"

	"github.com/nfrund/gobychat/internal/topicmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicsRegistered(t *testing.T) {
	for _, name := range []string{
		OnlineUsers.Name(),
		ClientReady.Name(),
		ClientDisconnected.Name(),
		Public.Name(),
		Private.Name(),
		Group.Name(),
		GroupDeleted.Name(),
	} {
		_, ok := topicmgr.Default().Get(name)
		assert.True(t, ok, name)
	}
}

func TestDestinationTopicsAreModuleScoped(t *testing.T) {
	topic, ok := topicmgr.Default().Get("chat.private")
	require.True(t, ok)
	assert.Equal(t, topicmgr.ScopeModule, topic.Scope())
	assert.Equal(t, "chat", topic.Module())
	assert.Equal(t, []string{"recipient_id"}, topic.Metadata()["requires"])
}
