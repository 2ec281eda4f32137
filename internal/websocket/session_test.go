package websocket

import (
	"context"
	"testing"

	"github.com/nfrund/gobychat/internal/metrics"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_EnqueueDropsWhenFull(t *testing.T) {
	s := newSession("s1", "alice", nil, 1)

	require.NoError(t, s.enqueue([]byte("one")))
	assert.ErrorIs(t, s.enqueue([]byte("two")), errSendBufferFull)

	assert.Equal(t, []byte("one"), <-s.outbox())
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := newSession("s1", "", nil, 4)
	s.close()
	s.close()

	assert.ErrorIs(t, s.enqueue([]byte("late")), errSessionClosed)
	assert.Nil(t, s.outbox())
}

func TestSession_Groups(t *testing.T) {
	s := newSession("s1", "alice", nil, 1)
	assert.False(t, s.inGroup(3))

	s.join(3)
	assert.True(t, s.inGroup(3))
	assert.False(t, s.inGroup(4))

	s.leave(3)
	assert.False(t, s.inGroup(3))
}

func TestBridge_PushCountsDrops(t *testing.T) {
	m := metrics.New(nil)
	b := NewBridge(nil, nil, nil, WithMetrics(m), WithSendBuffer(1))
	s := newSession("s1", "alice", nil, b.sendBuffer)

	b.push(s, []byte("kept"))
	b.push(s, []byte("dropped"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesDropped))
	assert.Len(t, s.outbox(), 1)
}

func TestBridge_FanOutMatchesSessions(t *testing.T) {
	b := NewBridge(nil, nil, nil)
	alice := newSession("a", "alice", nil, 4)
	bob := newSession("b", "bob", nil, 4)
	bob.join(7)
	b.sessions[alice.id] = alice
	b.sessions[bob.id] = bob

	n := b.fanOut([]byte("x"), func(s *session) bool { return s.inGroup(7) })

	assert.Equal(t, 1, n)
	assert.Len(t, bob.outbox(), 1)
	assert.Empty(t, alice.outbox())
}

func TestBridge_GroupDeletedDropsSubscriptions(t *testing.T) {
	b := NewBridge(nil, nil, nil)
	alice := newSession("a", "alice", nil, 4)
	bob := newSession("b", "bob", nil, 4)
	alice.join(3)
	alice.join(5)
	b.sessions[alice.id] = alice
	b.sessions[bob.id] = bob

	err := b.onGroupDeleted(context.Background(), pubsub.Message{Payload: []byte(`{"groupId":3}`)})
	require.NoError(t, err)

	assert.False(t, alice.inGroup(3))
	assert.True(t, alice.inGroup(5))
	require.Len(t, alice.outbox(), 1)
	assert.JSONEq(t, `{"type":"group_deleted","data":{"groupId":3}}`, string(<-alice.outbox()))
	assert.Empty(t, bob.outbox())

	assert.Error(t, b.onGroupDeleted(context.Background(), pubsub.Message{Payload: []byte("nope")}))
}
