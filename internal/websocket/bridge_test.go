package websocket_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/gobychat/internal/broadcast"
	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/nfrund/gobychat/internal/presence"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/router"
	"github.com/nfrund/gobychat/internal/storage"
	"github.com/nfrund/gobychat/internal/topics"
	ws "github.com/nfrund/gobychat/internal/websocket"
)

// testFixture wires a bridge to the real bus, router, store and presence tracker.
type testFixture struct {
	bridge  *ws.Bridge
	router  *router.Router
	store   *storage.Store
	tracker *presence.Tracker
	server  *httptest.Server
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	bus := pubsub.NewWatermillBridge(nil)
	store, err := storage.OpenInMemory(nil)
	require.NoError(t, err)

	tracker := presence.NewTracker(bus)
	require.NoError(t, presence.NewLifecycle(tracker, nil).Listen(ctx, bus))

	r := router.New(store, store, broadcast.NewChannel(bus, nil))
	bridge := ws.NewBridge(bus, r, store)
	require.NoError(t, bridge.Listen(ctx, bus))

	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))
	e.Use(middleware.Identity)
	e.POST("/login/:name", func(c echo.Context) error {
		if err := middleware.SaveIdentity(c, c.Param("name")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/ws", bridge.Handler())

	server := httptest.NewServer(e)
	t.Cleanup(func() {
		_ = bridge.Close()
		server.Close()
		cancel()
		_ = bus.Close()
		_ = store.Close()
	})

	return &testFixture{bridge: bridge, router: r, store: store, tracker: tracker, server: server}
}

// dial opens a socket, logged in as identity unless identity is empty.
func (f *testFixture) dial(t *testing.T, identity string) *websocket.Conn {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	if identity != "" {
		resp, err := client.Post(f.server.URL+"/login/"+identity, "", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: client})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

// readUntil reads frames until match accepts one or the timeout passes.
func readUntil(conn *websocket.Conn, timeout time.Duration, match func(topics.Envelope) bool) (topics.Envelope, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return topics.Envelope{}, err
		}
		var env topics.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return topics.Envelope{}, err
		}
		if match(env) {
			return env, nil
		}
	}
}

func ofType(envType string) func(topics.Envelope) bool {
	return func(env topics.Envelope) bool { return env.Type == envType }
}

func expectFrame(t *testing.T, conn *websocket.Conn, envType string) topics.Envelope {
	t.Helper()
	env, err := readUntil(conn, 2*time.Second, ofType(envType))
	require.NoError(t, err, "waiting for %q frame", envType)
	return env
}

func expectPresence(t *testing.T, conn *websocket.Conn, users ...string) {
	t.Helper()
	_, err := readUntil(conn, 2*time.Second, func(env topics.Envelope) bool {
		if env.Type != topics.EnvelopePresence {
			return false
		}
		var update topics.PresenceUpdate
		if json.Unmarshal(env.Data, &update) != nil {
			return false
		}
		return slices.Equal(update.Users, users)
	})
	require.NoError(t, err, "waiting for presence %v", users)
}

func TestBridge_PublicMessageReachesEverySession(t *testing.T) {
	f := newFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	anon := f.dial(t, "")
	expectPresence(t, alice, "alice", "bob")

	send(t, alice, map[string]any{"type": "message", "senderName": "mallory", "message": "hello everyone"})

	for _, conn := range []*websocket.Conn{alice, bob, anon} {
		env := expectFrame(t, conn, topics.EnvelopePublic)
		var msg domain.Message
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		assert.Equal(t, "alice", msg.SenderName, "authenticated sender name is forced")
		assert.Equal(t, "hello everyone", msg.Message)
		assert.NotEmpty(t, msg.ID)
	}

	history, err := f.store.FindPublicHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestBridge_SenderGetsSentAck(t *testing.T) {
	f := newFixture(t)
	alice := f.dial(t, "alice")

	send(t, alice, map[string]any{"type": "message", "receiverName": "bob", "message": "are you there?"})

	env := expectFrame(t, alice, topics.EnvelopeSent)
	var msg domain.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "bob", msg.ReceiverName)

	// bob is offline but the message is kept
	history, err := f.store.FindHistory(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestBridge_PrivateMessageOnlyReachesRecipient(t *testing.T) {
	f := newFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	carol := f.dial(t, "carol")
	expectPresence(t, alice, "alice", "bob", "carol")

	send(t, alice, map[string]any{"type": "message", "receiverName": "bob", "message": "psst"})

	env := expectFrame(t, bob, topics.EnvelopePrivate)
	var msg domain.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "psst", msg.Message)

	_, err := readUntil(carol, 300*time.Millisecond, ofType(topics.EnvelopePrivate))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "carol must not see the private message")
}

func TestBridge_GroupSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.store.CreateGroup(ctx, "gophers")
	require.NoError(t, err)

	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	carol := f.dial(t, "carol")

	send(t, bob, map[string]any{"type": "subscribe", "groupId": g.ID})
	send(t, carol, map[string]any{"type": "subscribe", "groupId": g.ID + 100})
	env := expectFrame(t, carol, topics.EnvelopeError)
	assert.Contains(t, string(env.Data), "not_found")

	// bob's subscribe is handled before this ping returns its ack
	send(t, bob, map[string]any{"type": "message", "receiverName": "bob", "message": "sync"})
	expectFrame(t, bob, topics.EnvelopeSent)

	send(t, alice, map[string]any{"type": "message", "groupId": g.ID, "message": "standup in 5"})

	env = expectFrame(t, bob, topics.EnvelopeGroup)
	var view domain.GroupMessageView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "gophers", view.GroupName)
	assert.Equal(t, "alice", view.SenderName)

	_, err = readUntil(carol, 300*time.Millisecond, ofType(topics.EnvelopeGroup))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	send(t, bob, map[string]any{"type": "unsubscribe", "groupId": g.ID})
	send(t, bob, map[string]any{"type": "message", "receiverName": "bob", "message": "sync"})
	expectFrame(t, bob, topics.EnvelopeSent)
	send(t, alice, map[string]any{"type": "message", "groupId": g.ID, "message": "anyone?"})
	_, err = readUntil(bob, 300*time.Millisecond, ofType(topics.EnvelopeGroup))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBridge_DeletedGroupEndsSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.store.CreateGroup(ctx, "gophers")
	require.NoError(t, err)

	bob := f.dial(t, "bob")
	send(t, bob, map[string]any{"type": "subscribe", "groupId": g.ID})
	send(t, bob, map[string]any{"type": "message", "receiverName": "bob", "message": "sync"})
	expectFrame(t, bob, topics.EnvelopeSent)

	require.NoError(t, f.router.DeleteGroup(ctx, g.ID))

	env := expectFrame(t, bob, topics.EnvelopeGroupDeleted)
	var ev topics.GroupEvent
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, g.ID, ev.GroupID)
}

func TestBridge_PresenceFollowsSessions(t *testing.T) {
	f := newFixture(t)
	alice := f.dial(t, "alice")
	expectPresence(t, alice, "alice")

	bob := f.dial(t, "bob")
	expectPresence(t, alice, "alice", "bob")
	expectPresence(t, bob, "alice", "bob")

	_ = bob.Close(websocket.StatusNormalClosure, "bye")
	expectPresence(t, alice, "alice")

	assert.Eventually(t, func() bool { return f.bridge.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"alice"}, f.tracker.Snapshot())
}

func TestBridge_AnonymousSessionsDoNotAppearOnline(t *testing.T) {
	f := newFixture(t)
	alice := f.dial(t, "alice")
	expectPresence(t, alice, "alice")

	anon := f.dial(t, "")
	// the latest snapshot is replayed to new sessions
	expectPresence(t, anon, "alice")

	assert.Eventually(t, func() bool { return f.bridge.SessionCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"alice"}, f.tracker.Snapshot())
}

func TestBridge_RejectsBadFrames(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	tests := []struct {
		name  string
		frame string
		code  string
	}{
		{"not json", `{"type":`, "validation"},
		{"unknown type", `{"type":"shout"}`, "validation"},
		{"missing sender", `{"type":"message","message":"hi"}`, "validation"},
		{"receiver and group", `{"type":"message","senderName":"x","receiverName":"y","groupId":1,"message":"hi"}`, "validation"},
		{"unknown group", `{"type":"message","senderName":"x","groupId":42,"message":"hi"}`, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(tt.frame)))

			env := expectFrame(t, conn, topics.EnvelopeError)
			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
