package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements both store interfaces in memory and counts writes.
type fakeStore struct {
	mu       sync.Mutex
	messages []domain.Message
	grouped  []domain.GroupMessage
	groups   map[int64]domain.Group
	saves    int
	saveErr  error
	deleted  []string
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{groups: map[int64]domain.Group{}}
}

func (f *fakeStore) SaveMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return domain.Message{}, f.saveErr
	}
	f.nextID++
	msg.ID = fmt.Sprintf("m%d", f.nextID)
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeStore) SaveGroupMessage(ctx context.Context, msg domain.GroupMessage) (domain.GroupMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return domain.GroupMessage{}, f.saveErr
	}
	f.nextID++
	msg.ID = fmt.Sprintf("g%d", f.nextID)
	f.grouped = append(f.grouped, msg)
	return msg, nil
}

func (f *fakeStore) FindHistory(ctx context.Context, a, b string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if (m.SenderName == a && m.ReceiverName == b) || (m.SenderName == b && m.ReceiverName == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) FindPublicHistory(ctx context.Context) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if m.ReceiverName == "" {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) FindGroupHistory(ctx context.Context, groupID int64) ([]domain.GroupMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.GroupMessage
	for _, m := range f.grouped {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteGroupMessages(ctx context.Context, groupID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, "messages")
	kept := f.grouped[:0]
	for _, m := range f.grouped {
		if m.GroupID != groupID {
			kept = append(kept, m)
		}
	}
	f.grouped = kept
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.groups[groupID]
	return ok, nil
}

func (f *fakeStore) GroupName(ctx context.Context, groupID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return g.Name, nil
}

func (f *fakeStore) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := domain.Group{ID: int64(len(f.groups) + 1), Name: name}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeStore) FindGroup(ctx context.Context, groupID int64) (domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return domain.Group{}, domain.ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeStore) DeleteGroup(ctx context.Context, groupID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, "group")
	delete(f.groups, groupID)
	return nil
}

type delivery struct {
	dest    domain.Destination
	payload any
	at      time.Time
}

type fakeDeliverer struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (f *fakeDeliverer) Deliver(ctx context.Context, dest domain.Destination, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{dest: dest, payload: payload, at: time.Now()})
	return f.err
}

func (f *fakeDeliverer) all() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery(nil), f.deliveries...)
}

// notifyingDeliverer also records group deletion notices.
type notifyingDeliverer struct {
	fakeDeliverer
	deleted []int64
}

func (n *notifyingDeliverer) GroupDeleted(ctx context.Context, groupID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, groupID)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRouter_RoutePublic(t *testing.T) {
	store := newFakeStore()
	out := &fakeDeliverer{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := New(store, store, out, WithClock(fixedClock(now)))

	routed, err := r.Route(context.Background(), domain.Message{
		SenderName: "alice",
		Message:    "hello",
		Status:     domain.StatusMessage,
	})
	require.NoError(t, err)
	require.NotNil(t, routed.Message)
	assert.Equal(t, domain.KindPublic, routed.Destination.Kind)
	assert.NotEmpty(t, routed.Message.ID)
	assert.Equal(t, now, routed.Message.Timestamp)

	deliveries := out.all()
	require.Len(t, deliveries, 1)
	assert.Equal(t, domain.PublicTopic(), deliveries[0].dest)
	assert.Equal(t, *routed.Message, deliveries[0].payload)
}

func TestRouter_StatusAnnouncementsArePublic(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusJoin, domain.StatusLeave} {
		t.Run(string(status), func(t *testing.T) {
			store := newFakeStore()
			out := &fakeDeliverer{}
			r := New(store, store, out)

			saved, err := r.RoutePublic(context.Background(), domain.Message{SenderName: "alice", Status: status})
			require.NoError(t, err)
			assert.Equal(t, status, saved.Status)
			assert.Empty(t, saved.Message)

			assert.Equal(t, 1, store.saves)
			deliveries := out.all()
			require.Len(t, deliveries, 1)
			assert.Equal(t, domain.PublicTopic(), deliveries[0].dest)

			history, err := r.PublicHistory(context.Background())
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, status, history[0].Status)
		})
	}
}

func TestRouter_RoutePrivate(t *testing.T) {
	store := newFakeStore()
	out := &fakeDeliverer{}
	r := New(store, store, out)

	routed, err := r.Route(context.Background(), domain.Message{
		SenderName:   "alice",
		ReceiverName: "bob",
		Message:      "psst",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PrivateChannel("bob"), routed.Destination)

	deliveries := out.all()
	require.Len(t, deliveries, 1)
	assert.Equal(t, domain.PrivateChannel("bob"), deliveries[0].dest)

	history, err := r.History(context.Background(), "bob", "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "psst", history[0].Message)
}

func TestRouter_RouteGroup(t *testing.T) {
	store := newFakeStore()
	out := &fakeDeliverer{}
	r := New(store, store, out)
	ctx := context.Background()

	g, err := r.CreateGroup(ctx, "gophers")
	require.NoError(t, err)

	routed, err := r.Route(ctx, domain.Message{SenderName: "alice", GroupID: g.ID, Message: "hi all"})
	require.NoError(t, err)
	require.NotNil(t, routed.Group)
	assert.Equal(t, "gophers", routed.Group.GroupName)
	assert.Equal(t, g.ID, routed.Group.GroupID)

	deliveries := out.all()
	require.Len(t, deliveries, 1)
	assert.Equal(t, domain.GroupTopic(g.ID), deliveries[0].dest)
	assert.IsType(t, domain.GroupMessageView{}, deliveries[0].payload)

	history, err := r.GroupHistory(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "gophers", history[0].GroupName)
}

func TestRouter_UnknownGroupHasNoSideEffects(t *testing.T) {
	store := newFakeStore()
	out := &fakeDeliverer{}
	m := metrics.New(nil)
	r := New(store, store, out, WithMetrics(m))

	_, err := r.RouteGroup(context.Background(), domain.GroupSend{GroupID: 99, SenderName: "alice", Message: "anyone?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, store.saves)
	assert.Empty(t, out.all())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteFailures.WithLabelValues("group", "not_found")))
}

func TestRouter_ValidationRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name string
		msg  domain.Message
	}{
		{"receiver and group", domain.Message{SenderName: "alice", ReceiverName: "bob", GroupID: 1, Message: "x"}},
		{"negative group", domain.Message{SenderName: "alice", GroupID: -1, Message: "x"}},
		{"missing sender", domain.Message{Message: "x"}},
		{"bad status", domain.Message{SenderName: "alice", Message: "x", Status: "SHOUT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			out := &fakeDeliverer{}
			r := New(store, store, out)

			_, err := r.Route(context.Background(), tt.msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, store.saves)
			assert.Empty(t, out.all())
		})
	}
}

func TestRouter_DirectPathsRejectWrongShape(t *testing.T) {
	store := newFakeStore()
	r := New(store, store, &fakeDeliverer{})
	ctx := context.Background()

	_, err := r.RoutePublic(ctx, domain.Message{SenderName: "alice", ReceiverName: "bob", Message: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = r.RoutePrivate(ctx, domain.Message{SenderName: "alice", Message: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = r.RoutePrivate(ctx, domain.Message{SenderName: "alice", ReceiverName: "bob", GroupID: 3, Message: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, store.saves)
}

func TestRouter_PersistenceFailureSkipsDelivery(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	out := &fakeDeliverer{}
	r := New(store, store, out)

	_, err := r.Route(context.Background(), domain.Message{SenderName: "alice", Message: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, out.all())
}

func TestRouter_DeliveryFailureStillReportsSent(t *testing.T) {
	store := newFakeStore()
	out := &fakeDeliverer{err: errors.New("bus closed")}
	m := metrics.New(nil)
	r := New(store, store, out, WithMetrics(m))

	routed, err := r.Route(context.Background(), domain.Message{SenderName: "alice", ReceiverName: "bob", Message: "hello"})
	require.NoError(t, err)
	require.NotNil(t, routed.Message)
	assert.Len(t, store.messages, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailure.WithLabelValues("private")))
}

func TestRouter_PublicDelayDoesNotSerialize(t *testing.T) {
	const (
		senders = 5
		delay   = 150 * time.Millisecond
	)
	store := newFakeStore()
	out := &fakeDeliverer{}
	r := New(store, store, out, WithPublicDelay(delay))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.RoutePublic(context.Background(), domain.Message{
				SenderName: fmt.Sprintf("user%d", i),
				Message:    "hello",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	assert.Len(t, out.all(), senders)
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, delay*senders/2, "public sends should wait in parallel")
}

func TestRouter_PublicDelayDeliversAfterCancel(t *testing.T) {
	store := newFakeStore()
	out := &fakeDeliverer{}
	r := New(store, store, out, WithPublicDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RoutePublic(ctx, domain.Message{SenderName: "alice", Message: "hello"})
	require.NoError(t, err)
	assert.Len(t, out.all(), 1)
}

func TestRouter_HistoryOrdering(t *testing.T) {
	store := newFakeStore()
	r := New(store, store, &fakeDeliverer{})
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Saved out of order on purpose.
	store.messages = []domain.Message{
		{ID: "3", SenderName: "bob", ReceiverName: "alice", Message: "third", Timestamp: base.Add(3 * time.Second)},
		{ID: "1", SenderName: "alice", ReceiverName: "bob", Message: "first", Timestamp: base.Add(1 * time.Second)},
		{ID: "2", SenderName: "bob", ReceiverName: "alice", Message: "second", Timestamp: base.Add(2 * time.Second)},
		{ID: "x", SenderName: "carol", ReceiverName: "alice", Message: "other", Timestamp: base},
	}

	history, err := r.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{history[0].Message, history[1].Message, history[2].Message})

	_, err = r.History(ctx, "alice", " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	public, err := r.PublicHistory(ctx)
	require.NoError(t, err)
	assert.NotNil(t, public)
	assert.Empty(t, public)
}

func TestRouter_GroupLifecycle(t *testing.T) {
	store := newFakeStore()
	r := New(store, store, &fakeDeliverer{})
	ctx := context.Background()

	_, err := r.CreateGroup(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	g, err := r.CreateGroup(ctx, "ops")
	require.NoError(t, err)

	found, err := r.Group(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops", found.Name)

	_, err = r.RouteGroup(ctx, domain.GroupSend{GroupID: g.ID, SenderName: "alice", Message: "deploying"})
	require.NoError(t, err)

	require.NoError(t, r.DeleteGroup(ctx, g.ID))
	assert.Equal(t, []string{"messages", "group"}, store.deleted)
	assert.Empty(t, store.grouped)

	err = r.DeleteGroup(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Group(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.GroupHistory(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	groups, err := r.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestRouter_DeleteGroupNotifiesSessions(t *testing.T) {
	store := newFakeStore()
	out := &notifyingDeliverer{}
	r := New(store, store, out)
	ctx := context.Background()

	g, err := r.CreateGroup(ctx, "ops")
	require.NoError(t, err)
	require.NoError(t, r.DeleteGroup(ctx, g.ID))
	assert.Equal(t, []int64{g.ID}, out.deleted)

	assert.ErrorIs(t, r.DeleteGroup(ctx, g.ID), domain.ErrNotFound)
	assert.Equal(t, []int64{g.ID}, out.deleted)
}
