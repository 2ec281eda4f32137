package websocket

import (
	"errors"
	"sync"

	"github.com/coder/websocket"
)

var (
	errSessionClosed  = errors.New("session closed")
	errSendBufferFull = errors.New("send buffer full")
)

// session is one live WebSocket connection. identity is empty for anonymous
// connections.
type session struct {
	id       string
	identity string
	conn     *websocket.Conn

	mu     sync.RWMutex
	send   chan []byte
	groups map[int64]struct{}
}

func newSession(id, identity string, conn *websocket.Conn, buffer int) *session {
	return &session{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, buffer),
		groups:   make(map[int64]struct{}),
	}
}

// enqueue queues a frame without blocking.
func (s *session) enqueue(frame []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.send == nil {
		return errSessionClosed
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return errSendBufferFull
	}
}

// close stops the write loop. It is safe to call more than once.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.send != nil {
		close(s.send)
		s.send = nil
	}
}

// outbox returns the channel the write loop drains.
func (s *session) outbox() <-chan []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.send
}

func (s *session) join(groupID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[groupID] = struct{}{}
}

func (s *session) leave(groupID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupID)
}

func (s *session) inGroup(groupID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.groups[groupID]
	return ok
}
