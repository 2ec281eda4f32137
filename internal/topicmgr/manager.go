package topicmgr

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Manager is a concurrency-safe catalogue of validated, uniquely named topics.
type Manager struct {
	mu     sync.RWMutex
	topics map[string]Topic
}

func NewManager() *Manager {
	return &Manager{topics: make(map[string]Topic)}
}

// Register validates t and adds it to the catalogue.
func (m *Manager) Register(t Topic) error {
	if err := validate(t); err != nil {
		return &TopicError{Type: ErrorValidationFailed, Topic: t.name, Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.topics[t.name]; exists {
		return &TopicError{Type: ErrorDuplicateRegistration, Topic: t.name}
	}
	m.topics[t.name] = t
	return nil
}

// MustRegister is Register for package-level definitions; it panics on error.
func (m *Manager) MustRegister(t Topic) {
	if err := m.Register(t); err != nil {
		panic(err)
	}
}

func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[name]
	return t, ok
}

// Lookup is Get with a TopicError for unknown names.
func (m *Manager) Lookup(name string) (Topic, error) {
	t, ok := m.Get(name)
	if !ok {
		return Topic{}, &TopicError{Type: ErrorTopicNotFound, Topic: name}
	}
	return t, nil
}

// List returns every topic ordered by name.
func (m *Manager) List() []Topic {
	m.mu.RLock()
	out := lo.Values(m.topics)
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Topic) int { return strings.Compare(a.name, b.name) })
	return out
}

// ListByScope is List restricted to one scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return lo.Filter(m.List(), func(t Topic, _ int) bool { return t.scope == scope })
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide catalogue that typed events register with.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
