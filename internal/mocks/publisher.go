package mocks

import (
	"sync"

	"github.com/phrazzld/taskwire-api/internal/notify"
)

// MockPublisher implements notify.Publisher for testing
type MockPublisher struct {
	// PublishFn allows test cases to mock the Publish behavior
	PublishFn func(event notify.Event) bool

	// Reject makes the default implementation refuse every event
	Reject bool

	mu     sync.Mutex
	Events []notify.Event
}

// Publish implements the notify.Publisher interface
func (m *MockPublisher) Publish(event notify.Event) bool {
	if m.PublishFn != nil {
		return m.PublishFn(event)
	}

	if m.Reject {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return true
}

// PublishedEvents returns a copy of the recorded events.
func (m *MockPublisher) PublishedEvents() []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Event, len(m.Events))
	copy(out, m.Events)
	return out
}
