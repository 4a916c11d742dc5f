package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/notify"
)

// NotifierCall records a single invocation of a MockNotifier method.
type NotifierCall struct {
	Event         string
	Task          *domain.Task
	TaskID        uuid.UUID
	OwnerID       uuid.UUID
	OwnerUsername string
}

// MockNotifier implements notify.Notifier for testing. It records every
// call so tests can assert on event emission order and content.
type MockNotifier struct {
	mu    sync.Mutex
	Calls []NotifierCall
}

// TaskCreated implements the notify.Notifier interface
func (m *MockNotifier) TaskCreated(ctx context.Context, task *domain.Task, ownerUsername string) {
	m.record(NotifierCall{
		Event:         notify.EventTaskCreated,
		Task:          task,
		TaskID:        task.ID,
		OwnerID:       task.UserID,
		OwnerUsername: ownerUsername,
	})
}

// TaskUpdated implements the notify.Notifier interface
func (m *MockNotifier) TaskUpdated(ctx context.Context, task *domain.Task, ownerUsername string) {
	m.record(NotifierCall{
		Event:         notify.EventTaskUpdated,
		Task:          task,
		TaskID:        task.ID,
		OwnerID:       task.UserID,
		OwnerUsername: ownerUsername,
	})
}

// TaskDeleted implements the notify.Notifier interface
func (m *MockNotifier) TaskDeleted(ctx context.Context, taskID, ownerID uuid.UUID) {
	m.record(NotifierCall{
		Event:   notify.EventTaskDeleted,
		TaskID:  taskID,
		OwnerID: ownerID,
	})
}

// CallCount returns the number of recorded calls.
func (m *MockNotifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent call, or a zero value when none exist.
func (m *MockNotifier) LastCall() NotifierCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return NotifierCall{}
	}
	return m.Calls[len(m.Calls)-1]
}

func (m *MockNotifier) record(call NotifierCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}
