package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskwire-api/internal/config"
	"github.com/phrazzld/taskwire-api/internal/domain"
)

func newTask(ownerID uuid.UUID, status domain.TaskStatus) *domain.Task {
	return &domain.Task{
		ID:     uuid.New(),
		UserID: ownerID,
		Title:  "policy test",
		Status: status,
	}
}

func TestCanWrite(t *testing.T) {
	t.Parallel()

	owner := &domain.User{ID: uuid.New(), Username: "owner"}
	stranger := &domain.User{ID: uuid.New(), Username: "stranger"}
	staff := &domain.User{ID: uuid.New(), Username: "staff", IsStaff: true}
	superuser := &domain.User{ID: uuid.New(), Username: "root", IsSuperuser: true}

	task := newTask(owner.ID, domain.TaskStatusTodo)
	p := New(config.PolicyConfig{})

	assert.True(t, p.CanWrite(owner, task), "owner can write own task")
	assert.False(t, p.CanWrite(stranger, task), "stranger cannot write")
	assert.True(t, p.CanWrite(staff, task), "staff can write any task")
	assert.True(t, p.CanWrite(superuser, task), "superuser can write any task")
	assert.False(t, p.CanWrite(nil, task), "nil principal cannot write")
}

func TestCanRead(t *testing.T) {
	t.Parallel()

	owner := &domain.User{ID: uuid.New(), Username: "owner"}
	stranger := &domain.User{ID: uuid.New(), Username: "stranger"}
	task := newTask(owner.ID, domain.TaskStatusTodo)

	t.Run("owner-or-admin rule by default", func(t *testing.T) {
		t.Parallel()
		p := New(config.PolicyConfig{})

		assert.True(t, p.CanRead(owner, task))
		assert.False(t, p.CanRead(stranger, task))
		assert.False(t, p.CanRead(nil, task))
	})

	t.Run("unrestricted object read opens single-task reads", func(t *testing.T) {
		t.Parallel()
		p := New(config.PolicyConfig{UnrestrictedObjectRead: true})

		assert.True(t, p.CanRead(owner, task))
		assert.True(t, p.CanRead(stranger, task))
		assert.False(t, p.CanRead(nil, task), "unauthenticated reads stay closed")
	})
}

func TestEditLocked(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	overdueTask := newTask(owner, domain.TaskStatusOverdue)
	todoTask := newTask(owner, domain.TaskStatusTodo)

	t.Run("lock disabled", func(t *testing.T) {
		t.Parallel()
		p := New(config.PolicyConfig{})

		assert.False(t, p.EditLocked(overdueTask))
		assert.False(t, p.EditLocked(todoTask))
	})

	t.Run("lock enabled freezes overdue tasks only", func(t *testing.T) {
		t.Parallel()
		p := New(config.PolicyConfig{LockOverdueEdits: true})

		assert.True(t, p.EditLocked(overdueTask))
		assert.False(t, p.EditLocked(todoTask))
	})
}
