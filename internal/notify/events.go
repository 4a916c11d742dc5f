package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwire-api/internal/domain"
)

// Event kinds carried in the payload's "event" field.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// Event is one task mutation ready for fan-out: the groups it targets and
// the JSON-serializable payload forwarded verbatim to every live connection
// in those groups.
type Event struct {
	Groups  []GroupID
	Payload EventPayload
}

// EventPayload is the JSON shape pushed to subscribers.
type EventPayload struct {
	Event string    `json:"event"`
	Task  *TaskView `json:"task,omitempty"`

	// Deletion carries only the task id; the full representation no longer
	// exists by the time the event is built.
	TaskID  *uuid.UUID `json:"id,omitempty"`
	Deleted bool       `json:"deleted,omitempty"`
}

// TaskView is the full task representation included in created/updated
// events. Timestamps are RFC 3339 strings or null.
type TaskView struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	User        string    `json:"user"`
	DueDate     *string   `json:"due_date"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	CompletedAt *string   `json:"completed_at"`
}

// NewTaskView builds the event representation of a task. The owner's
// username is passed in because the task row itself carries only the ID.
func NewTaskView(task *domain.Task, ownerUsername string) *TaskView {
	return &TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		User:        ownerUsername,
		DueDate:     formatTimePtr(task.DueDate),
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339),
		CompletedAt: formatTimePtr(task.CompletedAt),
	}
}

func formatTimePtr(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	s := ts.UTC().Format(time.RFC3339)
	return &s
}
