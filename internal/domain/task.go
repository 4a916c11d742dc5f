package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusOverdue    TaskStatus = "OVERDUE"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID   = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// Task represents a single unit of work owned by a user. Status transitions
// are derived at write time: ApplyStatusRules must run before every persist
// so that the stored row always reflects the derivation rules.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// NewTask creates a new Task owned by the given user.
// It generates a new UUID for the task ID, defaults the status to TODO when
// none is supplied, sets the creation/update timestamps, and applies the
// status derivation rules.
// Returns an error if validation fails.
func NewTask(
	userID uuid.UUID,
	title, description string,
	status TaskStatus,
	dueDate *time.Time,
) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      status,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	task.ApplyStatusRules(now)
	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// ApplyStatusRules applies the write-time status derivation rules:
//   - CompletedAt is set the first time the status is DONE and is never
//     cleared afterwards, even if the status later regresses.
//   - A task whose due date has passed becomes OVERDUE unless it is DONE.
//
// The rules run at write time only, so a task can display a stale
// non-OVERDUE status until its next save.
func (t *Task) ApplyStatusRules(now time.Time) {
	if t.Status == TaskStatusDone && t.CompletedAt == nil {
		completed := now
		t.CompletedAt = &completed
	}

	if t.DueDate != nil && t.Status != TaskStatusDone {
		if t.DueDate.Before(startOfDay(now)) {
			t.Status = TaskStatusOverdue
		}
	}
}

// Touch refreshes the UpdatedAt timestamp.
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = now
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusOverdue:
		return true
	default:
		return false
	}
}

// startOfDay truncates a timestamp to midnight UTC. Due dates carry day
// granularity, so a task counts as overdue only once its due day is fully
// in the past.
func startOfDay(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
