package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwire-api/internal/domain"
)

// StatusCounts holds per-status task totals for the stats endpoint.
type StatusCounts struct {
	Completed  int
	Pending    int
	InProgress int
	Overdue    int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owning user does not exist
	// (foreign key violation).
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists changes to an existing task. The owner and creation
	// timestamp are immutable and are not written.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner retrieves all tasks owned by the given user,
	// ordered by creation time descending.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// ListAll retrieves every task in the store, ordered by creation time
	// descending. Intended for admin principals only; callers enforce access.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// CountByStatus returns per-status task counts. When ownerID is non-nil
	// the counts are scoped to that user's tasks; otherwise they cover the
	// whole store.
	CountByStatus(ctx context.Context, ownerID *uuid.UUID) (StatusCounts, error)
}
