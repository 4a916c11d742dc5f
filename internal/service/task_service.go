package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/notify"
	"github.com/phrazzld/taskwire-api/internal/platform/logger"
	"github.com/phrazzld/taskwire-api/internal/policy"
	"github.com/phrazzld/taskwire-api/internal/store"
)

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     *time.Time

	// TargetUserID lets an admin create a task owned by another user.
	// Non-admin principals always own the tasks they create; any target they
	// supply is ignored.
	TargetUserID *uuid.UUID
}

// UpdateTaskInput carries a partial update. Nil pointers leave the field
// unchanged; DueDateSet distinguishes clearing the due date from omitting it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	DueDate     *time.Time
	DueDateSet  bool
}

// Stats holds the per-status task counts returned by the stats operation.
type Stats struct {
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Overdue    int `json:"overdue"`
}

// TaskService orchestrates every task mutation: it checks the access policy,
// persists through the task store, and then hands a change event to the
// notifier. Notification happens strictly after durable persistence and on
// the same execution path; a notifier fault never propagates to the caller.
type TaskService struct {
	taskStore store.TaskStore
	userStore store.UserStore
	policy    *policy.AccessPolicy
	notifier  notify.Notifier
	logger    *slog.Logger
	timeFunc  func() time.Time // Injectable for testing
}

// NewTaskService creates a TaskService with the given dependencies.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	accessPolicy *policy.AccessPolicy,
	notifier notify.Notifier,
	logger *slog.Logger,
) (*TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("taskStore cannot be nil")
	}
	if userStore == nil {
		return nil, fmt.Errorf("userStore cannot be nil")
	}
	if accessPolicy == nil {
		return nil, fmt.Errorf("accessPolicy cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &TaskService{
		taskStore: taskStore,
		userStore: userStore,
		policy:    accessPolicy,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "task_service")),
		timeFunc:  time.Now,
	}, nil
}

// Create makes a new task. An admin principal may target another user via
// TargetUserID, which fails with store.ErrUserNotFound when that user does
// not exist; everyone else owns what they create.
func (s *TaskService) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	principal, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	owner := principal
	if input.TargetUserID != nil && *input.TargetUserID != principal.ID && principal.IsAdmin() {
		owner, err = s.userStore.GetByID(ctx, *input.TargetUserID)
		if err != nil {
			log.Debug("target user not found",
				slog.String("target_user_id", input.TargetUserID.String()))
			return nil, err
		}
	}

	task, err := domain.NewTask(owner.ID, input.Title, input.Description, input.Status, input.DueDate)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, err
	}

	// Broadcast after commit; best-effort by contract of the notifier.
	s.notifier.TaskCreated(ctx, task, owner.Username)

	return task, nil
}

// Get retrieves a single task, subject to the read policy.
func (s *TaskService) Get(
	ctx context.Context,
	principalID uuid.UUID,
	taskID uuid.UUID,
) (*domain.Task, error) {
	principal, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanRead(principal, task) {
		return nil, domain.ErrForbidden
	}

	return task, nil
}

// Update applies a partial update to an existing task.
// Fails with store.ErrTaskNotFound for an unknown id, domain.ErrForbidden
// when the write policy denies, and ErrTaskEditLocked when the overdue edit
// lock applies. Status derivation rules are re-applied before persisting.
func (s *TaskService) Update(
	ctx context.Context,
	principalID uuid.UUID,
	taskID uuid.UUID,
	input UpdateTaskInput,
) (*domain.Task, error) {
	principal, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanWrite(principal, task) {
		return nil, domain.ErrForbidden
	}

	if s.policy.EditLocked(task) {
		return nil, ErrTaskEditLocked
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.DueDateSet {
		task.DueDate = input.DueDate
	}

	now := s.timeFunc().UTC()
	task.ApplyStatusRules(now)
	task.Touch(now)

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, err
	}

	s.notifier.TaskUpdated(ctx, task, s.ownerUsername(ctx, principal, task))

	return task, nil
}

// Delete removes a task.
// Fails with store.ErrTaskNotFound / domain.ErrForbidden analogously to
// Update; the overdue edit lock does not apply to deletion.
func (s *TaskService) Delete(
	ctx context.Context,
	principalID uuid.UUID,
	taskID uuid.UUID,
) error {
	principal, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return err
	}

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if !s.policy.CanWrite(principal, task) {
		return domain.ErrForbidden
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		return err
	}

	s.notifier.TaskDeleted(ctx, task.ID, task.UserID)

	return nil
}

// List returns tasks visible to the principal, ordered by creation time
// descending: all tasks for admins, own tasks for everyone else.
func (s *TaskService) List(ctx context.Context, principalID uuid.UUID) ([]*domain.Task, error) {
	principal, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if principal.IsAdmin() {
		return s.taskStore.ListAll(ctx)
	}
	return s.taskStore.ListByOwner(ctx, principal.ID)
}

// Stats returns per-status counts scoped to all tasks for admin principals
// and to the principal's own tasks otherwise.
func (s *TaskService) Stats(ctx context.Context, principalID uuid.UUID) (Stats, error) {
	principal, err := s.loadPrincipal(ctx, principalID)
	if err != nil {
		return Stats{}, err
	}

	var scope *uuid.UUID
	if !principal.IsAdmin() {
		scope = &principal.ID
	}

	counts, err := s.taskStore.CountByStatus(ctx, scope)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Completed:  counts.Completed,
		Pending:    counts.Pending,
		InProgress: counts.InProgress,
		Overdue:    counts.Overdue,
	}, nil
}

// loadPrincipal resolves the authenticated principal's user row. A token
// that refers to a deleted user is treated as unauthorized, not as a missing
// entity.
func (s *TaskService) loadPrincipal(ctx context.Context, principalID uuid.UUID) (*domain.User, error) {
	principal, err := s.userStore.GetByID(ctx, principalID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return principal, nil
}

// ownerUsername resolves the task owner's username for the event payload.
// Falls back to an empty name when the lookup fails; the broadcast is
// best-effort and must not fail the mutation.
func (s *TaskService) ownerUsername(
	ctx context.Context,
	principal *domain.User,
	task *domain.Task,
) string {
	if task.UserID == principal.ID {
		return principal.Username
	}

	owner, err := s.userStore.GetByID(ctx, task.UserID)
	if err != nil {
		s.logger.Warn("failed to resolve owner username for event",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.UserID.String()))
		return ""
	}
	return owner.Username
}
