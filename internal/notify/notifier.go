package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/platform/logger"
)

// Publisher accepts events for fan-out to live connections. Publish must not
// block: implementations hand the event to their own concurrency domain (the
// websocket hub's run loop) and report whether it was accepted.
type Publisher interface {
	Publish(event Event) bool
}

// Notifier is called by the task service synchronously after a successful
// store mutation, never before. All methods are fire-and-forget: a delivery
// fault is logged and swallowed, never propagated to the mutating caller.
type Notifier interface {
	TaskCreated(ctx context.Context, task *domain.Task, ownerUsername string)
	TaskUpdated(ctx context.Context, task *domain.Task, ownerUsername string)
	TaskDeleted(ctx context.Context, taskID, ownerID uuid.UUID)
}

// TaskNotifier builds mutation events and hands them to a Publisher.
// Every event targets the owning user's group and the admin broadcast group.
type TaskNotifier struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewTaskNotifier creates a TaskNotifier publishing through the given
// Publisher. If logger is nil, a default logger will be used.
func NewTaskNotifier(publisher Publisher, logger *slog.Logger) *TaskNotifier {
	if publisher == nil {
		panic("publisher cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskNotifier{
		publisher: publisher,
		logger:    logger.With(slog.String("component", "task_notifier")),
	}
}

// Ensure TaskNotifier implements Notifier interface
var _ Notifier = (*TaskNotifier)(nil)

// TaskCreated implements Notifier.TaskCreated
func (n *TaskNotifier) TaskCreated(ctx context.Context, task *domain.Task, ownerUsername string) {
	n.publishSnapshot(ctx, EventTaskCreated, task, ownerUsername)
}

// TaskUpdated implements Notifier.TaskUpdated
func (n *TaskNotifier) TaskUpdated(ctx context.Context, task *domain.Task, ownerUsername string) {
	n.publishSnapshot(ctx, EventTaskUpdated, task, ownerUsername)
}

// TaskDeleted implements Notifier.TaskDeleted
// The deletion payload carries only the task id.
func (n *TaskNotifier) TaskDeleted(ctx context.Context, taskID, ownerID uuid.UUID) {
	id := taskID
	n.publish(ctx, Event{
		Groups: targetGroups(ownerID),
		Payload: EventPayload{
			Event:   EventTaskDeleted,
			TaskID:  &id,
			Deleted: true,
		},
	})
}

func (n *TaskNotifier) publishSnapshot(
	ctx context.Context,
	kind string,
	task *domain.Task,
	ownerUsername string,
) {
	n.publish(ctx, Event{
		Groups: targetGroups(task.UserID),
		Payload: EventPayload{
			Event: kind,
			Task:  NewTaskView(task, ownerUsername),
		},
	})
}

// publish hands the event to the publisher. A rejected event (hub buffer
// full or hub stopped) is logged and dropped; delivery is at-most-once and
// must never affect the mutation that produced it.
func (n *TaskNotifier) publish(ctx context.Context, event Event) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	if !n.publisher.Publish(event) {
		log.Warn("event dropped, publisher did not accept it",
			slog.String("event", event.Payload.Event))
		return
	}

	log.Debug("event published",
		slog.String("event", event.Payload.Event),
		slog.Int("group_count", len(event.Groups)))
}

// targetGroups resolves the fan-out targets for a task event: the owner's
// personal group and, always, the admin broadcast group, matching the
// visibility admins already have through list().
func targetGroups(ownerID uuid.UUID) []GroupID {
	return []GroupID{PerUser(ownerID), AdminBroadcast()}
}
