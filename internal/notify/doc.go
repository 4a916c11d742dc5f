// Package notify turns committed task mutations into broadcast events.
// It owns the typed group identifiers, the wire payload shapes, and the
// fire-and-forget Notifier the task service calls after each mutation.
// Delivery is best-effort and at-most-once; nothing here can fail a request.
package notify
