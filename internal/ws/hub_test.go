package ws

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskwire-api/internal/notify"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(DefaultHubConfig(), slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

// newTestClient builds a client without a live websocket; the hub never
// touches the connection outside the pumps.
func newTestClient(userID uuid.UUID, isAdmin bool, bufferSize int) *Client {
	return newClient(nil, userID, isAdmin, bufferSize, slog.Default())
}

func receiveMessage(t *testing.T, client *Client) notify.EventPayload {
	t.Helper()
	select {
	case raw, open := <-client.send:
		require.True(t, open, "send channel closed while expecting a message")
		var payload notify.EventPayload
		require.NoError(t, json.Unmarshal(raw, &payload))
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return notify.EventPayload{}
	}
}

func assertNoMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case raw, open := <-client.send:
		if open {
			t.Fatalf("expected no message, got %s", raw)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func taskEvent(kind string, groups ...notify.GroupID) notify.Event {
	id := uuid.New()
	return notify.Event{
		Groups: groups,
		Payload: notify.EventPayload{
			Event:  kind,
			TaskID: &id,
		},
	}
}

func TestJoinAndGroupSize(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	userID := uuid.New()

	client := newTestClient(userID, false, 4)
	hub.Join(client)

	assert.Equal(t, 1, hub.GroupSize(notify.PerUser(userID)))
	assert.Equal(t, 0, hub.GroupSize(notify.AdminBroadcast()))

	admin := newTestClient(uuid.New(), true, 4)
	hub.Join(admin)

	assert.Equal(t, 1, hub.GroupSize(notify.AdminBroadcast()))
}

func TestLeaveIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	userID := uuid.New()

	client := newTestClient(userID, false, 4)
	hub.Join(client)

	hub.Leave(client)
	assert.Equal(t, 0, hub.GroupSize(notify.PerUser(userID)))

	// A second leave must not panic on the closed channel.
	assert.NotPanics(t, func() { hub.Leave(client) })
}

func TestLeaveNeverJoinedClient(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	client := newTestClient(uuid.New(), false, 4)

	assert.NotPanics(t, func() { hub.Leave(client) })
}

func TestPublishDeliversToOwnerGroup(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	ownerID := uuid.New()

	owner := newTestClient(ownerID, false, 4)
	other := newTestClient(uuid.New(), false, 4)
	hub.Join(owner)
	hub.Join(other)

	ok := hub.Publish(taskEvent(notify.EventTaskCreated, notify.PerUser(ownerID), notify.AdminBroadcast()))
	require.True(t, ok)

	payload := receiveMessage(t, owner)
	assert.Equal(t, notify.EventTaskCreated, payload.Event)

	assertNoMessage(t, other)
}

func TestAdminReceivesOtherUsersEvents(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	ownerID := uuid.New()

	admin := newTestClient(uuid.New(), true, 4)
	hub.Join(admin)

	ok := hub.Publish(taskEvent(notify.EventTaskUpdated, notify.PerUser(ownerID), notify.AdminBroadcast()))
	require.True(t, ok)

	payload := receiveMessage(t, admin)
	assert.Equal(t, notify.EventTaskUpdated, payload.Event)
}

func TestAdminOwnerReceivesEventOnce(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	adminID := uuid.New()

	// An admin mutating its own task sits in both target groups.
	adminOwner := newTestClient(adminID, true, 4)
	hub.Join(adminOwner)

	ok := hub.Publish(taskEvent(notify.EventTaskCreated, notify.PerUser(adminID), notify.AdminBroadcast()))
	require.True(t, ok)

	receiveMessage(t, adminOwner)
	assertNoMessage(t, adminOwner)
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	ownerID := uuid.New()

	owner := newTestClient(ownerID, false, 8)
	hub.Join(owner)

	kinds := []string{
		notify.EventTaskCreated,
		notify.EventTaskUpdated,
		notify.EventTaskUpdated,
		notify.EventTaskDeleted,
	}
	for _, kind := range kinds {
		require.True(t, hub.Publish(taskEvent(kind, notify.PerUser(ownerID))))
	}

	for _, want := range kinds {
		payload := receiveMessage(t, owner)
		assert.Equal(t, want, payload.Event)
	}
}

func TestSlowConsumerIsDisconnected(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)
	ownerID := uuid.New()

	// Buffer of one: the second undrained event overflows it.
	slow := newTestClient(ownerID, false, 1)
	hub.Join(slow)

	require.True(t, hub.Publish(taskEvent(notify.EventTaskCreated, notify.PerUser(ownerID))))
	require.True(t, hub.Publish(taskEvent(notify.EventTaskUpdated, notify.PerUser(ownerID))))

	// The hub must eventually remove the overflowing connection.
	require.Eventually(t, func() bool {
		return hub.GroupSize(notify.PerUser(ownerID)) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The buffered event is still readable, then the channel closes.
	payload := receiveMessage(t, slow)
	assert.Equal(t, notify.EventTaskCreated, payload.Event)

	_, open := <-slow.send
	assert.False(t, open, "send channel should be closed after disconnect")
}

func TestPublishAfterStopIsRejected(t *testing.T) {
	t.Parallel()

	hub := NewHub(DefaultHubConfig(), slog.Default())
	hub.Start()
	hub.Stop()

	ok := hub.Publish(taskEvent(notify.EventTaskCreated, notify.AdminBroadcast()))
	assert.False(t, ok)
}

func TestStopDetachesClients(t *testing.T) {
	t.Parallel()

	hub := NewHub(DefaultHubConfig(), slog.Default())
	hub.Start()

	client := newTestClient(uuid.New(), false, 4)
	hub.Join(client)

	hub.Stop()

	_, open := <-client.send
	assert.False(t, open, "send channel should be closed on shutdown")
	assert.NotPanics(t, hub.Stop, "Stop is safe to call twice")
}

func TestPublishWithNoSubscribersSucceeds(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)

	// Accepted into the buffer even though fan-out will drop it.
	ok := hub.Publish(taskEvent(notify.EventTaskDeleted, notify.PerUser(uuid.New())))
	assert.True(t, ok)
}
