package ws_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskwire-api/internal/domain"
	"github.com/phrazzld/taskwire-api/internal/mocks"
	"github.com/phrazzld/taskwire-api/internal/notify"
	"github.com/phrazzld/taskwire-api/internal/service/auth"
	"github.com/phrazzld/taskwire-api/internal/ws"
)

type wsHandlerFixture struct {
	server     *httptest.Server
	hub        *ws.Hub
	jwtService *mocks.MockJWTService
	userStore  *mocks.MockUserStore
}

func newWSHandlerFixture(t *testing.T) *wsHandlerFixture {
	t.Helper()

	hub := ws.NewHub(ws.HubConfig{}, slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	jwtService := &mocks.MockJWTService{ValidateErr: auth.ErrInvalidToken}
	userStore := mocks.NewMockUserStore()

	handler := ws.NewHandler(hub, jwtService, userStore, slog.Default())
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &wsHandlerFixture{
		server:     server,
		hub:        hub,
		jwtService: jwtService,
		userStore:  userStore,
	}
}

func (f *wsHandlerFixture) addUser(t *testing.T, username string, isStaff bool) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, "test-password-123")
	require.NoError(t, err)
	user.IsStaff = isStaff
	f.userStore.Users[username] = user
	return user
}

// wsURL converts the test server's http URL to a ws URL with the given token.
func (f *wsHandlerFixture) wsURL(token string) string {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	if token != "" {
		url += "?token=" + token
	}
	return url
}

// dial opens a websocket connection and blocks until the server side has
// registered it with the hub, so a publish immediately after cannot race
// the join.
func (f *wsHandlerFixture) dial(t *testing.T, token string, group notify.GroupID) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return f.hub.GroupSize(group) == 1
	}, 2*time.Second, 10*time.Millisecond, "connection should join its group")

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestHandlerRejectsMissingToken(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)

	resp, err := http.Get(f.server.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerRejectsInvalidToken(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)

	resp, err := http.Get(f.server.URL + "?token=garbage")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerRejectsUnknownUser(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)

	// Token validates but points at a user that no longer exists.
	f.jwtService.ValidateErr = nil
	f.jwtService.Claims = &auth.Claims{UserID: uuid.New()}

	resp, err := http.Get(f.server.URL + "?token=orphaned")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerDeliversEventsToOwner(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)
	alice := f.addUser(t, "alice", false)

	f.jwtService.ValidateErr = nil
	f.jwtService.Claims = &auth.Claims{UserID: alice.ID}

	conn := f.dial(t, "alice-token", notify.PerUser(alice.ID))

	taskID := uuid.New()
	title := "Write release notes"
	accepted := f.hub.Publish(notify.Event{
		Groups: []notify.GroupID{notify.PerUser(alice.ID)},
		Payload: notify.EventPayload{
			Event: notify.EventTaskCreated,
			Task:  &notify.TaskView{ID: taskID, Title: title, User: "alice"},
		},
	})
	require.True(t, accepted)

	payload := readEvent(t, conn)
	assert.Equal(t, notify.EventTaskCreated, payload["event"])

	task, ok := payload["task"].(map[string]interface{})
	require.True(t, ok, "payload should carry a task object")
	assert.Equal(t, taskID.String(), task["id"])
	assert.Equal(t, title, task["title"])
}

func TestHandlerAdminReceivesOtherUsersEvents(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)
	f.addUser(t, "alice", false)
	admin := f.addUser(t, "root", true)

	f.jwtService.ValidateErr = nil
	f.jwtService.Claims = &auth.Claims{UserID: admin.ID}

	conn := f.dial(t, "admin-token", notify.AdminBroadcast())

	otherOwner := uuid.New()
	taskID := uuid.New()
	accepted := f.hub.Publish(notify.Event{
		Groups: []notify.GroupID{notify.PerUser(otherOwner), notify.AdminBroadcast()},
		Payload: notify.EventPayload{
			Event:   notify.EventTaskDeleted,
			TaskID:  &taskID,
			Deleted: true,
		},
	})
	require.True(t, accepted)

	payload := readEvent(t, conn)
	assert.Equal(t, notify.EventTaskDeleted, payload["event"])
	assert.Equal(t, taskID.String(), payload["id"])
	assert.Equal(t, true, payload["deleted"])
}

func TestHandlerDisconnectClearsMembership(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)
	alice := f.addUser(t, "alice", false)

	f.jwtService.ValidateErr = nil
	f.jwtService.Claims = &auth.Claims{UserID: alice.ID}

	conn := f.dial(t, "alice-token", notify.PerUser(alice.ID))

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return f.hub.GroupSize(notify.PerUser(alice.ID)) == 0
	}, 2*time.Second, 10*time.Millisecond, "membership should clear after disconnect")

	// Mutations keep flowing; a zero-member group just drops the event.
	accepted := f.hub.Publish(notify.Event{
		Groups: []notify.GroupID{notify.PerUser(alice.ID), notify.AdminBroadcast()},
		Payload: notify.EventPayload{
			Event: notify.EventTaskCreated,
			Task:  &notify.TaskView{ID: uuid.New(), Title: "After disconnect"},
		},
	})
	assert.True(t, accepted)
}

func TestHandlerNonAdminDoesNotSeeOtherUsersEvents(t *testing.T) {
	t.Parallel()
	f := newWSHandlerFixture(t)
	bob := f.addUser(t, "bob", false)

	f.jwtService.ValidateErr = nil
	f.jwtService.Claims = &auth.Claims{UserID: bob.ID}

	conn := f.dial(t, "bob-token", notify.PerUser(bob.ID))

	accepted := f.hub.Publish(notify.Event{
		Groups: []notify.GroupID{notify.PerUser(uuid.New()), notify.AdminBroadcast()},
		Payload: notify.EventPayload{
			Event: notify.EventTaskCreated,
			Task:  &notify.TaskView{ID: uuid.New(), Title: "Not for bob"},
		},
	})
	require.True(t, accepted)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "no message should arrive for an unrelated user")
	assert.True(t, strings.Contains(err.Error(), "timeout") || websocket.IsUnexpectedCloseError(err))
}
