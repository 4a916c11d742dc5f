package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskwire-api/internal/notify"
)

// HubConfig holds the buffer sizes for the hub and its connections.
type HubConfig struct {
	// EventBufferSize is the capacity of the inbound event channel.
	EventBufferSize int

	// ClientBufferSize is the per-connection outbound message buffer.
	ClientBufferSize int
}

// DefaultHubConfig returns a HubConfig with reasonable defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		EventBufferSize:  256,
		ClientBufferSize: 32,
	}
}

// Hub is the subscription registry: it tracks which live connections belong
// to which broadcast groups and fans committed mutation events out to them.
//
// Publish is the hand-off point between the mutating request's execution
// path and the delivery domain: it enqueues onto a buffered channel and
// returns immediately; the Run loop drains the channel and writes to
// per-connection buffers in arrival order. Events for groups with no members
// are dropped silently. A connection that cannot keep up (full buffer) is
// closed rather than awaited.
type Hub struct {
	config HubConfig
	logger *slog.Logger

	events   chan notify.Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu     sync.RWMutex
	groups map[notify.GroupID]map[*Client]struct{}
}

// NewHub creates a new Hub. Zero or negative buffer sizes fall back to the
// defaults. If logger is nil, a default logger will be used.
func NewHub(config HubConfig, logger *slog.Logger) *Hub {
	def := DefaultHubConfig()
	if config.EventBufferSize <= 0 {
		config.EventBufferSize = def.EventBufferSize
	}
	if config.ClientBufferSize <= 0 {
		config.ClientBufferSize = def.ClientBufferSize
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		config: config,
		logger: logger.With(slog.String("component", "ws_hub")),
		events: make(chan notify.Event, config.EventBufferSize),
		done:   make(chan struct{}),
		groups: make(map[notify.GroupID]map[*Client]struct{}),
	}
}

// Ensure Hub implements notify.Publisher interface
var _ notify.Publisher = (*Hub)(nil)

// Start launches the fan-out loop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

// Stop shuts the hub down: the fan-out loop drains and exits, and every
// remaining connection is detached. In-flight undelivered events are
// discarded. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
	h.wg.Wait()

	for _, client := range h.snapshotClients() {
		h.Leave(client)
	}
}

// Publish implements notify.Publisher.
// It never blocks: when the event buffer is full or the hub is stopped the
// event is rejected and the caller's logging is the only trace of it.
func (h *Hub) Publish(event notify.Event) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.events <- event:
		return true
	default:
		return false
	}
}

// Join adds the client to every group it declares. Reaching this point is
// the Joined state of the connection lifecycle; from here on the client
// receives every event published to its groups until Leave.
func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, group := range client.groups {
		members, ok := h.groups[group]
		if !ok {
			members = make(map[*Client]struct{})
			h.groups[group] = members
		}
		members[client] = struct{}{}
	}

	h.logger.Debug("connection joined",
		slog.String("user_id", client.userID.String()),
		slog.Int("group_count", len(client.groups)))
}

// Leave removes the client from every group and closes its outbound buffer.
// It is unconditional and idempotent: removing an absent member is a no-op,
// and the buffer is closed exactly once no matter how many times the
// connection's teardown paths race here.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	for _, group := range client.groups {
		if members, ok := h.groups[group]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.groups, group)
			}
		}
	}
	h.mu.Unlock()

	client.closeSend()
}

// GroupSize reports the current member count of a group.
func (h *Hub) GroupSize(group notify.GroupID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// run drains the event channel until Stop.
func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case event := <-h.events:
			h.fanOut(event)
		case <-h.done:
			return
		}
	}
}

// fanOut serializes the payload once and offers it to every connection in
// the event's target groups. A connection joined to several target groups
// (an admin mutating its own tasks) receives the event once. Full buffers
// disconnect the offending client; nothing is retried.
func (h *Hub) fanOut(event notify.Event) {
	message, err := json.Marshal(event.Payload)
	if err != nil {
		h.logger.Error("failed to marshal event payload",
			slog.String("error", err.Error()),
			slog.String("event", event.Payload.Event))
		return
	}

	h.mu.RLock()
	seen := make(map[*Client]struct{})
	var recipients []*Client
	for _, group := range event.Groups {
		for client := range h.groups[group] {
			if _, dup := seen[client]; dup {
				continue
			}
			seen[client] = struct{}{}
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		// No live connections in any target group: best-effort delivery
		// means the event simply disappears.
		h.logger.Debug("event dropped, no subscribers",
			slog.String("event", event.Payload.Event))
		return
	}

	var slow []*Client
	for _, client := range recipients {
		if !client.enqueue(message) {
			slow = append(slow, client)
		}
	}

	for _, client := range slow {
		h.logger.Warn("closing slow connection",
			slog.String("user_id", client.userID.String()))
		h.Leave(client)
	}
}

// snapshotClients collects every currently joined client.
func (h *Hub) snapshotClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	var clients []*Client
	for _, members := range h.groups {
		for client := range members {
			if _, dup := seen[client]; dup {
				continue
			}
			seen[client] = struct{}{}
			clients = append(clients, client)
		}
	}
	return clients
}
