package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskwire-api/internal/platform/logger"
	"github.com/phrazzld/taskwire-api/internal/service/auth"
	"github.com/phrazzld/taskwire-api/internal/store"
)

// Handler upgrades HTTP requests to websocket connections and walks them
// through the connection lifecycle: Connecting, then Authenticated once the
// handshake token validates, then Joined once registered with the hub.
// A missing or invalid token moves the connection to Rejected instead.
type Handler struct {
	hub        *Hub
	jwtService auth.JWTService
	userStore  store.UserStore
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a websocket Handler. If logger is nil, a default logger
// will be used.
func NewHandler(
	hub *Hub,
	jwtService auth.JWTService,
	userStore store.UserStore,
	logger *slog.Logger,
) *Handler {
	if hub == nil {
		panic("hub cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		hub:        hub,
		jwtService: jwtService,
		userStore:  userStore,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

// ServeHTTP handles GET /api/ws/tasks.
// The bearer credential arrives as a `token` query parameter because browser
// websocket clients cannot set an Authorization header on the handshake.
// Authentication failures are answered over HTTP before the upgrade; the
// connection never joins a group.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	token := r.URL.Query().Get("token")
	if token == "" {
		log.Debug("websocket handshake rejected, missing token")
		http.Error(w, "Authentication token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		log.Debug("websocket handshake rejected, invalid token",
			slog.String("error", err.Error()))
		http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
		return
	}

	// The token proves identity; the role flags that decide admin-group
	// membership live on the user row.
	user, err := h.userStore.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("websocket handshake rejected, unknown user",
				slog.String("user_id", claims.UserID.String()))
			http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
			return
		}
		log.Error("failed to load user during websocket handshake",
			slog.String("error", err.Error()),
			slog.String("user_id", claims.UserID.String()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(conn, user.ID, user.IsAdmin(), h.hub.config.ClientBufferSize, h.logger)
	h.hub.Join(client)

	log.Info("websocket connection established",
		slog.String("user_id", user.ID.String()),
		slog.Bool("admin", user.IsAdmin()))

	go client.writePump()
	go client.readPump(h.hub)
}
