package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"powerslide/internal/logger"
	"powerslide/internal/services"
)

// WebSocketHandler upgrades connections and subscribes them to deck events
type WebSocketHandler struct {
	hub      *services.DeckHub
	store    *services.DeckStore
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(hub *services.DeckHub, store *services.DeckStore) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket streams deck events to the client
// GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}
	h.hub.Serve(conn, h.store.Snapshot)
}
