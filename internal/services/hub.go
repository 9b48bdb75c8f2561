package services

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"powerslide/internal/logger"
	"powerslide/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientBuffer   = 16
)

// DeckEvent is pushed to every subscriber after a deck change
type DeckEvent struct {
	Type string      `json:"type"`
	Deck models.Deck `json:"deck"`
}

// deckMessage is an encoded event tagged with the deck version it carries
type deckMessage struct {
	version uint64
	payload []byte
}

// client is one websocket subscriber
type client struct {
	hub     *DeckHub
	conn    *websocket.Conn
	send    chan deckMessage
	initial deckMessage
	sent    uint64
}

// DeckHub fans deck events out to websocket subscribers
type DeckHub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan deckMessage
	done       chan struct{}
}

// NewDeckHub creates a hub; call Run to start delivering events
func NewDeckHub() *DeckHub {
	return &DeckHub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan deckMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run delivers events until Stop is called
func (h *DeckHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			logger.Logger.Debug().Int("clients", len(h.clients)).Msg("Deck subscriber connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow subscriber, drop it
					delete(h.clients, c)
					close(c.send)
					logger.Logger.Warn().Msg("Dropped slow deck subscriber")
				}
			}
		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

func (h *DeckHub) Stop() {
	close(h.done)
}

// Publish queues a deck event for every subscriber. It matches ChangeFunc
// so it can be passed straight to DeckStore.OnChange. Events may arrive out
// of order; subscribers skip any deck older than the last one they sent.
func (h *DeckHub) Publish(deck models.Deck) {
	message, err := encodeEvent(deck)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode deck event")
		return
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func encodeEvent(deck models.Deck) (deckMessage, error) {
	payload, err := json.Marshal(DeckEvent{Type: "deck", Deck: deck})
	if err != nil {
		return deckMessage{}, err
	}
	return deckMessage{version: deck.Version, payload: payload}, nil
}

// Serve registers conn as a subscriber, sends it the deck returned by
// current and blocks until the connection closes. current is read after
// registration so no change can fall between the two.
func (h *DeckHub) Serve(conn *websocket.Conn, current func() models.Deck) {
	c := &client{hub: h, conn: conn, send: make(chan deckMessage, clientBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	message, err := encodeEvent(current())
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode deck event")
		c.leave()
		return
	}
	c.initial = message

	go c.writePump()
	c.readPump()
}

// stale reports whether m is older than what the client already has
func (c *client) stale(m deckMessage) bool {
	return m.version <= c.sent
}

// leave unregisters the client and closes its connection
func (c *client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	c.conn.Close()
}

// readPump discards incoming messages and keeps the connection alive
func (c *client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Logger.Debug().Err(err).Msg("Deck subscriber read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, c.initial.payload); err != nil {
		return
	}
	c.sent = c.initial.version

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if c.stale(message) {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message.payload); err != nil {
				return
			}
			c.sent = message.version
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
