package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerslide/internal/models"
)

func readEvent(t *testing.T, conn *websocket.Conn) DeckEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event DeckEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestDeckHub_PushesStoreChanges(t *testing.T) {
	hub := NewDeckHub()
	go hub.Run()
	defer hub.Stop()

	store, _ := newTestStore(t)
	store.OnChange(hub.Publish)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, store.Snapshot)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readEvent(t, conn)
	assert.Equal(t, "deck", initial.Type)
	assert.Equal(t, models.DefaultTitle, initial.Deck.Title)

	require.NoError(t, store.SetTitle("Live"))
	event := readEvent(t, conn)
	assert.Equal(t, "Live", event.Deck.Title)

	store.Select("obj", false)
	event = readEvent(t, conn)
	assert.Equal(t, models.Selection{"obj"}, event.Deck.Selection)
}

func serveHub(t *testing.T, hub *DeckHub, current func() models.Deck) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, current)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDeckHub_SkipsStaleVersions(t *testing.T) {
	hub := NewDeckHub()
	go hub.Run()
	defer hub.Stop()

	conn := serveHub(t, hub, func() models.Deck { return models.Deck{Title: "initial", Version: 1} })
	assert.Equal(t, "initial", readEvent(t, conn).Deck.Title)

	hub.Publish(models.Deck{Title: "B", Version: 3})
	assert.Equal(t, "B", readEvent(t, conn).Deck.Title)

	hub.Publish(models.Deck{Title: "A", Version: 2})
	hub.Publish(models.Deck{Title: "old", Version: 1})
	hub.Publish(models.Deck{Title: "C", Version: 4})
	event := readEvent(t, conn)
	assert.Equal(t, "C", event.Deck.Title)
	assert.Equal(t, uint64(4), event.Deck.Version)
}

func TestDeckHub_ChangeDuringConnectIsDelivered(t *testing.T) {
	hub := NewDeckHub()
	go hub.Run()
	defer hub.Stop()

	conn := serveHub(t, hub, func() models.Deck {
		// A change lands between registration and the initial read
		hub.Publish(models.Deck{Title: "during", Version: 6})
		return models.Deck{Title: "initial", Version: 5}
	})

	assert.Equal(t, "initial", readEvent(t, conn).Deck.Title)
	assert.Equal(t, "during", readEvent(t, conn).Deck.Title)
}

func TestDeckHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewDeckHub()
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(models.Deck{Title: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked after Stop")
	}
}
