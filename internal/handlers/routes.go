package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"powerslide/internal/logger"
)

// SetupRoutes wires every endpoint onto a router
func SetupRoutes(deckHandler *DeckHandler, wsHandler *WebSocketHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// Deck
	api.HandleFunc("/deck", deckHandler.GetDeck).Methods("GET")
	api.HandleFunc("/deck/title", deckHandler.SetTitle).Methods("PUT")
	api.HandleFunc("/deck/reset", deckHandler.Reset).Methods("POST")
	api.HandleFunc("/deck/load", deckHandler.Load).Methods("POST")
	api.HandleFunc("/deck/save", deckHandler.Save).Methods("POST")
	api.HandleFunc("/deck/export", deckHandler.Export).Methods("GET")
	api.HandleFunc("/deck/import", deckHandler.Import).Methods("POST")

	// Slides
	api.HandleFunc("/slides", deckHandler.AddSlide).Methods("POST")
	api.HandleFunc("/slides/current", deckHandler.SetCurrent).Methods("PUT")
	api.HandleFunc("/slides/{index:[0-9]+}", deckHandler.UpdateSlide).Methods("PATCH")
	api.HandleFunc("/slides/{index:[0-9]+}", deckHandler.RemoveSlide).Methods("DELETE")
	api.HandleFunc("/slides/{index:[0-9]+}/snapshot", deckHandler.SaveSlideSnapshot).Methods("POST")
	api.HandleFunc("/export/pdf-layout", deckHandler.PDFLayout).Methods("GET")

	// Objects
	api.HandleFunc("/objects", deckHandler.AddObject).Methods("POST")
	api.HandleFunc("/objects/{id}", deckHandler.UpdateObject).Methods("PATCH")
	api.HandleFunc("/objects/{id}", deckHandler.RemoveObject).Methods("DELETE")
	api.HandleFunc("/objects/{id}/data", deckHandler.UpdateObjectData).Methods("PATCH")
	api.HandleFunc("/objects/{id}/forward", deckHandler.MoveForward).Methods("POST")
	api.HandleFunc("/objects/{id}/backward", deckHandler.MoveBackward).Methods("POST")
	api.HandleFunc("/images", deckHandler.UploadImage).Methods("POST")

	// Selection
	api.HandleFunc("/selection", deckHandler.Select).Methods("POST")
	api.HandleFunc("/selection", deckHandler.ClearSelection).Methods("DELETE")
	api.HandleFunc("/selection/objects", deckHandler.RemoveSelection).Methods("DELETE")

	router.HandleFunc("/ws", wsHandler.HandleWebSocket)

	return router
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade needs the raw ResponseWriter (http.Hijacker)
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}
