package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"powerslide/internal/logger"
	"powerslide/internal/models"
	"powerslide/internal/services"
)

// maxDeckFileBytes bounds an imported deck file; image data URLs make them large
const maxDeckFileBytes = 64 << 20

// DeckHandler handles HTTP requests against the deck store
type DeckHandler struct {
	store         *services.DeckStore
	snapshots     *services.SnapshotStore
	maxImageBytes int64
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(store *services.DeckStore, snapshots *services.SnapshotStore, maxImageBytes int64) *DeckHandler {
	return &DeckHandler{
		store:         store,
		snapshots:     snapshots,
		maxImageBytes: maxImageBytes,
	}
}

func slideIndex(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["index"])
}

// GetDeck returns the full editor state
// GET /api/deck
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// TitleRequest represents a request to rename the deck
type TitleRequest struct {
	Title string `json:"title"`
}

// SetTitle renames the deck
// PUT /api/deck/title
func (h *DeckHandler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.SetTitle(req.Title); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// Reset replaces the deck with a blank one
// POST /api/deck/reset
func (h *DeckHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// LoadResponse reports what the sink held
type LoadResponse struct {
	Result string `json:"result"`
}

// Load restores the deck from the sink
// POST /api/deck/load
func (h *DeckHandler) Load(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Load()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoadResponse{Result: result.String()})
}

// Save writes the deck to the sink
// POST /api/deck/save
func (h *DeckHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Save(); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// Export downloads the deck as a JSON file
// GET /api/deck/export
func (h *DeckHandler) Export(w http.ResponseWriter, r *http.Request) {
	deck := h.store.Snapshot()
	data, err := services.ExportDeck(deck.Document())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename(deck.Title)))
	w.Write(data)
}

// Import replaces the deck with an uploaded deck file
// POST /api/deck/import
func (h *DeckHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDeckFileBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	doc, err := services.ParseDeckFile(data)
	if err != nil {
		logger.Logger.Info().Err(err).Msg("Rejected deck file")
		http.Error(w, "Invalid deck file", http.StatusBadRequest)
		return
	}
	if err := h.store.Import(doc); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// IndexResponse carries the index of a slide
type IndexResponse struct {
	Index int `json:"index"`
}

// AddSlide appends a slide, seeded from the body when one is sent
// POST /api/slides
func (h *DeckHandler) AddSlide(w http.ResponseWriter, r *http.Request) {
	var initial *models.Slide
	var slide models.Slide
	err := json.NewDecoder(r.Body).Decode(&slide)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	default:
		initial = &slide
	}

	index, err := h.store.AddSlide(initial)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IndexResponse{Index: index})
}

// RemoveSlide deletes a slide; the last slide is never removed
// DELETE /api/slides/{index}
func (h *DeckHandler) RemoveSlide(w http.ResponseWriter, r *http.Request) {
	index, err := slideIndex(r)
	if err != nil {
		http.Error(w, "Invalid slide index", http.StatusBadRequest)
		return
	}
	if err := h.store.RemoveSlide(index); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// CurrentRequest selects the active slide
type CurrentRequest struct {
	Index int `json:"index"`
}

// SetCurrent switches the active slide
// PUT /api/slides/current
func (h *DeckHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req CurrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.SetCurrent(req.Index); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// UpdateSlide merges a patch into a slide; a name-only patch is a rename
// PATCH /api/slides/{index}
func (h *DeckHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	index, err := slideIndex(r)
	if err != nil {
		http.Error(w, "Invalid slide index", http.StatusBadRequest)
		return
	}
	var patch models.SlidePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if patch.Name != nil && patch.Background == nil && patch.Objects == nil {
		err = h.store.RenameSlide(index, *patch.Name)
	} else {
		err = h.store.UpdateSlide(index, patch)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}
