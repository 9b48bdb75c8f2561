package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"powerslide/internal/models"
	"powerslide/internal/services"
)

// AddObjectRequest adds either a named preset or a full object
type AddObjectRequest struct {
	Preset string              `json:"preset,omitempty"`
	Object *models.SceneObject `json:"object,omitempty"`
}

// IDResponse carries the id of a created object
type IDResponse struct {
	ID string `json:"id"`
}

// AddObject places a new object on top of the current slide
// POST /api/objects
func (h *DeckHandler) AddObject(w http.ResponseWriter, r *http.Request) {
	var req AddObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var obj models.SceneObject
	switch {
	case req.Preset != "":
		preset, ok := models.Preset(req.Preset)
		if !ok {
			http.Error(w, "Unknown preset", http.StatusBadRequest)
			return
		}
		obj = preset
	case req.Object != nil:
		obj = *req.Object
	default:
		http.Error(w, "preset or object is required", http.StatusBadRequest)
		return
	}

	id, err := h.store.AddObject(obj)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// UpdateObject merges position, size, rotation or payload into an object
// PATCH /api/objects/{id}
func (h *DeckHandler) UpdateObject(w http.ResponseWriter, r *http.Request) {
	var patch models.ObjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateObject(mux.Vars(r)["id"], patch); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// UpdateObjectData merges fields into an object's payload
// PATCH /api/objects/{id}/data
func (h *DeckHandler) UpdateObjectData(w http.ResponseWriter, r *http.Request) {
	var patch models.DataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateObjectData(mux.Vars(r)["id"], patch); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// RemoveObject deletes an object from the current slide
// DELETE /api/objects/{id}
func (h *DeckHandler) RemoveObject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveObject(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// MoveForward raises an object one step
// POST /api/objects/{id}/forward
func (h *DeckHandler) MoveForward(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MoveForward(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// MoveBackward lowers an object one step
// POST /api/objects/{id}/backward
func (h *DeckHandler) MoveBackward(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MoveBackward(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// UploadImage ingests an image file and adds it to the current slide
// POST /api/images (multipart field "file")
func (h *DeckHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := services.IngestImage(header.Filename, file, h.maxImageBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.store.AddObject(models.ImagePreset(data))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// SelectRequest toggles an object in the selection
type SelectRequest struct {
	ID       string `json:"id"`
	Additive bool   `json:"additive"`
}

// Select toggles an object's selection
// POST /api/selection
func (h *DeckHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Select(req.ID, req.Additive))
}

// ClearSelection empties the selection
// DELETE /api/selection
func (h *DeckHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSelection()
	writeSuccess(w)
}

// RemoveSelection deletes every selected object
// DELETE /api/selection/objects
func (h *DeckHandler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveSelection(); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// SlideSnapshotRequest represents a request to save slide snapshot
type SlideSnapshotRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// SlideSnapshotResponse represents the response
type SlideSnapshotResponse struct {
	Success   bool   `json:"success"`
	ImagePath string `json:"imagePath"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Scale     int    `json:"scale"`
}

// SaveSlideSnapshot stores the rendered PNG of a slide
// POST /api/slides/{index}/snapshot
func (h *DeckHandler) SaveSlideSnapshot(w http.ResponseWriter, r *http.Request) {
	index, err := slideIndex(r)
	if err != nil {
		http.Error(w, "Invalid slide index", http.StatusBadRequest)
		return
	}
	var req SlideSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ImageBase64 == "" {
		http.Error(w, "imageBase64 is required", http.StatusBadRequest)
		return
	}

	deck := h.store.Snapshot()
	if index < 0 || index >= len(deck.Slides) {
		writeError(w, r, models.ErrSlideOutOfRange)
		return
	}

	imagePath, raster, err := h.snapshots.SaveSnapshot(deck.Slides[index].ID, req.ImageBase64)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SlideSnapshotResponse{
		Success:   true,
		ImagePath: imagePath,
		Filename:  services.PNGFilename(index),
		Width:     raster.Width,
		Height:    raster.Height,
		Scale:     services.ExportScale,
	})
}

// PDFLayout describes the pages of a PDF export built from stored snapshots
// GET /api/export/pdf-layout
func (h *DeckHandler) PDFLayout(w http.ResponseWriter, r *http.Request) {
	deck := h.store.Snapshot()
	layout, err := h.snapshots.DeckLayout(deck.Title, deck.Slides)
	if errors.Is(err, models.ErrSnapshotNotFound) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}
