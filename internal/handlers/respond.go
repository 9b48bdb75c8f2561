package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"powerslide/internal/logger"
	"powerslide/internal/models"
)

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps store and service errors to HTTP status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrSlideOutOfRange), errors.Is(err, models.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUnknownObjectType), errors.Is(err, models.ErrInvalidImage):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}

// SuccessResponse is returned by operations without a result value
type SuccessResponse struct {
	Success bool `json:"success"`
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
