package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/internal/storage"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	writeJSON(w, log, status, ErrorResponse{Error: message})
}

// writeStorageError maps common engine and storage errors to HTTP statuses.
func writeStorageError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, log, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNothingToUndo):
		writeError(w, log, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrScenarioUnavailable):
		writeError(w, log, http.StatusConflict, err.Error())
	default:
		log.Error("Request failed", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Internal server error")
	}
}
