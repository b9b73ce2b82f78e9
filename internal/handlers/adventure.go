package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/internal/storage"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// AdventureHandler serves the adventure lifecycle and turn processing.
// Routes:
// GET /v1/adventures              - List adventures
// POST /v1/adventures             - Start an adventure from a scenario
// GET /v1/adventures/{id}         - Read adventure state
// DELETE /v1/adventures/{id}      - Delete an adventure
// GET /v1/adventures/{id}/events     - Read the event log
// POST /v1/adventures/{id}/turn      - Take a turn
// POST /v1/adventures/{id}/undo      - Undo the last turn
// POST /v1/adventures/{id}/summarize - Refresh the rolling story summary
type AdventureHandler struct {
	log     *slog.Logger
	engine  *engine.Engine
	storage storage.Storage
}

func NewAdventureHandler(log *slog.Logger, eng *engine.Engine, storage storage.Storage) *AdventureHandler {
	return &AdventureHandler{
		log:     log,
		engine:  eng,
		storage: storage,
	}
}

// CreateAdventureRequest starts a playthrough of a scenario.
type CreateAdventureRequest struct {
	ScenarioID string `json:"scenario_id"`
	Title      string `json:"title,omitempty"`
}

// CreateAdventureResponse returns the new adventure with its opening event.
type CreateAdventureResponse struct {
	Adventure *state.Adventure `json:"adventure"`
	Opening   *state.Event     `json:"opening"`
}

// UndoResponse returns the removed event and the rewound adventure.
type UndoResponse struct {
	Removed   *state.Event     `json:"removed"`
	Adventure *state.Adventure `json:"adventure"`
}

// SummaryResponse returns the refreshed rolling story summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

func (h *AdventureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/adventures"), "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
		}
		return
	}

	parts := strings.SplitN(path, "/", 2)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.log.Warn("Invalid adventure ID", "id", parts[0], "error", err)
		writeError(w, h.log, http.StatusBadRequest, "Invalid adventure ID format")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case action == "events" && r.Method == http.MethodGet:
		h.handleEvents(w, r, id)
	case action == "turn" && r.Method == http.MethodPost:
		h.handleTurn(w, r, id)
	case action == "undo" && r.Method == http.MethodPost:
		h.handleUndo(w, r, id)
	case action == "summarize" && r.Method == http.MethodPost:
		h.handleSummarize(w, r, id)
	default:
		writeError(w, h.log, http.StatusNotFound, "Unknown adventure operation")
	}
}

func (h *AdventureHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.storage.ListAdventures(r.Context())
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, summaries)
}

func (h *AdventureHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateAdventureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScenarioID == "" {
		writeError(w, h.log, http.StatusBadRequest, "scenario_id is required")
		return
	}

	adv, opening, err := h.engine.StartAdventure(r.Context(), req.ScenarioID, req.Title)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, CreateAdventureResponse{
		Adventure: adv,
		Opening:   opening,
	})
}

func (h *AdventureHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	adv, err := h.storage.LoadAdventure(r.Context(), id)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, adv)
}

func (h *AdventureHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, err := h.storage.LoadAdventure(r.Context(), id); err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	if err := h.engine.DeleteAdventure(r.Context(), id); err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdventureHandler) handleEvents(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, err := h.storage.LoadAdventure(r.Context(), id); err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	events, err := h.engine.History(r.Context(), id)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, events)
}

func (h *AdventureHandler) handleTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req engine.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.ProcessTurn(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidTurn) {
			writeError(w, h.log, http.StatusBadRequest, err.Error())
			return
		}
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, result)
}

func (h *AdventureHandler) handleUndo(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	removed, adv, err := h.engine.Undo(r.Context(), id)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, UndoResponse{
		Removed:   removed,
		Adventure: adv,
	})
}

func (h *AdventureHandler) handleSummarize(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	summary, err := h.engine.Summarize(r.Context(), id)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, SummaryResponse{Summary: summary})
}
