package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/internal/storage"
	"github.com/lorebound/adventure-engine/pkg/scenario"
)

// ScenarioHandler serves scenario CRUD and NPC generation.
// Routes:
// GET /v1/scenarios                       - List scenarios
// POST /v1/scenarios                      - Create or replace a scenario
// GET /v1/scenarios/{id}                  - Read a scenario
// DELETE /v1/scenarios/{id}               - Delete a scenario
// POST /v1/scenarios/{id}/generate-npc    - Generate a character card for the scenario
type ScenarioHandler struct {
	log     *slog.Logger
	storage storage.Storage
	engine  *engine.Engine
}

func NewScenarioHandler(log *slog.Logger, storage storage.Storage, eng *engine.Engine) *ScenarioHandler {
	return &ScenarioHandler{
		log:     log,
		storage: storage,
		engine:  eng,
	}
}

// GenerateNPCRequest asks for a new character fitting the scenario.
type GenerateNPCRequest struct {
	CreationContext string `json:"creation_context"`
}

func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenarios"), "/")

	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if len(parts) == 2 {
		if parts[1] == "generate-npc" && r.Method == http.MethodPost {
			h.handleGenerateNPC(w, r, id)
			return
		}
		writeError(w, h.log, http.StatusNotFound, "Unknown scenario operation")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if id == "" {
			h.handleList(w, r)
			return
		}
		h.handleGet(w, r, id)
	case http.MethodPost:
		if id != "" {
			writeError(w, h.log, http.StatusBadRequest, "POST does not take a scenario ID in the path")
			return
		}
		h.handleCreate(w, r)
	case http.MethodDelete:
		if id == "" {
			writeError(w, h.log, http.StatusBadRequest, "Scenario ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, id)
	default:
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST, DELETE")
	}
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.storage.ListScenarios(r.Context())
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, scenarios)
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.storage.GetScenario(r.Context(), id)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, s)
}

func (h *ScenarioHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var s scenario.Scenario
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if s.ID == "" {
		writeError(w, h.log, http.StatusBadRequest, "Scenario ID is required")
		return
	}
	if err := s.Validate(); err != nil {
		writeError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.storage.SaveScenario(r.Context(), &s); err != nil {
		writeStorageError(w, h.log, err)
		return
	}

	h.log.Info("scenario saved", "scenario_id", s.ID, "title", s.Title)
	writeJSON(w, h.log, http.StatusCreated, s)
}

func (h *ScenarioHandler) handleGenerateNPC(w http.ResponseWriter, r *http.Request, id string) {
	var req GenerateNPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.CreationContext) == "" {
		writeError(w, h.log, http.StatusBadRequest, "creation_context is required")
		return
	}

	card, err := h.engine.GenerateNPC(r.Context(), id, req.CreationContext)
	if err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, card)
}

func (h *ScenarioHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.storage.GetScenario(r.Context(), id); err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	if err := h.storage.DeleteScenario(r.Context(), id); err != nil {
		writeStorageError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
