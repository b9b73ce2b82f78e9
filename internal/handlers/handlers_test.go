package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/internal/services"
	"github.com/lorebound/adventure-engine/internal/storage"
	"github.com/lorebound/adventure-engine/pkg/chat"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testScenario() *scenario.Scenario {
	return &scenario.Scenario{
		ID:     "harbor-mystery",
		Title:  "The Harbor Mystery",
		Status: scenario.StatusPublished,
		StoryCards: []scenario.StoryCard{
			{Type: scenario.CardPC, Name: "Aldric", Entry: "A traveling scribe."},
			{Type: scenario.CardCharacter, Name: "Greta", Entry: "The innkeeper.", Triggers: []string{"inn"}},
		},
		OpeningLocation:  "The Rusty Anchor",
		OpeningSituation: "Rain drums on the inn windows.",
	}
}

type testEnv struct {
	llm   *services.MockLLMService
	store *storage.MockStorage
	eng   *engine.Engine
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	llm := services.NewMockLLMService()
	store := storage.NewMockStorage()
	require.NoError(t, store.SaveScenario(context.Background(), testScenario()))
	return &testEnv{
		llm:   llm,
		store: store,
		eng:   engine.New(llm, store, testLogger()),
	}
}

func (env *testEnv) startAdventure(t *testing.T) *state.Adventure {
	t.Helper()
	adv, _, err := env.eng.StartAdventure(context.Background(), "harbor-mystery", "")
	require.NoError(t, err)
	return adv
}

func TestHealthHandler(t *testing.T) {
	env := setup(t)
	h := NewHealthHandler(env.store, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["storage"])

	env.store.SetPingError(errors.New("down"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScenarioHandler_CRUD(t *testing.T) {
	env := setup(t)
	h := NewScenarioHandler(testLogger(), env.store, env.eng)

	// List
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []scenario.Scenario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// Get
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scenarios/harbor-mystery", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Get missing
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scenarios/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Create
	s := testScenario()
	s.ID = "second"
	body, err := json.Marshal(s)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios", bytes.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Create invalid: no PC card
	bad := testScenario()
	bad.ID = "bad"
	bad.StoryCards = bad.StoryCards[1:]
	body, err = json.Marshal(bad)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/scenarios/second", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Method not allowed
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/v1/scenarios/harbor-mystery", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdventureHandler_Create(t *testing.T) {
	env := setup(t)
	h := NewAdventureHandler(testLogger(), env.eng, env.store)

	body := []byte(`{"scenario_id": "harbor-mystery", "title": "A Night at the Anchor"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateAdventureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A Night at the Anchor", resp.Adventure.Title)
	require.NotNil(t, resp.Opening)
	assert.Contains(t, resp.Opening.Narration, "Rain drums")

	// Unknown scenario
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures", bytes.NewReader([]byte(`{"scenario_id": "nope"}`))))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing scenario ID
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdventureHandler_GetListDelete(t *testing.T) {
	env := setup(t)
	adv := env.startAdventure(t)
	h := NewAdventureHandler(testLogger(), env.eng, env.store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/adventures/"+adv.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/adventures", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []storage.AdventureSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, adv.ID, summaries[0].ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/adventures/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/adventures/"+adv.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/adventures/"+adv.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdventureHandler_Turn(t *testing.T) {
	env := setup(t)
	adv := env.startAdventure(t)
	h := NewAdventureHandler(testLogger(), env.eng, env.store)

	env.llm.WorldDecisionFunc = func(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error) {
		return &state.WorldDecision{
			Narration: "Greta nods toward an empty table.",
			NPCResponses: []state.NPCResponse{
				{CharacterName: "Greta", ShouldRespond: true},
			},
		}, nil
	}

	body := []byte(`{"actor_name": "Aldric", "action_type": "say", "input": "Good evening."}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/turn", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var result engine.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Greta nods toward an empty table.", result.Event.Narration)
	require.Len(t, result.Event.CharacterActions, 1)

	// Empty input is the caller's fault
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/turn", bytes.NewReader([]byte(`{"input": ""}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// World call transport failure is not
	env.llm.SetWorldDecisionError(errors.New("connection refused"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/turn", bytes.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdventureHandler_UndoAndEvents(t *testing.T) {
	env := setup(t)
	adv := env.startAdventure(t)
	h := NewAdventureHandler(testLogger(), env.eng, env.store)

	turnBody := []byte(`{"actor_name": "Aldric", "input": "look around"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/turn", bytes.NewReader(turnBody)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/adventures/"+adv.ID.String()+"/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var events []state.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 2)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/undo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var undo UndoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &undo))
	assert.Equal(t, 1, undo.Removed.Sequence)

	// Undo the opening, then the log is empty
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/undo", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/undo", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScenarioHandler_GenerateNPC(t *testing.T) {
	env := setup(t)
	h := NewScenarioHandler(testLogger(), env.store, env.eng)

	env.llm.GenerateNPCFunc = func(ctx context.Context, messages []chat.Message) (*scenario.StoryCard, error) {
		return &scenario.StoryCard{
			Type:     scenario.CardCharacter,
			Name:     "Marlow",
			Entry:    "A dockworker with a guilty look.",
			Triggers: []string{"marlow"},
		}, nil
	}

	body := []byte(`{"creation_context": "a witness on the docks"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios/harbor-mystery/generate-npc", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var card scenario.StoryCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "Marlow", card.Name)
	assert.Equal(t, scenario.CardCharacter, card.Type)

	// Missing context is the caller's fault
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios/harbor-mystery/generate-npc", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown scenario
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios/nope/generate-npc", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown sub-path
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios/harbor-mystery/frobnicate", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdventureHandler_Summarize(t *testing.T) {
	env := setup(t)
	adv := env.startAdventure(t)
	h := NewAdventureHandler(testLogger(), env.eng, env.store)

	env.llm.StorySummaryFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "Aldric settled in at the Rusty Anchor.", nil
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+adv.ID.String()+"/summarize", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Aldric settled in at the Rusty Anchor.", resp.Summary)

	// Unknown adventure
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+uuid.NewString()+"/summarize", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdventureHandler_UnknownOperation(t *testing.T) {
	env := setup(t)
	h := NewAdventureHandler(testLogger(), env.eng, env.store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/adventures/"+uuid.NewString()+"/frobnicate", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
