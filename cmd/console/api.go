package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/internal/handlers"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeResponse(resp *http.Response, wantStatus int, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func listScenarios(client *http.Client, baseURL string) ([]scenario.Scenario, error) {
	resp, err := client.Get(baseURL + "/v1/scenarios")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var scenarios []scenario.Scenario
	if err := decodeResponse(resp, http.StatusOK, &scenarios); err != nil {
		return nil, err
	}
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Title < scenarios[j].Title
	})
	return scenarios, nil
}

func createAdventure(client *http.Client, baseURL, scenarioID string) (*handlers.CreateAdventureResponse, error) {
	jsonData, err := json.Marshal(handlers.CreateAdventureRequest{ScenarioID: scenarioID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/adventures",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var created handlers.CreateAdventureResponse
	if err := decodeResponse(resp, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("failed to create adventure: %w", err)
	}
	return &created, nil
}

func getAdventure(client *http.Client, baseURL string, id uuid.UUID) (*state.Adventure, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/adventures/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var adv state.Adventure
	if err := decodeResponse(resp, http.StatusOK, &adv); err != nil {
		return nil, fmt.Errorf("failed to get adventure: %w", err)
	}
	return &adv, nil
}

func takeTurn(client *http.Client, baseURL string, id uuid.UUID, req engine.TurnRequest) (*engine.TurnResult, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/adventures/%s/turn", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var result engine.TurnResult
	if err := decodeResponse(resp, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("turn failed: %w", err)
	}
	return &result, nil
}

func undoTurn(client *http.Client, baseURL string, id uuid.UUID) (*handlers.UndoResponse, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/adventures/%s/undo", baseURL, id),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var undo handlers.UndoResponse
	if err := decodeResponse(resp, http.StatusOK, &undo); err != nil {
		return nil, fmt.Errorf("undo failed: %w", err)
	}
	return &undo, nil
}

func getEvents(client *http.Client, baseURL string, id uuid.UUID) ([]state.Event, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/adventures/%s/events", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var events []state.Event
	if err := decodeResponse(resp, http.StatusOK, &events); err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}
