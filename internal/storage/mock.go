package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing. It
// stores marshaled documents so loads return independent copies, the same
// way the Redis implementation behaves.
type MockStorage struct {
	scenarios  map[string][]byte
	adventures map[uuid.UUID][]byte
	events     map[uuid.UUID][][]byte

	pingError   error
	commitError error

	CommitTurnCalls int
	RewriteLogCalls int

	mu sync.Mutex
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		scenarios:  make(map[string][]byte),
		adventures: make(map[uuid.UUID][]byte),
		events:     make(map[uuid.UUID][][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetCommitError configures the mock to fail on CommitTurn with the given error
func (m *MockStorage) SetCommitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveScenario(ctx context.Context, s *scenario.Scenario) error {
	if s == nil || s.ID == "" {
		return errors.New("scenario with ID is required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ID] = data
	return nil
}

func (m *MockStorage) GetScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	m.mu.Lock()
	data, exists := m.scenarios[id]
	m.mu.Unlock()
	if !exists {
		return nil, fmt.Errorf("scenario %q: %w", id, ErrNotFound)
	}
	var s scenario.Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockStorage) ListScenarios(ctx context.Context) ([]scenario.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scenarios := make([]scenario.Scenario, 0, len(m.scenarios))
	for _, data := range m.scenarios {
		var s scenario.Scenario
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (m *MockStorage) DeleteScenario(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scenarios, id)
	return nil
}

func (m *MockStorage) SaveAdventure(ctx context.Context, adv *state.Adventure) error {
	if adv == nil {
		return errors.New("adventure cannot be nil")
	}
	data, err := json.Marshal(adv)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adventures[adv.ID] = data
	return nil
}

func (m *MockStorage) LoadAdventure(ctx context.Context, id uuid.UUID) (*state.Adventure, error) {
	m.mu.Lock()
	data, exists := m.adventures[id]
	m.mu.Unlock()
	if !exists {
		return nil, fmt.Errorf("adventure %s: %w", id, ErrNotFound)
	}
	var adv state.Adventure
	if err := json.Unmarshal(data, &adv); err != nil {
		return nil, err
	}
	return &adv, nil
}

func (m *MockStorage) ListAdventures(ctx context.Context) ([]AdventureSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]AdventureSummary, 0, len(m.adventures))
	for id, data := range m.adventures {
		var adv state.Adventure
		if err := json.Unmarshal(data, &adv); err != nil {
			return nil, err
		}
		summaries = append(summaries, AdventureSummary{
			ID:         adv.ID,
			ScenarioID: adv.ScenarioID,
			Title:      adv.Title,
			Turns:      int64(len(m.events[id])),
			CreatedAt:  adv.CreatedAt,
			UpdatedAt:  adv.UpdatedAt,
		})
	}
	return summaries, nil
}

func (m *MockStorage) DeleteAdventure(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.adventures, id)
	delete(m.events, id)
	return nil
}

func (m *MockStorage) CommitTurn(ctx context.Context, adv *state.Adventure, event *state.Event) error {
	if adv == nil || event == nil {
		return errors.New("adventure and event are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitTurnCalls++
	if m.commitError != nil {
		return m.commitError
	}

	advData, err := json.Marshal(adv)
	if err != nil {
		return err
	}
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}
	m.adventures[adv.ID] = advData
	m.events[adv.ID] = append(m.events[adv.ID], eventData)
	return nil
}

func (m *MockStorage) ListEvents(ctx context.Context, id uuid.UUID, start, stop int64) ([]state.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.events[id]
	n := int64(len(log))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return []state.Event{}, nil
	}

	events := make([]state.Event, 0, stop-start+1)
	for _, data := range log[start : stop+1] {
		var e state.Event
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (m *MockStorage) CountEvents(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.events[id])), nil
}

func (m *MockStorage) RewriteLog(ctx context.Context, adv *state.Adventure, keep int64) error {
	if adv == nil {
		return errors.New("adventure cannot be nil")
	}
	if keep < 0 {
		return fmt.Errorf("keep must be non-negative, got %d", keep)
	}

	data, err := json.Marshal(adv)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.RewriteLogCalls++
	m.adventures[adv.ID] = data
	if log := m.events[adv.ID]; int64(len(log)) > keep {
		m.events[adv.ID] = log[:keep]
	}
	return nil
}
