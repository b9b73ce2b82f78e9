package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/internal/services"
	"github.com/lorebound/adventure-engine/internal/storage"
	"github.com/lorebound/adventure-engine/pkg/prompts"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

const (
	// DefaultTurnTimeout bounds the world-decision call.
	DefaultTurnTimeout = 60 * time.Second

	// DefaultVoiceTimeout bounds each character-voice call.
	DefaultVoiceTimeout = 30 * time.Second
)

// ErrNothingToUndo is returned when undo is requested on an empty event log.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrScenarioUnavailable is returned when an adventure is started from a
// scenario that is not playable in the current environment.
var ErrScenarioUnavailable = errors.New("scenario is not available for play")

// Engine runs adventure turns: trigger matching, the world-decision call,
// character voice dispatch, event composition and commit. Turns for the same
// adventure are serialized; turns for different adventures run concurrently.
type Engine struct {
	llm    services.LLMService
	store  storage.Storage
	logger *slog.Logger

	historyLimit int
	turnTimeout  time.Duration
	voiceTimeout time.Duration
	allowDraft   bool

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// New creates an engine with default settings.
func New(llm services.LLMService, store storage.Storage, logger *slog.Logger) *Engine {
	return &Engine{
		llm:          llm,
		store:        store,
		logger:       logger,
		historyLimit: prompts.DefaultHistoryLimit,
		turnTimeout:  DefaultTurnTimeout,
		voiceTimeout: DefaultVoiceTimeout,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

// WithHistoryLimit overrides how many recent events feed prompts and
// trigger matching.
func (e *Engine) WithHistoryLimit(limit int) *Engine {
	if limit > 0 {
		e.historyLimit = limit
	}
	return e
}

// WithTurnTimeout overrides the world-decision call timeout.
func (e *Engine) WithTurnTimeout(d time.Duration) *Engine {
	if d > 0 {
		e.turnTimeout = d
	}
	return e
}

// WithVoiceTimeout overrides the per-voice call timeout.
func (e *Engine) WithVoiceTimeout(d time.Duration) *Engine {
	if d > 0 {
		e.voiceTimeout = d
	}
	return e
}

// WithDraftScenarios allows adventures to start from draft scenarios.
func (e *Engine) WithDraftScenarios(allow bool) *Engine {
	e.allowDraft = allow
	return e
}

// lock returns the mutex serializing turns for one adventure.
func (e *Engine) lock(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.locks[id]
	if !ok {
		m = &sync.Mutex{}
		e.locks[id] = m
	}
	return m
}

// releaseLock drops the per-adventure mutex after deletion.
func (e *Engine) releaseLock(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, id)
}

// StartAdventure creates a playthrough from a scenario and commits its
// opening story event. When the scenario carries no opening text, the
// world-decision call generates one.
func (e *Engine) StartAdventure(ctx context.Context, scenarioID, title string) (*state.Adventure, *state.Event, error) {
	s, err := e.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, nil, err
	}
	if err := e.checkPlayable(s); err != nil {
		return nil, nil, err
	}

	adv := state.NewAdventure(s, title)
	event := &state.Event{
		Sequence:   0,
		ActionType: state.ActionStory,
		CreatedAt:  time.Now().UTC(),
	}

	if s.OpeningSituation != "" {
		event.Narration = openingNarration(s)
	} else {
		decision, err := e.worldDecision(ctx, adv, nil, nil, "", state.ActionStory, "Begin the story.")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate opening: %w", err)
		}
		event.Narration = decision.Narration
		event.SceneUpdate = decision.SceneUpdate
	}

	applyEvent(adv, event)
	adv.NextSequence = 1
	adv.UpdatedAt = time.Now().UTC()

	if err := e.store.CommitTurn(ctx, adv, event); err != nil {
		return nil, nil, err
	}

	e.logger.Info("adventure started", "adventure_id", adv.ID, "scenario_id", s.ID)
	return adv, event, nil
}

// DeleteAdventure removes an adventure, its event log and its turn lock.
func (e *Engine) DeleteAdventure(ctx context.Context, id uuid.UUID) error {
	m := e.lock(id)
	m.Lock()
	defer m.Unlock()

	if err := e.store.DeleteAdventure(ctx, id); err != nil {
		return err
	}
	e.releaseLock(id)
	return nil
}

func (e *Engine) checkPlayable(s *scenario.Scenario) error {
	switch s.Status {
	// Files authored without a status are treated as published.
	case scenario.StatusPublished, "":
		return nil
	case scenario.StatusDraft:
		if e.allowDraft {
			return nil
		}
		return fmt.Errorf("%w: scenario %q is a draft", ErrScenarioUnavailable, s.ID)
	default:
		return fmt.Errorf("%w: scenario %q has status %q", ErrScenarioUnavailable, s.ID, s.Status)
	}
}

func openingNarration(s *scenario.Scenario) string {
	text := s.OpeningSituation
	if s.OpeningLocation != "" {
		text = s.OpeningLocation + ". " + text
	}
	return text
}
