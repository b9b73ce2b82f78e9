package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/internal/services"
	"github.com/lorebound/adventure-engine/pkg/prompts"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// ErrInvalidTurn marks caller mistakes in a turn request, as opposed to
// engine or provider failures.
var ErrInvalidTurn = errors.New("invalid turn request")

// TurnRequest is one player action submitted to an adventure.
type TurnRequest struct {
	ActorName  string           `json:"actor_name"`
	ActionType state.ActionType `json:"action_type"`
	Input      string           `json:"input"`
}

// TurnResult is the committed outcome of a turn.
type TurnResult struct {
	Event           *state.Event     `json:"event"`
	Scene           *state.Scene     `json:"scene"`
	AwaitingPCInput bool             `json:"awaiting_pc_input,omitempty"`
	PCPrompts       []state.PCPrompt `json:"pc_prompts,omitempty"`
}

// ProcessTurn runs one full turn: match triggers, ask the world what happens,
// dispatch character voices, compose and commit the event. Turns on the same
// adventure are serialized. If the world-decision call fails outright the
// turn aborts and nothing is written.
func (e *Engine) ProcessTurn(ctx context.Context, adventureID uuid.UUID, req TurnRequest) (*TurnResult, error) {
	if err := e.validateRequest(&req); err != nil {
		return nil, err
	}

	m := e.lock(adventureID)
	m.Lock()
	defer m.Unlock()

	adv, err := e.store.LoadAdventure(ctx, adventureID)
	if err != nil {
		return nil, err
	}

	if req.ActorName == "" {
		req.ActorName = e.defaultActor(adv)
	}
	if req.ActorName != "" && req.ActionType != state.ActionStory && !adv.IsPC(req.ActorName) {
		return nil, fmt.Errorf("%w: actor %q is not a player character", ErrInvalidTurn, req.ActorName)
	}

	recent, err := e.store.ListEvents(ctx, adventureID, -int64(e.historyLimit), -1)
	if err != nil {
		return nil, err
	}

	// Trigger matching scans the recent narrative plus the fresh input.
	window := triggerWindow(recent, &req)
	matched := scenario.MatchCards(window, adv.StoryCards, scenario.MatchOptions{
		ActingPC: req.ActorName,
		Present:  adv.Scene.PresentSet(),
	})

	decision, err := e.worldDecision(ctx, adv, recent, matched.Inject, req.ActorName, req.ActionType, req.Input)
	if err != nil {
		return nil, err
	}

	// Voices react to the scene as it stands after the world's update.
	preview := adv.Scene.Clone()
	if decision.SceneUpdate != nil {
		preview.Apply(decision.SceneUpdate)
	}

	responders := e.validResponders(adv, preview, decision)
	actions := e.dispatchVoices(ctx, adv, preview, decision, responders, &req)

	event := &state.Event{
		Sequence:         adv.NextSequence,
		ActorName:        req.ActorName,
		ActionType:       req.ActionType,
		PlayerInput:      req.Input,
		Narration:        decision.Narration,
		SceneUpdate:      decision.SceneUpdate,
		CharacterUpdates: e.validUpdates(adv, preview, decision),
		CharacterActions: actions,
		CreatedAt:        time.Now().UTC(),
	}

	applyEvent(adv, event)
	adv.NextSequence++
	adv.UpdatedAt = time.Now().UTC()

	if err := e.store.CommitTurn(ctx, adv, event); err != nil {
		return nil, err
	}

	e.logger.Info("turn committed",
		"adventure_id", adv.ID,
		"sequence", event.Sequence,
		"actor", req.ActorName,
		"voices", len(actions))

	return &TurnResult{
		Event:           event,
		Scene:           adv.Scene,
		AwaitingPCInput: decision.AwaitingPCInput,
		PCPrompts:       decision.PCPrompts,
	}, nil
}

func (e *Engine) validateRequest(req *TurnRequest) error {
	if strings.TrimSpace(req.Input) == "" {
		return fmt.Errorf("%w: input is required", ErrInvalidTurn)
	}
	if req.ActionType == "" {
		req.ActionType = state.ActionDo
	}
	if !req.ActionType.Valid() {
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidTurn, req.ActionType)
	}
	return nil
}

// defaultActor picks the sole player character when the request names none.
func (e *Engine) defaultActor(adv *state.Adventure) string {
	var pc string
	for _, cs := range adv.Characters {
		if cs.IsPC {
			if pc != "" {
				return "" // ambiguous, caller must name the actor
			}
			pc = cs.Name
		}
	}
	return pc
}

// worldDecision issues the world-decision call with one strict retry on
// malformed output. A second malformed response degrades to a narrative-gap
// fallback so the turn can still commit; transport errors abort.
func (e *Engine) worldDecision(ctx context.Context, adv *state.Adventure, recent []state.Event, cards []scenario.StoryCard, actor string, t state.ActionType, input string) (*state.WorldDecision, error) {
	messages, err := prompts.New().
		WithAdventure(adv).
		WithRecentEvents(recent).
		WithTriggeredCards(cards).
		WithPlayerAction(actor, t, input).
		WithHistoryLimit(e.historyLimit).
		Build()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	decision, err := e.llm.WorldDecision(callCtx, messages)
	if err == nil {
		return decision, nil
	}
	if !errors.Is(err, services.ErrMalformedOutput) {
		return nil, fmt.Errorf("world decision failed: %w", err)
	}

	e.logger.Warn("world decision output malformed, retrying strict", "adventure_id", adv.ID, "error", err)

	strictMessages, err := prompts.New().
		WithAdventure(adv).
		WithRecentEvents(recent).
		WithTriggeredCards(cards).
		WithPlayerAction(actor, t, input).
		WithHistoryLimit(e.historyLimit).
		Strict().
		Build()
	if err != nil {
		return nil, err
	}

	retryCtx, cancel2 := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel2()

	decision, err = e.llm.WorldDecision(retryCtx, strictMessages)
	if err == nil {
		return decision, nil
	}
	if !errors.Is(err, services.ErrMalformedOutput) {
		return nil, fmt.Errorf("world decision retry failed: %w", err)
	}

	e.logger.Warn("world decision malformed twice, committing narrative gap", "adventure_id", adv.ID)
	return &state.WorldDecision{Narration: prompts.NarrativeGapText}, nil
}

// validResponders filters the decision's NPC responses: a responder must be
// present in the updated scene and must not be a player character.
func (e *Engine) validResponders(adv *state.Adventure, scene *state.Scene, decision *state.WorldDecision) []state.NPCResponse {
	var out []state.NPCResponse
	for _, r := range decision.Responders() {
		if adv.IsPC(r.CharacterName) {
			e.logger.Warn("dropping voice target: player character", "adventure_id", adv.ID, "character", r.CharacterName)
			continue
		}
		if !scene.HasCharacter(r.CharacterName) {
			e.logger.Warn("dropping voice target: not present in scene", "adventure_id", adv.ID, "character", r.CharacterName)
			continue
		}
		out = append(out, r)
	}
	return out
}

// validUpdates canonicalizes the decision's character patches and drops the
// empty ones. Patches may target characters the scene update just introduced.
func (e *Engine) validUpdates(adv *state.Adventure, scene *state.Scene, decision *state.WorldDecision) map[string]*state.CharacterPatch {
	if len(decision.CharacterUpdates) == 0 {
		return nil
	}
	out := make(map[string]*state.CharacterPatch)
	for name, patch := range decision.CharacterUpdates {
		if patch == nil || patch.IsEmpty() {
			continue
		}
		canonical := state.CanonicalName(name)
		if cs := adv.Character(name); cs != nil {
			canonical = cs.Name
		} else if !scene.HasCharacter(name) {
			e.logger.Warn("dropping character update: unknown character", "adventure_id", adv.ID, "character", name)
			continue
		}
		out[canonical] = patch
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// triggerWindow concatenates recent narrative with the fresh input for
// trigger matching.
func triggerWindow(recent []state.Event, req *TurnRequest) string {
	var sb strings.Builder
	for i := range recent {
		e := &recent[i]
		sb.WriteString(e.PlayerText())
		sb.WriteString("\n")
		if text := e.NarrativeText(); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(req.Input)
	return sb.String()
}
